package ai

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Global map to track initialized prompt directories (to avoid duplicate logs)
var (
	initializedDirs   = make(map[string]bool)
	initializedDirsMu sync.RWMutex
)

// Prompt template names used by the evaluator agents
const (
	PromptEffortEstimate = "effort_estimate"
	PromptValueEstimate  = "value_estimate"
	PromptFinalSummary   = "final_summary"
	PromptIdeaChat       = "idea_chat"
)

// PromptManager - external prompt loader with built-in fallbacks
type PromptManager struct {
	PromptsDir string
}

// NewPromptManager creates a prompt manager
func NewPromptManager(promptsDir string) *PromptManager {
	// Only log initialization once per directory
	initializedDirsMu.Lock()
	if !initializedDirs[promptsDir] {
		initializedDirs[promptsDir] = true
		log.Printf("[PromptManager] Initialized for directory: %s", promptsDir)
	}
	initializedDirsMu.Unlock()

	return &PromptManager{PromptsDir: promptsDir}
}

// LoadPrompt loads a prompt template by name. A template file on disk
// takes priority; otherwise the built-in template ships with the binary
// so deployments work without a prompts directory.
func (pm *PromptManager) LoadPrompt(name string) (string, error) {
	path := filepath.Join(pm.PromptsDir, name+".txt")

	content, err := os.ReadFile(path)
	if err == nil {
		return string(content), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}

	if builtin, ok := builtinPrompts[name]; ok {
		return builtin, nil
	}
	return "", fmt.Errorf("prompt template not found: %s", name)
}

// RenderPrompt replaces {PLACEHOLDER} with values
func (pm *PromptManager) RenderPrompt(name string, replacements map[string]string) (string, error) {
	template, err := pm.LoadPrompt(name)
	if err != nil {
		return "", err
	}

	result := template
	for placeholder, value := range replacements {
		placeholderKey := "{" + placeholder + "}"
		result = strings.ReplaceAll(result, placeholderKey, value)
	}

	return result, nil
}

var builtinPrompts = map[string]string{
	PromptEffortEstimate: effortEstimatePrompt,
	PromptValueEstimate:  valueEstimatePrompt,
	PromptFinalSummary:   finalSummaryPrompt,
	PromptIdeaChat:       ideaChatPrompt,
}

const effortEstimatePrompt = `You are an experienced product manager and software architect.

Estimate the implementation effort for the product idea below on a scale
from 0.0 (trivial, a weekend prototype) to 1.0 (a multi-year moonshot).

Consider:
- Time needed to build a first usable version
- Team size and specialist skills required
- External dependencies, integrations, and regulatory hurdles
- Technical complexity and operational risk

Idea {IDEA_ID}: {DESCRIPTION}

Respond ONLY with a JSON object in exactly this shape:
{
  "effort_score": <number between 0.0 and 1.0>,
  "reasoning": "<2-4 sentences explaining the score>",
  "details": {
    "time_needed": "<rough time estimate>",
    "resources": "<team and skills required>",
    "dependencies": "<external dependencies or blockers>",
    "complexity": "<main technical challenges>"
  }
}`

const valueEstimatePrompt = `You are a venture analyst assessing the potential return of product ideas.

Estimate the expected value of the product idea below on a scale from
0.0 (no meaningful upside) to 1.0 (exceptional, category-defining upside).

Consider:
- Value created for users and how acute the problem is
- Size and urgency of user demand
- Business impact: revenue potential, strategic positioning, moat

Idea {IDEA_ID}: {DESCRIPTION}

Respond ONLY with a JSON object in exactly this shape:
{
  "value_score": <number between 0.0 and 1.0>,
  "reasoning": "<2-4 sentences explaining the score>",
  "details": {
    "value_created": "<what the idea delivers and to whom>",
    "user_demand": "<evidence or expectation of demand>",
    "business_impact": "<revenue and strategic upside>"
  }
}`

const finalSummaryPrompt = `You are a product analyst writing the closing assessment of an evaluated idea.

The idea has already been scored by specialist evaluators. Your job is to
synthesize their findings and the market context into a short, decisive
paragraph a busy stakeholder can act on.

Idea {IDEA_ID}: {TITLE}
Description: {DESCRIPTION}
Value score: {VALUE_SCORE} (0.0 = no upside, 1.0 = exceptional upside)
Effort score: {EFFORT_SCORE} (0.0 = trivial, 1.0 = moonshot)

Market context gathered for this idea:
{CONTEXT}

Write 2-4 sentences that weigh the value against the effort, reference the
market context where it is relevant, and end with a clear recommendation.

Respond ONLY with a JSON object in exactly this shape:
{
  "aggregated_reasoning": "<your 2-4 sentence assessment>"
}`

const ideaChatPrompt = `You are a product analyst discussing one evaluated idea with its owner.

Idea: {TITLE}
Description: {DESCRIPTION}
Value score: {VALUE_SCORE} (0.0 = no upside, 1.0 = exceptional upside)
Effort score: {EFFORT_SCORE} (0.0 = trivial, 1.0 = moonshot)
Assessment: {REASONING}

Answer the user's questions about this idea: its scores, risks, market
fit, and how it could be improved or descoped. Ground your answers in the
assessment above. Be direct and concrete; say so when something is outside
what the evaluation covered.`
