package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"thinkwise/internal/errors"
	"thinkwise/models"

	"github.com/xuri/excelize/v2"
)

// Canonical column names after alias resolution
const (
	colTitle       = "title"
	colDescription = "description"
	colAuthor      = "author"
	colCategory    = "category"
	colTimestamp   = "timestamp"
)

// headerAliases maps the column spellings seen in real uploads onto the
// canonical names. Keys are lowercased and trimmed before lookup.
var headerAliases = map[string]string{
	"idea title":  colTitle,
	"title":       colTitle,
	"description": colDescription,
	"name":        colAuthor,
	"author":      colAuthor,
	"domain":      colCategory,
	"category":    colCategory,
	"timestamp":   colTimestamp,
}

// timestampLayouts tried in order when parsing submission times
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Parser turns uploaded idea files (CSV, JSON, XLSX) into the idea map
// the batch orchestrator consumes. Ideas are keyed "1".."N" in row
// order. Empty descriptions pass through untouched; the orchestrator
// marks those ideas instead of evaluating them.
type Parser struct{}

// NewParser creates an idea file parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads ideas from the named file content. The extension decides
// the format; anything else is rejected as invalid input.
func (p *Parser) Parse(filename string, r io.Reader) (map[string]models.Idea, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	log.Printf("[IdeaParser] Parsing %s upload: %s", ext, filename)

	var (
		ideas map[string]models.Idea
		err   error
	)
	switch ext {
	case ".csv":
		ideas, err = p.parseCSV(r)
	case ".json":
		ideas, err = p.parseJSON(r)
	case ".xlsx":
		ideas, err = p.parseXLSX(r)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s (expected .csv, .json, or .xlsx)", ext))
	}
	if err != nil {
		return nil, err
	}

	if len(ideas) == 0 {
		return nil, errors.InvalidInput("no ideas found in file")
	}

	log.Printf("[IdeaParser] Parsed %d ideas from %s", len(ideas), filename)
	return ideas, nil
}

func (p *Parser) parseCSV(r io.Reader) (map[string]models.Idea, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("file must have a header row and at least one data row")
	}

	headers := canonicalHeaders(rows[0])

	ideas := make(map[string]models.Idea, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		fields := make(map[string]string)
		for j, cell := range rows[i] {
			if j < len(headers) && headers[j] != "" {
				fields[headers[j]] = strings.TrimSpace(cell)
			}
		}
		id := strconv.Itoa(i)
		ideas[id] = buildIdea(id, fields)
	}
	return ideas, nil
}

func (p *Parser) parseJSON(r io.Reader) (map[string]models.Idea, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON file (expected an array of idea objects)")
	}

	ideas := make(map[string]models.Idea, len(raw))
	for i, obj := range raw {
		fields := make(map[string]string)
		for key, value := range obj {
			canonical, ok := headerAliases[strings.ToLower(strings.TrimSpace(key))]
			if !ok {
				continue
			}
			fields[canonical] = strings.TrimSpace(stringifyValue(value))
		}
		id := strconv.Itoa(i + 1)
		ideas[id] = buildIdea(id, fields)
	}
	return ideas, nil
}

func (p *Parser) parseXLSX(r io.Reader) (map[string]models.Idea, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("Excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("file must have a header row and at least one data row")
	}

	headers := canonicalHeaders(rows[0])

	ideas := make(map[string]models.Idea, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		fields := make(map[string]string)
		for j, cell := range rows[i] {
			if j < len(headers) && headers[j] != "" {
				fields[headers[j]] = strings.TrimSpace(cell)
			}
		}
		id := strconv.Itoa(i)
		ideas[id] = buildIdea(id, fields)
	}
	return ideas, nil
}

// canonicalHeaders resolves raw header cells through the alias table.
// Unrecognized columns map to "" and are skipped during row extraction.
func canonicalHeaders(headerRow []string) []string {
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = headerAliases[strings.ToLower(strings.TrimSpace(header))]
	}
	return headers
}

func buildIdea(id string, fields map[string]string) models.Idea {
	idea := models.Idea{
		ID:          id,
		Title:       fields[colTitle],
		Description: fields[colDescription],
		Author:      fields[colAuthor],
		Category:    fields[colCategory],
	}
	if idea.Title == "" {
		idea.Title = "Idea " + id
	}
	if ts := fields[colTimestamp]; ts != "" {
		idea.SubmittedAt = parseTimestamp(ts)
	}
	return idea
}

// parseTimestamp tries the known layouts; unparseable values yield the
// zero time rather than failing the whole upload.
func parseTimestamp(value string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
