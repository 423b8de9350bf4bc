package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EvidenceDoc stores a full evidence record in a PostgreSQL JSONB column.
// Evidence is embedded (rather than the underlying type) so the Value
// method required by driver.Valuer does not collide with the Value slot.
type EvidenceDoc struct {
	Evidence
}

// Value implements driver.Valuer.
func (d EvidenceDoc) Value() (driver.Value, error) {
	return json.Marshal(d.Evidence)
}

// Scan implements sql.Scanner.
func (d *EvidenceDoc) Scan(value interface{}) error {
	if value == nil {
		*d = EvidenceDoc{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported evidence column type %T", value)
	}

	if len(bytes) == 0 {
		*d = EvidenceDoc{}
		return nil
	}

	var ev Evidence
	if err := json.Unmarshal(bytes, &ev); err != nil {
		return err
	}
	*d = EvidenceDoc{Evidence: ev}
	return nil
}

// AnalysisRecord is the persisted outcome of evaluating one idea for one
// user. Upserts key on (user_id, idea_id); re-analyzing overwrites.
// Unranked outcomes (no final summary) keep Ranked=false and fallback
// scores so analytics stay total.
type AnalysisRecord struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	IdeaID        string      `json:"idea_id" db:"idea_id"`
	Filename      string      `json:"filename" db:"filename"`
	Title         string      `json:"title" db:"title"`
	Description   string      `json:"description" db:"description"`
	Author        string      `json:"author" db:"author"`
	Category      string      `json:"category" db:"category"`
	SubmittedAt   *time.Time  `json:"submitted_at,omitempty" db:"submitted_at"`
	ValueScore    float64     `json:"value_score" db:"value_score"`
	EffortScore   float64     `json:"effort_score" db:"effort_score"`
	CombinedScore float64     `json:"combined_score" db:"combined_score"`
	Ranked        bool        `json:"ranked" db:"ranked"`
	Evidence      EvidenceDoc `json:"evidence" db:"evidence"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}
