package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestParser_CSVWithAliasedHeaders(t *testing.T) {
	csvData := `Idea Title,Description,Name,Domain,Timestamp
Rent reminders,Reminds tenants about rent due dates,Ana,fintech,2025-03-14
Plant drone,A drone that waters houseplants,Ben,hardware,2025-03-15 09:30:00
,No title row still parses,,,
`
	parser := NewParser()

	ideas, err := parser.Parse("ideas.csv", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(ideas) != 3 {
		t.Fatalf("Expected 3 ideas, got %d", len(ideas))
	}

	first := ideas["1"]
	if first.Title != "Rent reminders" || first.Author != "Ana" || first.Category != "fintech" {
		t.Errorf("Aliased columns not mapped: %+v", first)
	}
	if first.Description != "Reminds tenants about rent due dates" {
		t.Errorf("Description not mapped: %q", first.Description)
	}
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if !first.SubmittedAt.Equal(want) {
		t.Errorf("Timestamp not parsed: %v", first.SubmittedAt)
	}

	second := ideas["2"]
	if second.SubmittedAt.Hour() != 9 || second.SubmittedAt.Minute() != 30 {
		t.Errorf("Datetime layout not parsed: %v", second.SubmittedAt)
	}

	third := ideas["3"]
	if third.Title != "Idea 3" {
		t.Errorf("Expected fallback title for untitled row, got %q", third.Title)
	}
	if !third.HasDescription() {
		t.Errorf("Row 3 description lost: %+v", third)
	}
}

func TestParser_CSVKeepsEmptyDescriptions(t *testing.T) {
	csvData := "title,description\nGood idea,Has content\nBlank idea,\n"
	parser := NewParser()

	ideas, err := parser.Parse("ideas.csv", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if ideas["2"].HasDescription() {
		t.Errorf("Expected idea 2 to have no description, got %q", ideas["2"].Description)
	}
}

func TestParser_JSONArray(t *testing.T) {
	jsonData := `[
		{"title": "Rent reminders", "description": "Reminds tenants about rent", "author": "Ana", "category": "fintech"},
		{"Idea Title": "Plant drone", "Description": "Waters houseplants", "Name": "Ben", "Domain": "hardware", "Timestamp": "2025-03-15T09:30:00Z"}
	]`
	parser := NewParser()

	ideas, err := parser.Parse("ideas.json", strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(ideas) != 2 {
		t.Fatalf("Expected 2 ideas, got %d", len(ideas))
	}
	if ideas["1"].Author != "Ana" {
		t.Errorf("Lowercase keys not mapped: %+v", ideas["1"])
	}
	if ideas["2"].Category != "hardware" || ideas["2"].SubmittedAt.IsZero() {
		t.Errorf("Aliased JSON keys not mapped: %+v", ideas["2"])
	}
}

func TestParser_XLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Title", "Description", "Author"},
		{"Rent reminders", "Reminds tenants about rent", "Ana"},
		{"Plant drone", "Waters houseplants", "Ben"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName failed: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Failed to serialize workbook: %v", err)
	}

	parser := NewParser()

	ideas, err := parser.Parse("ideas.xlsx", &buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(ideas) != 2 {
		t.Fatalf("Expected 2 ideas, got %d", len(ideas))
	}
	if ideas["1"].Title != "Rent reminders" || ideas["2"].Author != "Ben" {
		t.Errorf("XLSX rows not mapped: %+v", ideas)
	}
}

func TestParser_RejectsUnsupportedAndEmptyFiles(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"unsupported extension", "ideas.txt", "whatever"},
		{"header only", "ideas.csv", "title,description\n"},
		{"json object instead of array", "ideas.json", `{"title": "x"}`},
		{"empty json array", "ideas.json", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parser.Parse(tt.filename, strings.NewReader(tt.content)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}
