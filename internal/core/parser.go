package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stamind.app/journal-service/internal/store"
)

// analysisPayload mirrors store.AnalysisRecord with pointers so that missing
// required fields can be told apart from zero values.
type analysisPayload struct {
	EmotionalState   *string            `json:"emotionalState"`
	Summary          *string            `json:"summary"`
	RawScore         *int               `json:"rawScore"`
	ScoreExplanation string             `json:"scoreExplanation"`
	SupportMessage   *string            `json:"supportMessage"`
	Themes           []string           `json:"themes"`
	Suggestions      []store.Suggestion `json:"suggestions"`
}

// ExtractJSONObject strips Markdown code fences and returns the text between
// the first '{' and the last '}' inclusive.
func ExtractJSONObject(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	sanitized := strings.ReplaceAll(raw, "```json", "")
	sanitized = strings.ReplaceAll(sanitized, "```", "")
	sanitized = strings.TrimSpace(sanitized)

	start := strings.IndexByte(sanitized, '{')
	end := strings.LastIndexByte(sanitized, '}')
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return sanitized[start : end+1], true
}

// ParseAnalysis extracts an AnalysisRecord from a possibly noisy model
// response. Every failure is a KindParse *Error.
func ParseAnalysis(raw string) (store.AnalysisRecord, error) {
	candidate, ok := ExtractJSONObject(raw)
	if !ok {
		return store.AnalysisRecord{}, newError(KindParse, msgParseFailed, errors.New("no JSON object in model response"))
	}

	var p analysisPayload
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		return store.AnalysisRecord{}, newError(KindParse, msgParseFailed, fmt.Errorf("decode analysis: %w", err))
	}

	var missing []string
	if p.EmotionalState == nil {
		missing = append(missing, "emotionalState")
	}
	if p.Summary == nil {
		missing = append(missing, "summary")
	}
	if p.RawScore == nil {
		missing = append(missing, "rawScore")
	}
	if p.SupportMessage == nil {
		missing = append(missing, "supportMessage")
	}
	if len(missing) > 0 {
		return store.AnalysisRecord{}, newError(KindParse, msgParseFailed,
			fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	rec := store.AnalysisRecord{
		EmotionalState:   *p.EmotionalState,
		Summary:          *p.Summary,
		RawScore:         clampScore(*p.RawScore),
		ScoreExplanation: p.ScoreExplanation,
		SupportMessage:   *p.SupportMessage,
		Themes:           p.Themes,
		Suggestions:      p.Suggestions,
	}
	if rec.Themes == nil {
		rec.Themes = []string{}
	}
	if rec.Suggestions == nil {
		rec.Suggestions = []store.Suggestion{}
	}
	return rec, nil
}
