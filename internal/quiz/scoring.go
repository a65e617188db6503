package quiz

import (
	"bytes"
	"encoding/json"
)

const (
	MaxAnswerLength = 1000
	MaxSamples      = 50
	MaxSampleLength = 200
)

// Stats is the per-question aggregate sent with results. Counts is keyed by
// "true"/"false" for binary questions and by option id for multi questions.
type Stats struct {
	Total   int            `json:"total"`
	Counts  map[string]int `json:"counts,omitempty"`
	Samples []string       `json:"samples,omitempty"`
}

// Score returns the points a single answer earns. Free-text answers are
// never auto-scored.
func Score(q Question, answer json.RawMessage) int {
	if q.Points <= 0 {
		return 0
	}
	switch q.Kind {
	case KindBinary:
		got, ok := textOf(answer)
		if !ok {
			return 0
		}
		want, ok := textOf(q.Correct)
		if !ok || got != want {
			return 0
		}
		return q.Points
	case KindMultiSelect:
		got, ok := setOf(answer)
		if !ok {
			return 0
		}
		want, ok := setOf(q.Correct)
		if !ok || len(got) != len(want) {
			return 0
		}
		for id := range want {
			if _, found := got[id]; !found {
				return 0
			}
		}
		return q.Points
	default:
		return 0
	}
}

// Aggregate builds statistics over every answer submitted for q. Malformed
// answers count toward Total only.
func Aggregate(q Question, answers []json.RawMessage) Stats {
	stats := Stats{Total: len(answers)}
	switch q.Kind {
	case KindBinary:
		stats.Counts = map[string]int{"true": 0, "false": 0}
		for _, answer := range answers {
			text, ok := textOf(answer)
			if !ok {
				continue
			}
			if _, tracked := stats.Counts[text]; tracked {
				stats.Counts[text]++
			}
		}
	case KindMultiSelect:
		stats.Counts = make(map[string]int, len(q.Options))
		for _, option := range q.Options {
			stats.Counts[option.ID] = 0
		}
		for _, answer := range answers {
			selected, ok := setOf(answer)
			if !ok {
				continue
			}
			for id := range selected {
				if _, tracked := stats.Counts[id]; tracked {
					stats.Counts[id]++
				}
			}
		}
	case KindFreeText:
		stats.Samples = make([]string, 0, min(len(answers), MaxSamples))
		for _, answer := range answers {
			if len(stats.Samples) >= MaxSamples {
				break
			}
			var text string
			if err := json.Unmarshal(answer, &text); err != nil {
				continue
			}
			stats.Samples = append(stats.Samples, truncate(text, MaxSampleLength))
		}
	}
	return stats
}

// TruncateAnswer shortens string answers longer than limit runes. Any other
// payload is returned unchanged.
func TruncateAnswer(answer json.RawMessage, limit int) json.RawMessage {
	var text string
	if err := json.Unmarshal(answer, &text); err != nil {
		return answer
	}
	short := truncate(text, limit)
	if len(short) == len(text) {
		return answer
	}
	encoded, err := json.Marshal(short)
	if err != nil {
		return answer
	}
	return encoded
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// textOf returns the textual form of a scalar JSON value: strings as-is,
// booleans and numbers as their literal.
func textOf(raw json.RawMessage) (string, bool) {
	value, ok := decode(raw)
	if !ok {
		return "", false
	}
	return scalarText(value)
}

// setOf decodes a JSON array of scalars into a set of their textual forms.
func setOf(raw json.RawMessage) (map[string]struct{}, bool) {
	value, ok := decode(raw)
	if !ok {
		return nil, false
	}
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		text, ok := scalarText(item)
		if !ok {
			return nil, false
		}
		set[text] = struct{}{}
	}
	return set, true
}

func decode(raw json.RawMessage) (any, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, false
	}
	return value, true
}

func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
