package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"purple-sphinx/internal/quiz"
)

// ReadQuestions parses a question CSV with the header
//
//	id,set_id,type,prompt_html,points,options,correct
//
// Options are "id=label" pairs separated by "|". The correct column holds
// "true"/"false" for binary questions and "|"-separated option ids for
// multi questions. Rows without a prompt are skipped.
func ReadQuestions(r io.Reader) ([]quiz.Question, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var questions []quiz.Question
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue
		}
		q := quiz.Question{
			ID:         strings.TrimSpace(row[0]),
			SetID:      strings.TrimSpace(row[1]),
			Kind:       quiz.Kind(strings.ToLower(strings.TrimSpace(row[2]))),
			PromptHTML: strings.TrimSpace(row[3]),
		}
		if q.PromptHTML == "" {
			continue
		}
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			points, err := strconv.Atoi(strings.TrimSpace(row[4]))
			if err != nil {
				return nil, fmt.Errorf("row %d: points: %w", i+1, err)
			}
			q.Points = points
		}
		if len(row) > 5 {
			q.Options = parseOptions(row[5])
		}
		if len(row) > 6 {
			correct, err := parseCorrect(q.Kind, row[6])
			if err != nil {
				return nil, fmt.Errorf("row %d: correct: %w", i+1, err)
			}
			q.Correct = correct
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func parseOptions(field string) []quiz.Option {
	var options []quiz.Option
	for _, pair := range strings.Split(field, "|") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, label, found := strings.Cut(pair, "=")
		if !found {
			label = id
		}
		options = append(options, quiz.Option{ID: strings.TrimSpace(id), Label: strings.TrimSpace(label)})
	}
	return options
}

func parseCorrect(kind quiz.Kind, field string) (json.RawMessage, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, nil
	}
	switch kind {
	case quiz.KindBinary:
		return json.Marshal(strings.ToLower(field))
	case quiz.KindMultiSelect:
		ids := make([]string, 0)
		for _, id := range strings.Split(field, "|") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return json.Marshal(ids)
	default:
		return nil, nil
	}
}
