package quiz

import (
	"encoding/json"
	"strings"
	"testing"
)

func binaryQuestion(correct string, points int) Question {
	return Question{
		ID:         "tf",
		Kind:       KindBinary,
		PromptHTML: "<p>True or false?</p>",
		Correct:    json.RawMessage(correct),
		Points:     points,
	}
}

func colorsQuestion() Question {
	return Question{
		ID:         "colors",
		Kind:       KindMultiSelect,
		PromptHTML: "<p>Select the purple/blue tones:</p>",
		Options: []Option{
			{ID: "1", Label: "Purple"},
			{ID: "2", Label: "Blue"},
			{ID: "3", Label: "Grey"},
		},
		Correct: json.RawMessage(`["1","2"]`),
		Points:  200,
	}
}

func raw(values ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(values))
	for _, value := range values {
		out = append(out, json.RawMessage(value))
	}
	return out
}

func TestScoreBinaryComparesTextualForm(t *testing.T) {
	q := binaryQuestion(`"true"`, 100)
	cases := []struct {
		answer string
		want   int
	}{
		{`"true"`, 100},
		{`true`, 100},
		{`"false"`, 0},
		{`false`, 0},
		{`"TRUE"`, 0},
		{`null`, 0},
		{`{"x":1}`, 0},
		{``, 0},
	}
	for _, tc := range cases {
		if got := Score(q, json.RawMessage(tc.answer)); got != tc.want {
			t.Fatalf("answer %s: expected %d points, got %d", tc.answer, tc.want, got)
		}
	}
}

func TestScoreMultiIsOrderIndependent(t *testing.T) {
	q := colorsQuestion()
	if got := Score(q, json.RawMessage(`["2","1"]`)); got != 200 {
		t.Fatalf("expected full points for reordered set, got %d", got)
	}
	if got := Score(q, json.RawMessage(`["1","2","2"]`)); got != 200 {
		t.Fatalf("expected duplicates to be ignored, got %d", got)
	}
	if got := Score(q, json.RawMessage(`[1,2]`)); got != 200 {
		t.Fatalf("expected numeric ids to match textual ids, got %d", got)
	}
}

func TestScoreMultiHasNoPartialCredit(t *testing.T) {
	q := colorsQuestion()
	for _, answer := range []string{`["1"]`, `["1","2","3"]`, `[]`, `"1,2"`, `[["1"],"2"]`} {
		if got := Score(q, json.RawMessage(answer)); got != 0 {
			t.Fatalf("answer %s: expected zero points, got %d", answer, got)
		}
	}
}

func TestScoreFreeTextIsNeverAutoScored(t *testing.T) {
	q := Question{ID: "open", Kind: KindFreeText, PromptHTML: "<p>Why?</p>", Points: 50}
	if got := Score(q, json.RawMessage(`"because"`)); got != 0 {
		t.Fatalf("expected zero points, got %d", got)
	}
}

func TestScoreIgnoresNonPositivePoints(t *testing.T) {
	q := binaryQuestion(`"true"`, 0)
	if got := Score(q, json.RawMessage(`"true"`)); got != 0 {
		t.Fatalf("expected zero points, got %d", got)
	}
}

func TestAggregateBinary(t *testing.T) {
	q := binaryQuestion(`"true"`, 100)
	stats := Aggregate(q, raw(`"true"`, `true`, `"false"`, `"maybe"`, `{}`))
	if stats.Total != 5 {
		t.Fatalf("expected total 5, got %d", stats.Total)
	}
	if stats.Counts["true"] != 2 || stats.Counts["false"] != 1 {
		t.Fatalf("unexpected counts: %#v", stats.Counts)
	}
	if len(stats.Counts) != 2 {
		t.Fatalf("expected only true/false buckets, got %#v", stats.Counts)
	}
}

func TestAggregateBinaryEmpty(t *testing.T) {
	stats := Aggregate(binaryQuestion(`"true"`, 100), nil)
	if stats.Total != 0 || stats.Counts["true"] != 0 || stats.Counts["false"] != 0 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if _, ok := stats.Counts["false"]; !ok {
		t.Fatalf("expected false bucket to be present")
	}
}

func TestAggregateMultiCountsOptions(t *testing.T) {
	stats := Aggregate(colorsQuestion(), raw(`["1","2"]`, `["1"]`, `["1","2","3"]`))
	want := map[string]int{"1": 3, "2": 2, "3": 1}
	for id, count := range want {
		if stats.Counts[id] != count {
			t.Fatalf("option %s: expected %d, got %d (%#v)", id, count, stats.Counts[id], stats.Counts)
		}
	}
	if stats.Total != 3 {
		t.Fatalf("expected total 3, got %d", stats.Total)
	}
}

func TestAggregateMultiToleratesMalformed(t *testing.T) {
	stats := Aggregate(colorsQuestion(), raw(`"1"`, `null`, `["9"]`, `["1","1"]`))
	if stats.Total != 4 {
		t.Fatalf("expected total 4, got %d", stats.Total)
	}
	if stats.Counts["1"] != 1 {
		t.Fatalf("expected one selection of option 1, got %#v", stats.Counts)
	}
	if _, ok := stats.Counts["9"]; ok {
		t.Fatalf("unknown option should not get a bucket")
	}
}

func TestAggregateFreeTextSamples(t *testing.T) {
	q := Question{ID: "open", Kind: KindFreeText, PromptHTML: "<p>Why?</p>"}
	answers := make([]json.RawMessage, 0, 60)
	long := strings.Repeat("é", MaxSampleLength+25)
	encoded, _ := json.Marshal(long)
	answers = append(answers, encoded, json.RawMessage(`42`))
	for i := 0; i < 58; i++ {
		answers = append(answers, json.RawMessage(`"ok"`))
	}

	stats := Aggregate(q, answers)
	if stats.Total != 60 {
		t.Fatalf("expected total 60, got %d", stats.Total)
	}
	if len(stats.Samples) != MaxSamples {
		t.Fatalf("expected %d samples, got %d", MaxSamples, len(stats.Samples))
	}
	if got := len([]rune(stats.Samples[0])); got != MaxSampleLength {
		t.Fatalf("expected first sample truncated to %d runes, got %d", MaxSampleLength, got)
	}
	if stats.Counts != nil {
		t.Fatalf("free text should not report counts")
	}
}

func TestTruncateAnswer(t *testing.T) {
	long, _ := json.Marshal(strings.Repeat("a", MaxAnswerLength+10))
	got := TruncateAnswer(long, MaxAnswerLength)
	var text string
	if err := json.Unmarshal(got, &text); err != nil {
		t.Fatalf("decode truncated: %v", err)
	}
	if len(text) != MaxAnswerLength {
		t.Fatalf("expected %d characters, got %d", MaxAnswerLength, len(text))
	}

	list := json.RawMessage(`["1","2"]`)
	if string(TruncateAnswer(list, 1)) != string(list) {
		t.Fatalf("non-string answers must be untouched")
	}
}

func TestQuestionValidate(t *testing.T) {
	if err := colorsQuestion().Validate(); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}
	if err := binaryQuestion(`"true"`, 10).Validate(); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}

	bad := colorsQuestion()
	bad.Correct = json.RawMessage(`["7"]`)
	if err := bad.Validate(); err != ErrInvalidCorrect {
		t.Fatalf("expected invalid correct, got %v", err)
	}

	bad = binaryQuestion(`"yes"`, 10)
	if err := bad.Validate(); err != ErrInvalidCorrect {
		t.Fatalf("expected invalid correct, got %v", err)
	}

	bad = Question{Kind: "poll", PromptHTML: "x"}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestQuestionPublicHidesCorrect(t *testing.T) {
	q := colorsQuestion()
	data, err := json.Marshal(q.Public())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "correct") {
		t.Fatalf("public question leaked correct answer: %s", data)
	}
}

func TestQuestionNormalizeDropsOpenCorrect(t *testing.T) {
	q := Question{Kind: KindFreeText, PromptHTML: "  <p>Why?</p> ", Correct: json.RawMessage(`"x"`), Points: -5}
	q.Normalize()
	if q.Correct != nil || q.Points != 0 || q.SetID != DefaultSetID || q.PromptHTML != "<p>Why?</p>" {
		t.Fatalf("unexpected normalized question: %#v", q)
	}
}
