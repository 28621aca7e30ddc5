package quizsystem

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// jsonObjectPattern matches from the first '{' to the last '}' across lines
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// decodeLenient unmarshals an AI reply into v. Replies that wrap the JSON in
// prose or markdown fences get a second attempt on the outermost {...} span.
func decodeLenient(content string, v any) error {
	content = strings.TrimSpace(content)
	err := json.Unmarshal([]byte(content), v)
	if err == nil {
		return nil
	}

	match := jsonObjectPattern.FindString(content)
	if match == "" {
		return fmt.Errorf("%w: no JSON object in response", ErrResponseFormat)
	}
	if err := json.Unmarshal([]byte(match), v); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseFormat, err)
	}
	return nil
}

const (
	defaultOverallScore    = 70
	defaultOverallFeedback = "AI evaluation is temporarily unavailable; this is a default score."
	completedFeedback      = "AI evaluation complete."
)

// ParseEvaluation extracts an Evaluation from an AI reply. It never fails:
// unparseable replies yield the default evaluation.
func ParseEvaluation(content string) Evaluation {
	var ev Evaluation
	if err := decodeLenient(content, &ev); err != nil {
		Logger.Warn().Err(err).Msg("AI evaluation reply unparseable, using default result")
		return Evaluation{
			OverallScore:        defaultOverallScore,
			OverallFeedback:     defaultOverallFeedback,
			QuestionEvaluations: []QuestionEvaluation{},
		}
	}
	if ev.OverallScore == 0 {
		ev.OverallScore = defaultOverallScore
	}
	if ev.OverallFeedback == "" {
		ev.OverallFeedback = completedFeedback
	}
	if ev.QuestionEvaluations == nil {
		ev.QuestionEvaluations = []QuestionEvaluation{}
	}
	return ev
}

type questionPayload struct {
	Questions []struct {
		Type        string          `json:"type"`
		Question    string          `json:"question"`
		Options     []string        `json:"options"`
		Answer      json.RawMessage `json:"answer"`
		Explanation string          `json:"explanation"`
	} `json:"questions"`
}

// ParseQuestions extracts generated questions from an AI reply. Answers may
// arrive as strings, booleans, numbers or arrays; they are flattened to text.
func ParseQuestions(content string) ([]Question, error) {
	var payload questionPayload
	if err := decodeLenient(content, &payload); err != nil {
		return nil, err
	}
	if payload.Questions == nil {
		return nil, fmt.Errorf("%w: missing questions field", ErrResponseFormat)
	}

	questions := make([]Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		questions = append(questions, Question{
			Type:        QuestionType(strings.TrimSpace(q.Type)),
			Question:    strings.TrimSpace(q.Question),
			Options:     q.Options,
			Answer:      flattenAnswer(q.Answer),
			Explanation: strings.TrimSpace(q.Explanation),
		})
	}
	return questions, nil
}

func flattenAnswer(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, fmt.Sprint(v))
		}
		return strings.Join(parts, ",")
	}
	var other any
	if err := json.Unmarshal(raw, &other); err == nil && other != nil {
		return fmt.Sprint(other)
	}
	return ""
}
