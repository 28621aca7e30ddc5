package quizsystem

import (
	"fmt"
	"strings"
)

// ValidationAction represents what the validator decided to do
type ValidationAction string

const (
	ActionAccept ValidationAction = "accept"
	ActionReject ValidationAction = "reject"
	ActionRevise ValidationAction = "revise"
)

// ValidationResult represents the result of checking a question
type ValidationResult struct {
	QuestionID      string           `json:"question_id"`
	Action          ValidationAction `json:"action"`
	Reason          string           `json:"reason"`
	RevisedQuestion *Question        `json:"revised_question,omitempty"`
}

// QuestionChecker validates the structure of generated questions and
// repairs the small formatting slips models commonly make
type QuestionChecker struct {
	allowed map[QuestionType]bool
}

// NewQuestionChecker creates a checker that only accepts the given types.
// An empty list accepts every known type.
func NewQuestionChecker(types []QuestionType) *QuestionChecker {
	allowed := make(map[QuestionType]bool)
	for _, t := range types {
		allowed[t] = true
	}
	return &QuestionChecker{allowed: allowed}
}

// CheckQuestion validates a single question
func (qc *QuestionChecker) CheckQuestion(q *Question) *ValidationResult {
	reject := func(reason string) *ValidationResult {
		return &ValidationResult{QuestionID: q.ID, Action: ActionReject, Reason: reason}
	}

	if !q.Type.Valid() {
		return reject(fmt.Sprintf("unknown question type %q", q.Type))
	}
	if len(qc.allowed) > 0 && !qc.allowed[q.Type] {
		return reject(fmt.Sprintf("question type %s was not requested", q.Type))
	}
	if strings.TrimSpace(q.Question) == "" {
		return reject("empty question text")
	}
	if strings.TrimSpace(q.Answer) == "" {
		return reject("missing answer")
	}

	revised := *q
	var fixes []string

	switch q.Type {
	case TypeSingleChoice, TypeMultipleChoice:
		opts := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		if len(opts) < 2 {
			return reject("choice question needs at least two options")
		}
		if len(opts) != len(q.Options) {
			fixes = append(fixes, "dropped empty options")
		}
		revised.Options = opts

		letters, ok := choiceLetters(q.Answer, len(opts))
		if !ok {
			return reject(fmt.Sprintf("answer %q does not match any option", q.Answer))
		}
		if q.Type == TypeSingleChoice && len(letters) != 1 {
			return reject("single choice question has more than one answer")
		}
		if joined := strings.Join(letters, ","); joined != q.Answer {
			revised.Answer = joined
			fixes = append(fixes, "normalized answer letters")
		}

	case TypeTrueFalse:
		v, ok := parseTrueFalse(q.Answer)
		if !ok {
			return reject(fmt.Sprintf("true/false answer %q is neither", q.Answer))
		}
		if v != q.Answer {
			revised.Answer = v
			fixes = append(fixes, "normalized true/false answer")
		}
		if len(q.Options) > 0 {
			revised.Options = nil
			fixes = append(fixes, "dropped options")
		}
	}

	if len(fixes) > 0 {
		return &ValidationResult{
			QuestionID:      q.ID,
			Action:          ActionRevise,
			Reason:          strings.Join(fixes, "; "),
			RevisedQuestion: &revised,
		}
	}
	return &ValidationResult{QuestionID: q.ID, Action: ActionAccept, Reason: "well formed"}
}

// choiceLetters parses answers such as "B", "a, c" or "A. Paris" into
// sorted option letters. n is the number of options.
func choiceLetters(answer string, n int) ([]string, bool) {
	answer = strings.TrimSpace(answer)
	// "A. Paris" names one option by letter plus its text
	if len(answer) > 2 && (answer[1] == '.' || answer[1] == ')') {
		answer = answer[:1]
	}

	seen := make(map[byte]bool)
	for _, part := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ';' || r == ' ' || r == '、' }) {
		part = strings.TrimRight(part, ".)")
		if len(part) != 1 {
			return nil, false
		}
		c := part[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || int(c-'A') >= n {
			return nil, false
		}
		seen[c] = true
	}
	if len(seen) == 0 {
		return nil, false
	}
	letters := make([]string, 0, len(seen))
	for c := byte('A'); int(c-'A') < n; c++ {
		if seen[c] {
			letters = append(letters, string(c))
		}
	}
	return letters, true
}

func parseTrueFalse(answer string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "true", "t", "yes", "correct", "对", "正确", "√":
		return "true", true
	case "false", "f", "no", "incorrect", "错", "错误", "×":
		return "false", true
	}
	return "", false
}
