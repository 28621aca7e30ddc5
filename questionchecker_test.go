package quizsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckQuestionAccept(t *testing.T) {
	qc := NewQuestionChecker(nil)
	for _, q := range []Question{
		{ID: "1", Type: TypeSingleChoice, Question: "Q?", Options: []string{"a", "b"}, Answer: "B"},
		{ID: "2", Type: TypeMultipleChoice, Question: "Q?", Options: []string{"a", "b", "c"}, Answer: "A,C"},
		{ID: "3", Type: TypeTrueFalse, Question: "Q?", Answer: "false"},
		{ID: "4", Type: TypeFillBlank, Question: "The ___ is blue", Answer: "sky"},
		{ID: "5", Type: TypeShortAnswer, Question: "Why?", Answer: "Because."},
	} {
		res := qc.CheckQuestion(&q)
		assert.Equal(t, ActionAccept, res.Action, q.ID)
		assert.Equal(t, q.ID, res.QuestionID)
		assert.Nil(t, res.RevisedQuestion)
	}
}

func TestCheckQuestionReject(t *testing.T) {
	tests := []struct {
		name  string
		types []QuestionType
		q     Question
	}{
		{"unknown type", nil, Question{Type: "essay", Question: "Q?", Answer: "x"}},
		{"type not requested", []QuestionType{TypeTrueFalse}, Question{Type: TypeShortAnswer, Question: "Q?", Answer: "x"}},
		{"empty text", nil, Question{Type: TypeShortAnswer, Question: "  ", Answer: "x"}},
		{"empty answer", nil, Question{Type: TypeShortAnswer, Question: "Q?", Answer: ""}},
		{"too few options", nil, Question{Type: TypeSingleChoice, Question: "Q?", Options: []string{"only", " "}, Answer: "A"}},
		{"answer out of range", nil, Question{Type: TypeSingleChoice, Question: "Q?", Options: []string{"a", "b"}, Answer: "D"}},
		{"answer not a letter", nil, Question{Type: TypeMultipleChoice, Question: "Q?", Options: []string{"a", "b"}, Answer: "both"}},
		{"single with two answers", nil, Question{Type: TypeSingleChoice, Question: "Q?", Options: []string{"a", "b"}, Answer: "A,B"}},
		{"true false neither", nil, Question{Type: TypeTrueFalse, Question: "Q?", Answer: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewQuestionChecker(tt.types).CheckQuestion(&tt.q)
			assert.Equal(t, ActionReject, res.Action)
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestCheckQuestionRevise(t *testing.T) {
	tests := []struct {
		name        string
		q           Question
		wantAnswer  string
		wantOptions []string
	}{
		{
			name:        "lowercase letters reordered",
			q:           Question{Type: TypeMultipleChoice, Question: "Q?", Options: []string{"a", "b", "c"}, Answer: "c, a"},
			wantAnswer:  "A,C",
			wantOptions: []string{"a", "b", "c"},
		},
		{
			name:        "letter with option text",
			q:           Question{Type: TypeSingleChoice, Question: "Q?", Options: []string{"Berlin", "Paris"}, Answer: "B. Paris"},
			wantAnswer:  "B",
			wantOptions: []string{"Berlin", "Paris"},
		},
		{
			name:        "empty option dropped",
			q:           Question{Type: TypeSingleChoice, Question: "Q?", Options: []string{"x", "", " y "}, Answer: "B"},
			wantAnswer:  "B",
			wantOptions: []string{"x", "y"},
		},
		{
			name:       "true false synonym and options",
			q:          Question{Type: TypeTrueFalse, Question: "Q?", Options: []string{"True", "False"}, Answer: "对"},
			wantAnswer: "true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.q
			res := NewQuestionChecker(nil).CheckQuestion(&tt.q)
			require.Equal(t, ActionRevise, res.Action)
			require.NotNil(t, res.RevisedQuestion)
			assert.Equal(t, tt.wantAnswer, res.RevisedQuestion.Answer)
			assert.Equal(t, tt.wantOptions, res.RevisedQuestion.Options)
			assert.Equal(t, original, tt.q, "input must not be mutated")

			again := NewQuestionChecker(nil).CheckQuestion(res.RevisedQuestion)
			assert.Equal(t, ActionAccept, again.Action)
		})
	}
}

func TestChoiceLetters(t *testing.T) {
	letters, ok := choiceLetters("d;B、a", 4)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "D"}, letters)

	letters, ok = choiceLetters("A) first", 2)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, letters)

	_, ok = choiceLetters("", 4)
	assert.False(t, ok)
	_, ok = choiceLetters("E", 4)
	assert.False(t, ok)
}
