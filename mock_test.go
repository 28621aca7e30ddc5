package quizsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockQuestionsCyclesTypes(t *testing.T) {
	cfg := QuestionConfig{Count: 7, Types: []QuestionType{TypeSingleChoice, TypeFillBlank}, Difficulty: "easy"}
	qs := MockQuestions(cfg)
	require.Len(t, qs, 7)

	ids := map[string]bool{}
	texts := map[string]bool{}
	checker := NewQuestionChecker(cfg.Types)
	for i, q := range qs {
		want := cfg.Types[i%2]
		assert.Equal(t, want, q.Type)
		assert.Equal(t, "easy", q.Difficulty)
		assert.Equal(t, ActionAccept, checker.CheckQuestion(&q).Action, q.Question)
		ids[q.ID] = true
		texts[q.Question] = true
	}
	assert.Len(t, ids, 7)
	assert.Len(t, texts, 7, "question texts stay unique past the sample set")
}

func TestMockQuestionsDefaults(t *testing.T) {
	qs := MockQuestions(QuestionConfig{})
	assert.Len(t, qs, 10)
	assert.Equal(t, "medium", qs[0].Difficulty)

	assert.Empty(t, MockQuestions(QuestionConfig{Count: 3, Types: []QuestionType{"essay"}}))
}

func TestMockQuestionsDoNotShareOptions(t *testing.T) {
	qs := MockQuestions(QuestionConfig{Count: 4, Types: []QuestionType{TypeSingleChoice}})
	qs[0].Options[0] = "mutated"
	assert.NotEqual(t, "mutated", MockQuestions(QuestionConfig{Count: 1, Types: []QuestionType{TypeSingleChoice}})[0].Options[0])
}
