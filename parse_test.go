package quizsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestionsStrict(t *testing.T) {
	content := `{"questions":[
		{"type":"single_choice","question":" What is 2+2? ","options":["3","4"],"answer":"B","explanation":"arithmetic"},
		{"type":"multiple_choice","question":"Primes?","options":["2","3","4"],"answer":["A","B"]},
		{"type":"true_false","question":"Water is wet","answer":true},
		{"type":"fill_blank","question":"Pi is about ___","answer":3.14}
	]}`

	qs, err := ParseQuestions(content)
	require.NoError(t, err)
	require.Len(t, qs, 4)

	assert.Equal(t, TypeSingleChoice, qs[0].Type)
	assert.Equal(t, "What is 2+2?", qs[0].Question)
	assert.Equal(t, "B", qs[0].Answer)
	assert.Equal(t, "arithmetic", qs[0].Explanation)
	assert.Equal(t, "A,B", qs[1].Answer)
	assert.Equal(t, "true", qs[2].Answer)
	assert.Equal(t, "3.14", qs[3].Answer)
}

func TestParseQuestionsWrappedInProse(t *testing.T) {
	content := "Here are your questions:\n```json\n{\"questions\":[{\"type\":\"short_answer\",\"question\":\"Define TCP\",\"answer\":\"A transport protocol\"}]}\n```\nGood luck!"

	qs, err := ParseQuestions(content)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, TypeShortAnswer, qs[0].Type)
}

func TestParseQuestionsMalformed(t *testing.T) {
	for name, content := range map[string]string{
		"no json":       "I cannot help with that.",
		"broken json":   "{questions: [}",
		"missing field": `{"items": []}`,
		"empty":         "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuestions(content)
			assert.ErrorIs(t, err, ErrResponseFormat)
		})
	}
}

func TestParseEvaluation(t *testing.T) {
	ev := ParseEvaluation(`Sure! {"overallScore": 88, "overallFeedback": "Nice", "questionEvaluations": [{"questionIndex": 0, "score": 88, "feedback": "ok", "suggestions": ["more"]}]}`)
	assert.Equal(t, 88.0, ev.OverallScore)
	assert.Equal(t, "Nice", ev.OverallFeedback)
	require.Len(t, ev.QuestionEvaluations, 1)
	assert.Equal(t, []string{"more"}, ev.QuestionEvaluations[0].Suggestions)
}

func TestParseEvaluationDefaults(t *testing.T) {
	ev := ParseEvaluation(`{"questionEvaluations": null}`)
	assert.Equal(t, 70.0, ev.OverallScore)
	assert.Equal(t, "AI evaluation complete.", ev.OverallFeedback)
	assert.NotNil(t, ev.QuestionEvaluations)

	ev = ParseEvaluation("not json at all")
	assert.Equal(t, 70.0, ev.OverallScore)
	assert.Contains(t, ev.OverallFeedback, "temporarily unavailable")
	assert.Empty(t, ev.QuestionEvaluations)
}
