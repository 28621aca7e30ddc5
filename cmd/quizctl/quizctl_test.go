package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"quizsystem"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBank(t *testing.T, n int) *quizsystem.QuestionBank {
	t.Helper()
	qs := quizsystem.MockQuestions(quizsystem.QuestionConfig{
		Count: n,
		Types: []quizsystem.QuestionType{quizsystem.TypeSingleChoice, quizsystem.TypeTrueFalse},
	})
	bank, err := quizsystem.NewQuestionBank("Test bank", "", qs)
	require.NoError(t, err)
	return bank
}

func TestQuestionConfigFromFlags(t *testing.T) {
	opts := generateOptions{
		files: []string{"docs/chapter-1.txt"},
		count: 5,
		types: []string{"single_choice", " true_false"},
	}
	cfg, err := opts.questionConfig()
	require.NoError(t, err)
	assert.Equal(t, "chapter-1", cfg.BankName)
	assert.Equal(t, 5, cfg.Count)
	assert.Equal(t, []quizsystem.QuestionType{quizsystem.TypeSingleChoice, quizsystem.TypeTrueFalse}, cfg.Types)
	assert.Equal(t, "medium", cfg.Difficulty)

	opts.types = []string{"essay"}
	_, err = opts.questionConfig()
	assert.Error(t, err)
}

func TestAskQuestions(t *testing.T) {
	bank := testBank(t, 3)
	quiz, err := quizsystem.StartQuiz(bank, quizsystem.QuizConfig{QuestionCount: 3, Mode: quizsystem.ModeExam}, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	// second question skipped, input ends before the third
	require.NoError(t, askQuestions(strings.NewReader("b\n\n"), &out, quiz))

	assert.Equal(t, 1, quiz.Answered())
	if quiz.Questions[0].Type.HasOptions() {
		assert.Equal(t, "B", quiz.Answers[0].Answer)
	}
	assert.NotContains(t, out.String(), "Reference answer")
	assert.Contains(t, out.String(), "Question 3/3")
}

func TestAskQuestionsPracticeShowsAnswer(t *testing.T) {
	bank := testBank(t, 1)
	quiz, err := quizsystem.StartQuiz(bank, quizsystem.QuizConfig{}, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, askQuestions(strings.NewReader("x\n"), &out, quiz))
	assert.Contains(t, out.String(), "Reference answer: "+quiz.Questions[0].Answer)
}

func TestPrintResult(t *testing.T) {
	bank := testBank(t, 2)
	quiz, err := quizsystem.StartQuiz(bank, quizsystem.QuizConfig{}, nil)
	require.NoError(t, err)
	for i, q := range quiz.Questions {
		require.NoError(t, quiz.SaveAnswer(i, q.Answer))
	}
	ev := quizsystem.MockEvaluation(quiz.Questions, quiz.Answers)

	var out bytes.Buffer
	printResult(&out, quizsystem.FinishQuiz(quiz, &ev))
	assert.Contains(t, out.String(), "Score: 100/100 (2/2 answered)")
	assert.Contains(t, out.String(), "Excellent work")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModelScrolling(t *testing.T) {
	m := newBrowseModel(testBank(t, 50), true)
	defer m.list.Close()

	m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	view := m.View()
	assert.Contains(t, view, "Test bank (50 questions)")
	assert.Contains(t, view, "1.")
	assert.Equal(t, 12, strings.Count(view, "\n")+1)
	assert.Positive(t, m.heights.Len())

	m.Update(key("n"))
	assert.Equal(t, 1, m.currentIndex())
	assert.Equal(t, m.list.ItemOffset(1), m.top)
	assert.True(t, m.list.IsScrolling())

	m.Update(key("G"))
	assert.Equal(t, m.list.TotalHeight()-float64(m.viewHeight()), m.top)

	m.Update(key("g"))
	assert.Zero(t, m.top)
	assert.Zero(t, m.currentIndex())

	select {
	case <-m.settled:
	case <-time.After(2 * time.Second):
		t.Fatal("scroll never settled")
	}
	assert.False(t, m.list.IsScrolling())
}

func TestBrowseModelJump(t *testing.T) {
	m := newBrowseModel(testBank(t, 20), false)
	defer m.list.Close()
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})

	m.Update(key(":"))
	require.True(t, m.jumping)
	m.Update(key("7"))
	m.Update(key("enter"))
	assert.False(t, m.jumping)
	assert.Equal(t, 6, m.currentIndex())

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
