package quizsystem

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotEnoughQuestions is returned when a bank has no question matching a quiz config
var ErrNotEnoughQuestions = errors.New("no questions match the selected types")

// NewQuestionBank wraps generated questions into a bank
func NewQuestionBank(name, description string, questions []Question) (*QuestionBank, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("bank name is required")
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	qs := make([]Question, len(questions))
	copy(qs, questions)
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = uuid.NewString()
		}
	}
	return &QuestionBank{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Questions:   qs,
		CreatedAt:   time.Now(),
	}, nil
}

// StartQuiz draws a quiz from bank: questions of the configured types are
// shuffled with rng and the first QuestionCount are taken. A nil rng uses
// the global source.
func StartQuiz(bank *QuestionBank, cfg QuizConfig, rng *rand.Rand) (*Quiz, error) {
	var pool []Question
	for _, q := range bank.Questions {
		if len(cfg.QuestionTypes) == 0 || slices.Contains(cfg.QuestionTypes, q.Type) {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return nil, ErrNotEnoughQuestions
	}

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	count := cfg.QuestionCount
	if count <= 0 || count > len(pool) {
		count = len(pool)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModePractice
	}
	if mode != ModePractice && mode != ModeExam {
		return nil, fmt.Errorf("unknown quiz mode %q", mode)
	}

	return &Quiz{
		ID:        uuid.NewString(),
		BankID:    bank.ID,
		BankName:  bank.Name,
		Questions: pool[:count],
		Answers:   make(map[int]UserAnswer),
		StartTime: time.Now(),
		Mode:      mode,
	}, nil
}

// SaveAnswer records the answer to question index
func (q *Quiz) SaveAnswer(index int, answer string) error {
	if index < 0 || index >= len(q.Questions) {
		return fmt.Errorf("question index %d out of range [0,%d)", index, len(q.Questions))
	}
	if q.Answers == nil {
		q.Answers = make(map[int]UserAnswer)
	}
	q.Answers[index] = UserAnswer{Answer: answer, Timestamp: time.Now()}
	return nil
}

// Answered reports how many questions have a recorded answer
func (q *Quiz) Answered() int {
	n := 0
	for _, a := range q.Answers {
		if strings.TrimSpace(a.Answer) != "" {
			n++
		}
	}
	return n
}

// FinishQuiz closes quiz with its evaluation
func FinishQuiz(quiz *Quiz, ev *Evaluation) *QuizResult {
	result := &QuizResult{
		Quiz:       *quiz,
		EndTime:    time.Now(),
		Evaluation: ev,
	}
	if ev != nil {
		result.Score = ev.OverallScore
	}
	return result
}

// QuestionRowHeight estimates the rendered height in pixels of q as a list
// row: a header line, wrapped question text and one line per option
func QuestionRowHeight(q Question, _ int) float64 {
	const (
		header     = 32
		lineHeight = 24
		lineChars  = 80
		padding    = 24
	)
	textLines := (len([]rune(q.Question)) + lineChars - 1) / lineChars
	textLines = max(textLines, 1)
	return float64(header + padding + lineHeight*(textLines+len(q.Options)))
}
