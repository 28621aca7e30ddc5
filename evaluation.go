package quizsystem

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const noAnswer = "(no answer)"

// Completer is the subset of AIClient the evaluator and generator need
type Completer interface {
	Provider() Provider
	Complete(ctx context.Context, module, prompt string, jsonMode bool) (string, error)
}

// BuildEvaluationPrompt renders the grading prompt for a finished quiz
func BuildEvaluationPrompt(questions []Question, answers map[int]UserAnswer) string {
	var sb strings.Builder

	sb.WriteString("You are a professional educational assessment assistant. Evaluate the following answers in detail:\n\n")
	for i, q := range questions {
		userAnswer := noAnswer
		if a, ok := answers[i]; ok && strings.TrimSpace(a.Answer) != "" {
			userAnswer = a.Answer
		}
		sb.WriteString(fmt.Sprintf("Question %d (number %d):\n", i, i+1))
		sb.WriteString(fmt.Sprintf("Question: %s\n", q.Question))
		sb.WriteString(fmt.Sprintf("Reference answer: %s\n", q.Answer))
		sb.WriteString(fmt.Sprintf("User answer: %s\n", userAnswer))
		sb.WriteString(fmt.Sprintf("Type: %s\n\n", q.Type))
	}

	sb.WriteString(`Return the evaluation in exactly this JSON format:
{
  "overallScore": 85,
  "overallFeedback": "Good overall performance with solid grasp of the basics...",
  "questionEvaluations": [
    {
      "questionIndex": 0,
      "score": 90,
      "feedback": "Question 1 is accurate and clearly expressed...",
      "suggestions": ["Consider adding...", "Strengthen..."]
    }
  ]
}

Requirements:
`)
	sb.WriteString("1. questionIndex starts at 0 and matches Question 0, Question 1, Question 2...\n")
	sb.WriteString("2. Score every question from 0 to 100\n")
	sb.WriteString("3. Give specific feedback for each question\n")
	sb.WriteString("4. Give suggestions for improvement\n")
	sb.WriteString("5. overallScore is the average of all question scores\n")
	sb.WriteString("6. Give overall study advice\n")
	sb.WriteString("7. Return valid JSON only\n")
	sb.WriteString(fmt.Sprintf("8. questionEvaluations must contain exactly %d entries\n\n", len(questions)))
	sb.WriteString("Be objective, fair and constructive.")

	return sb.String()
}

// Evaluator scores free-text answers
type Evaluator struct {
	ai  Completer
	now func() time.Time
}

// NewEvaluator creates an evaluator backed by ai. A nil ai or the mock
// provider selects the offline scorer.
func NewEvaluator(ai Completer) *Evaluator {
	return &Evaluator{ai: ai, now: time.Now}
}

// EvaluateAnswers scores answers against questions. Transport and provider
// failures are returned; malformed replies degrade to the default evaluation.
func (e *Evaluator) EvaluateAnswers(ctx context.Context, questions []Question, answers map[int]UserAnswer) (*Evaluation, error) {
	var ev Evaluation
	if e.ai == nil || e.ai.Provider() == ProviderMock {
		ev = MockEvaluation(questions, answers)
	} else {
		prompt := BuildEvaluationPrompt(questions, answers)
		content, err := e.ai.Complete(ctx, "Evaluator", prompt, true)
		if err != nil {
			return nil, fmt.Errorf("AI evaluation failed: %w", err)
		}
		ev = ParseEvaluation(content)
	}

	ev.ID = uuid.NewString()
	ev.Timestamp = e.now()
	VerboseLog("evaluated %d answers, overall score %.0f", len(answers), ev.OverallScore)
	return &ev, nil
}

// MockEvaluation scores answers offline by normalized edit-distance
// similarity to the reference answer.
func MockEvaluation(questions []Question, answers map[int]UserAnswer) Evaluation {
	evals := make([]QuestionEvaluation, 0, len(questions))
	var total float64
	for i, q := range questions {
		a, ok := answers[i]
		score := scoreAnswer(q, a.Answer, ok)
		total += score
		evals = append(evals, QuestionEvaluation{
			QuestionIndex: i,
			Score:         score,
			Feedback:      questionFeedback(i, score),
			Suggestions:   suggestionsFor(score),
		})
	}

	overall := 0.0
	if len(questions) > 0 {
		overall = math.Round(total / float64(len(questions)))
	}
	return Evaluation{
		OverallScore:        overall,
		OverallFeedback:     OverallFeedback(overall),
		QuestionEvaluations: evals,
	}
}

func scoreAnswer(q Question, answer string, answered bool) float64 {
	if !answered || strings.TrimSpace(answer) == "" {
		return 0
	}
	sim := answerSimilarity(q.Answer, answer)
	if q.Type.HasOptions() || q.Type == TypeTrueFalse {
		// closed questions are right or wrong
		if sim == 1 {
			return 100
		}
		return 60
	}
	return math.Round(60 + 40*sim)
}

func questionFeedback(index int, score float64) string {
	var verdict string
	switch {
	case score >= 80:
		verdict = "is good"
	case score >= 70:
		verdict = "is fair"
	case score > 0:
		verdict = "needs improvement"
	default:
		return fmt.Sprintf("Question %d was not answered.", index+1)
	}
	return fmt.Sprintf("The answer to question %d %s.", index+1, verdict)
}

func suggestionsFor(score float64) []string {
	switch {
	case score >= 90:
		return []string{"Try more challenging questions on this topic"}
	case score >= 70:
		return []string{"Add more detail to the explanation", "Pay attention to the precise use of key terms"}
	default:
		return []string{"Review the related material to deepen understanding", "Work through examples to consolidate the concept", "Structure the answer logically"}
	}
}

// OverallFeedback returns the tiered summary for an overall score
func OverallFeedback(score float64) string {
	switch {
	case score >= 90:
		return "Excellent! Your command of the material is solid and your answers are accurate and complete. Keep it up and try more challenging questions."
	case score >= 80:
		return "Good! Your fundamentals are solid and most answers are correct. Pay closer attention to details to improve accuracy."
	case score >= 70:
		return "Fair. You understand the basic concepts but some areas need work. Practice more to shore up weak spots."
	case score >= 60:
		return "Pass. Your foundation needs strengthening; review the material systematically and practice more."
	default:
		return "Needs work. Revisit the material, ask teachers or classmates for help, and build a structured study plan."
	}
}
