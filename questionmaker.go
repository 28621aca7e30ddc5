package quizsystem

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxSourceRunes caps how much document text goes into one prompt
const maxSourceRunes = 12000

// QuestionMaker turns study documents into candidate questions
type QuestionMaker struct {
	ai Completer
}

// NewQuestionMaker creates a question maker backed by ai
func NewQuestionMaker(ai Completer) *QuestionMaker {
	return &QuestionMaker{ai: ai}
}

// GenerateQuestions asks the AI for batchSize questions drawn from files
func (qm *QuestionMaker) GenerateQuestions(ctx context.Context, files []UploadedFile, cfg QuestionConfig, batchSize int) ([]Question, error) {
	VerboseLog("Generating %d questions from %d documents", batchSize, len(files))

	prompt := qm.buildPrompt(files, cfg, batchSize)
	content, err := qm.ai.Complete(ctx, "QuestionMaker", prompt, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	questions, err := ParseQuestions(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}
	for i := range questions {
		if questions[i].Difficulty == "" {
			questions[i].Difficulty = cfg.Difficulty
		}
	}

	VerboseLog("Generated %d questions", len(questions))
	return questions, nil
}

func (qm *QuestionMaker) buildPrompt(files []UploadedFile, cfg QuestionConfig, batchSize int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d quiz questions from the study material below.\n\n", batchSize))

	budget := maxSourceRunes
	for _, f := range files {
		if budget <= 0 {
			break
		}
		text := strings.TrimSpace(f.Content)
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) > budget {
			text = string([]rune(text)[:budget])
		}
		budget -= utf8.RuneCountInString(text)
		sb.WriteString(fmt.Sprintf("=== Document: %s ===\n", f.Name))
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	types := make([]string, 0, len(cfg.Types))
	for _, t := range cfg.Types {
		types = append(types, string(t))
	}
	sb.WriteString(fmt.Sprintf("Question types to use: %s\n", strings.Join(types, ", ")))
	sb.WriteString(fmt.Sprintf("Difficulty level: %s\n\n", cfg.Difficulty))

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Every question must be answerable from the material above\n")
	sb.WriteString("- single_choice and multiple_choice questions have 4 options labelled A-D; the answer is the letter(s), e.g. \"B\" or \"A,C\"\n")
	sb.WriteString("- true_false answers are \"true\" or \"false\"\n")
	sb.WriteString("- fill_blank questions mark the blank with ____ and the answer is the missing text\n")
	sb.WriteString("- short_answer questions have a concise reference answer\n")
	sb.WriteString("- Provide a brief explanation for why the answer is right\n\n")

	sb.WriteString(`Return only JSON in this format:
{
  "questions": [
    {
      "type": "single_choice",
      "question": "...",
      "options": ["A. ...", "B. ...", "C. ...", "D. ..."],
      "answer": "B",
      "explanation": "..."
    }
  ]
}`)

	return sb.String()
}
