package quizsystem

import "time"

// QuestionType identifies how a question is answered
type QuestionType string

const (
	TypeSingleChoice   QuestionType = "single_choice"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeFillBlank      QuestionType = "fill_blank"
	TypeShortAnswer    QuestionType = "short_answer"
)

// AllQuestionTypes lists every supported question type in display order
var AllQuestionTypes = []QuestionType{
	TypeSingleChoice,
	TypeMultipleChoice,
	TypeTrueFalse,
	TypeFillBlank,
	TypeShortAnswer,
}

// Valid reports whether t is a known question type
func (t QuestionType) Valid() bool {
	for _, known := range AllQuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether questions of this type carry answer options
func (t QuestionType) HasOptions() bool {
	return t == TypeSingleChoice || t == TypeMultipleChoice
}

// Question is a single entry of a question bank
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Question    string       `json:"question"`
	Options     []string     `json:"options,omitempty"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation,omitempty"`
	Difficulty  string       `json:"difficulty,omitempty"`
}

// UploadedFile is a study document whose text has already been extracted
type UploadedFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// QuestionConfig describes what a generation run should produce
type QuestionConfig struct {
	BankName   string         `json:"bank_name,omitempty"`
	Count      int            `json:"count"`
	Types      []QuestionType `json:"types,omitempty"`
	Difficulty string         `json:"difficulty,omitempty"`
}

// Normalize fills defaults for unset fields
func (c QuestionConfig) Normalize() QuestionConfig {
	if c.Count <= 0 {
		c.Count = 10
	}
	if len(c.Types) == 0 {
		c.Types = []QuestionType{TypeSingleChoice, TypeTrueFalse, TypeShortAnswer}
	}
	if c.Difficulty == "" {
		c.Difficulty = "medium"
	}
	return c
}

// QuestionBank is a named, persisted set of questions
type QuestionBank struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Types returns the distinct question types present in the bank, in first-seen order
func (b *QuestionBank) Types() []QuestionType {
	seen := make(map[QuestionType]bool)
	var types []QuestionType
	for _, q := range b.Questions {
		if !seen[q.Type] {
			seen[q.Type] = true
			types = append(types, q.Type)
		}
	}
	return types
}

// QuizMode controls how a quiz session is presented
type QuizMode string

const (
	ModePractice QuizMode = "practice"
	ModeExam     QuizMode = "exam"
)

// QuizConfig selects questions for a quiz session
type QuizConfig struct {
	QuestionCount int            `json:"question_count"`
	QuestionTypes []QuestionType `json:"question_types,omitempty"`
	Mode          QuizMode       `json:"mode,omitempty"`
}

// UserAnswer is one recorded answer in a quiz session
type UserAnswer struct {
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Quiz is an in-progress quiz session
type Quiz struct {
	ID        string             `json:"id"`
	BankID    string             `json:"bank_id"`
	BankName  string             `json:"bank_name"`
	Questions []Question         `json:"questions"`
	Answers   map[int]UserAnswer `json:"answers"`
	StartTime time.Time          `json:"start_time"`
	Mode      QuizMode           `json:"mode"`
}

// QuestionEvaluation is the score and feedback for one answered question
type QuestionEvaluation struct {
	QuestionIndex int      `json:"questionIndex"`
	Score         float64  `json:"score"`
	Feedback      string   `json:"feedback"`
	Suggestions   []string `json:"suggestions"`
}

// Evaluation is the scored result of a whole quiz
type Evaluation struct {
	ID                  string               `json:"id"`
	Timestamp           time.Time            `json:"timestamp"`
	OverallScore        float64              `json:"overallScore"`
	OverallFeedback     string               `json:"overallFeedback"`
	QuestionEvaluations []QuestionEvaluation `json:"questionEvaluations"`
}

// QuizResult is a finished quiz with its evaluation
type QuizResult struct {
	Quiz
	EndTime    time.Time   `json:"end_time"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	Score      float64     `json:"score"`
}
