package quizsystem

import (
	"fmt"

	"github.com/google/uuid"
)

type sampleQuestion struct {
	question    string
	options     []string
	answer      string
	explanation string
}

var mockSamples = map[QuestionType][]sampleQuestion{
	TypeSingleChoice: {
		{"Which data structure serves items in first-in, first-out order?", []string{"A. Stack", "B. Queue", "C. Heap", "D. Tree"}, "B", "A queue removes the oldest element first."},
		{"What is the time complexity of binary search on a sorted array?", []string{"A. O(n)", "B. O(n log n)", "C. O(log n)", "D. O(1)"}, "C", "Each comparison halves the search interval."},
		{"Which HTTP method is idempotent and used to replace a resource?", []string{"A. POST", "B. PATCH", "C. PUT", "D. CONNECT"}, "C", "PUT replaces the target resource and repeating it has the same effect."},
	},
	TypeMultipleChoice: {
		{"Which of the following are relational databases?", []string{"A. PostgreSQL", "B. Redis", "C. SQLite", "D. MongoDB"}, "A,C", "PostgreSQL and SQLite store data in related tables."},
		{"Which sorting algorithms have O(n log n) average complexity?", []string{"A. Merge sort", "B. Bubble sort", "C. Quick sort", "D. Insertion sort"}, "A,C", "Merge sort and quick sort divide the input recursively."},
	},
	TypeTrueFalse: {
		{"A hash map lookup takes constant time on average.", nil, "true", "Hashing maps keys directly to buckets."},
		{"TCP delivers datagrams without any ordering guarantee.", nil, "false", "TCP guarantees ordered delivery; UDP does not."},
		{"Every recursive function can be rewritten iteratively.", nil, "true", "An explicit stack can replace the call stack."},
	},
	TypeFillBlank: {
		{"The ____ protocol resolves domain names to IP addresses.", nil, "DNS", "DNS maps human-readable names to addresses."},
		{"In Big-O notation, an algorithm that doubles its work for each extra input element is ____.", nil, "O(2^n)", "Exponential growth doubles per element."},
	},
	TypeShortAnswer: {
		{"Explain the difference between a process and a thread.", nil, "A process has its own address space; threads share the address space of their process.", "Threads are lighter weight because they share memory."},
		{"What is the purpose of an index in a database?", nil, "An index speeds up lookups by keeping a sorted structure over one or more columns.", "Indexes trade write cost and space for faster reads."},
	},
}

// MockQuestions returns deterministic sample questions cycling through the
// configured types until cfg.Count questions are produced
func MockQuestions(cfg QuestionConfig) []Question {
	cfg = cfg.Normalize()

	var types []QuestionType
	for _, t := range cfg.Types {
		if len(mockSamples[t]) > 0 {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return []Question{}
	}

	questions := make([]Question, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		t := types[i%len(types)]
		samples := mockSamples[t]
		round := i / len(types)
		s := samples[round%len(samples)]

		text := s.question
		if round >= len(samples) {
			text = fmt.Sprintf("%s (variant %d)", s.question, round/len(samples)+1)
		}
		var options []string
		if s.options != nil {
			options = append([]string(nil), s.options...)
		}
		questions = append(questions, Question{
			ID:          uuid.NewString(),
			Type:        t,
			Question:    text,
			Options:     options,
			Answer:      s.answer,
			Explanation: s.explanation,
			Difficulty:  cfg.Difficulty,
		})
	}
	return questions
}
