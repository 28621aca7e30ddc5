package quizsystem

import (
	"strings"
	"sync"
)

// nearDuplicateSimilarity is the normalized similarity above which two
// questions are treated as the same question reworded
const nearDuplicateSimilarity = 0.9

// QuestionDedup rejects questions that repeat an already accepted one
type QuestionDedup struct {
	mu    sync.Mutex
	cache map[string]*Question // accepted questions by normalized text
}

// NewQuestionDedup creates a new question deduplicator
func NewQuestionDedup() *QuestionDedup {
	return &QuestionDedup{cache: make(map[string]*Question)}
}

// DedupResult represents the result of deduplication
type DedupResult struct {
	IsDuplicate bool   `json:"is_duplicate"`
	Reason      string `json:"reason"`
	DuplicateID string `json:"duplicate_id,omitempty"`
}

// Seed registers questions that are already in the bank
func (qd *QuestionDedup) Seed(questions []Question) {
	qd.mu.Lock()
	defer qd.mu.Unlock()
	for i := range questions {
		q := questions[i]
		qd.cache[dedupKey(&q)] = &q
	}
}

// CheckDuplicate checks a question against every accepted question and
// records it when it is new
func (qd *QuestionDedup) CheckDuplicate(question *Question) *DedupResult {
	qd.mu.Lock()
	defer qd.mu.Unlock()

	key := dedupKey(question)
	if existing, ok := qd.cache[key]; ok {
		return &DedupResult{IsDuplicate: true, Reason: "same question text", DuplicateID: existing.ID}
	}

	for k, existing := range qd.cache {
		if existing.Type != question.Type {
			continue
		}
		if answerSimilarity(k, key) >= nearDuplicateSimilarity {
			return &DedupResult{IsDuplicate: true, Reason: "near-identical wording", DuplicateID: existing.ID}
		}
	}

	qd.cache[key] = question
	VerboseLog("Question %s accepted as unique", question.ID)
	return &DedupResult{IsDuplicate: false, Reason: "unique"}
}

// Len reports how many unique questions have been accepted
func (qd *QuestionDedup) Len() int {
	qd.mu.Lock()
	defer qd.mu.Unlock()
	return len(qd.cache)
}

func dedupKey(q *Question) string {
	return normalizeAnswer(strings.TrimSpace(q.Question))
}
