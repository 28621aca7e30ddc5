package quizsystem

import (
	"sync"

	"github.com/google/uuid"
)

// QuestionPool is a FIFO queue of generated questions waiting to be checked
type QuestionPool struct {
	mu        sync.RWMutex
	questions map[string]*Question
	queue     []string // FIFO queue of question IDs
}

// NewQuestionPool creates a new question pool
func NewQuestionPool() *QuestionPool {
	return &QuestionPool{
		questions: make(map[string]*Question),
		queue:     make([]string, 0),
	}
}

// Add queues a question, assigning an ID if it has none
func (qp *QuestionPool) Add(question *Question) {
	qp.mu.Lock()
	defer qp.mu.Unlock()

	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if _, ok := qp.questions[question.ID]; !ok {
		qp.queue = append(qp.queue, question.ID)
	}
	qp.questions[question.ID] = question
}

// Get removes and returns the oldest question, or nil when empty
func (qp *QuestionPool) Get() *Question {
	qp.mu.Lock()
	defer qp.mu.Unlock()

	if len(qp.queue) == 0 {
		return nil
	}

	questionID := qp.queue[0]
	qp.queue = qp.queue[1:]

	question := qp.questions[questionID]
	delete(qp.questions, questionID)

	return question
}

// Remove drops a question from the pool
func (qp *QuestionPool) Remove(questionID string) {
	qp.mu.Lock()
	defer qp.mu.Unlock()

	delete(qp.questions, questionID)

	for i, id := range qp.queue {
		if id == questionID {
			qp.queue = append(qp.queue[:i], qp.queue[i+1:]...)
			break
		}
	}
}

// Size returns the number of questions in the pool
func (qp *QuestionPool) Size() int {
	qp.mu.RLock()
	defer qp.mu.RUnlock()
	return len(qp.queue)
}

// IsEmpty returns true if the pool is empty
func (qp *QuestionPool) IsEmpty() bool {
	return qp.Size() == 0
}

// Drain empties the pool and returns its questions in queue order
func (qp *QuestionPool) Drain() []*Question {
	qp.mu.Lock()
	defer qp.mu.Unlock()

	out := make([]*Question, 0, len(qp.queue))
	for _, id := range qp.queue {
		out = append(out, qp.questions[id])
	}
	qp.questions = make(map[string]*Question)
	qp.queue = qp.queue[:0]
	return out
}
