package quizsystem

import (
	"context"
	"sync"
	"time"
)

// generationTask is one running generation
type generationTask struct {
	id        string
	files     []UploadedFile
	config    QuestionConfig
	ai        AIConfig
	startedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// taskRegistry tracks running generation tasks in start order
type taskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*generationTask
	order []string
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{
		tasks: make(map[string]*generationTask),
		order: make([]string, 0),
	}
}

func (r *taskRegistry) Add(task *generationTask) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.id]; !ok {
		r.order = append(r.order, task.id)
	}
	r.tasks[task.id] = task
}

func (r *taskRegistry) Get(id string) *generationTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks[id]
}

// Remove drops a task and reports whether it was present
func (r *taskRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return false
	}
	delete(r.tasks, id)
	for i, tid := range r.order {
		if tid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *taskRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *taskRegistry) IsEmpty() bool {
	return r.Size() == 0
}

// All returns the running tasks, oldest first
func (r *taskRegistry) All() []*generationTask {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*generationTask, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id])
	}
	return out
}
