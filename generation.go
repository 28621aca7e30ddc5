package quizsystem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Progress messages reported while a generation runs
const (
	ProgressStarting   = "Preparing generation..."
	ProgressExtracting = "Extracting document content..."
	ProgressMock       = "Generating questions (mock mode)..."
	ProgressCallingAI  = "Calling AI to generate questions..."
	ProgressCompleted  = "Generation complete"
	ProgressFailed     = "Generation failed"
)

// GenerationStatus is a snapshot of the orchestrator state
type GenerationStatus struct {
	IsGenerating  bool           `json:"is_generating"`
	Progress      string         `json:"progress"`
	GenerationID  string         `json:"generation_id"`
	HasActiveTask bool           `json:"has_active_task"`
	Error         string         `json:"error,omitempty"`
	Questions     []Question     `json:"questions,omitempty"`
	Config        QuestionConfig `json:"config"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at,omitzero"`
}

// CompleterFactory builds the AI client for one generation run
type CompleterFactory func(cfg AIConfig, transcript *LLMLogger) (Completer, error)

func defaultCompleterFactory(cfg AIConfig, transcript *LLMLogger) (Completer, error) {
	return NewAIClient(cfg, WithTranscript(transcript))
}

// GenerationService runs question generation in the background, one task
// at a time
type GenerationService struct {
	mu    sync.Mutex
	state GenerationStatus
	tasks *taskRegistry

	newCompleter  CompleterFactory
	extractDelay  time.Duration
	mockDelay     time.Duration
	timeout       time.Duration
	transcriptDir string
	now           func() time.Time
	log           zerolog.Logger
}

// GenerationOption configures a GenerationService
type GenerationOption func(*GenerationService)

// WithCompleterFactory replaces how AI clients are built
func WithCompleterFactory(f CompleterFactory) GenerationOption {
	return func(s *GenerationService) { s.newCompleter = f }
}

// WithTranscriptDir enables per-generation transcripts under dir
func WithTranscriptDir(dir string) GenerationOption {
	return func(s *GenerationService) { s.transcriptDir = dir }
}

// NewGenerationService creates an idle orchestrator
func NewGenerationService(cfg GenerationConfig, opts ...GenerationOption) *GenerationService {
	s := &GenerationService{
		tasks:        newTaskRegistry(),
		newCompleter: defaultCompleterFactory,
		extractDelay: cfg.ExtractDelay,
		mockDelay:    cfg.MockDelay,
		timeout:      cfg.Timeout,
		now:          time.Now,
		log:          componentLogger("generation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartGeneration starts generating questions from files and returns the
// generation ID. While a generation is running it returns that generation's
// ID instead of starting another. Unknown providers fail immediately.
func (s *GenerationService) StartGeneration(files []UploadedFile, qcfg QuestionConfig, aiCfg AIConfig) (string, error) {
	if _, err := aiCfg.ResolveProvider(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsGenerating {
		s.log.Info().Str("generation_id", s.state.GenerationID).Msg("generation already in progress")
		return s.state.GenerationID, nil
	}

	qcfg = qcfg.Normalize()
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	task := &generationTask{
		id:        uuid.NewString(),
		files:     files,
		config:    qcfg,
		ai:        aiCfg,
		startedAt: s.now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	s.state = GenerationStatus{
		IsGenerating: true,
		Progress:     ProgressStarting,
		GenerationID: task.id,
		Config:       qcfg,
		StartedAt:    task.startedAt,
	}
	s.tasks.Add(task)

	s.log.Info().
		Str("generation_id", task.id).
		Str("provider", string(aiCfg.Provider)).
		Int("count", qcfg.Count).
		Int("documents", len(files)).
		Msg("generation started")

	go s.run(ctx, task)
	return task.id, nil
}

// CancelGeneration stops the generation with id. It reports false when no
// such generation is running.
func (s *GenerationService) CancelGeneration(id string) bool {
	task := s.tasks.Get(id)
	if task == nil {
		return false
	}
	task.cancel()
	s.tasks.Remove(id)
	s.finish(id, nil, ErrCancelled)
	s.log.Info().Str("generation_id", id).Msg("generation cancelled")
	return true
}

// Status returns the current orchestrator state. HasActiveTask reports
// whether the generation with id is still running.
func (s *GenerationService) Status(id string) GenerationStatus {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	st.HasActiveTask = s.tasks.Get(id) != nil
	if st.Questions != nil {
		st.Questions = append([]Question(nil), st.Questions...)
	}
	return st
}

// HasActiveGeneration reports whether any generation is running
func (s *GenerationService) HasActiveGeneration() bool {
	s.mu.Lock()
	generating := s.state.IsGenerating
	s.mu.Unlock()
	return generating || !s.tasks.IsEmpty()
}

// Wait blocks until the generation with id has stopped or ctx is done
func (s *GenerationService) Wait(ctx context.Context, id string) error {
	task := s.tasks.Get(id)
	if task == nil {
		return nil
	}
	select {
	case <-task.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cleanup cancels every running generation
func (s *GenerationService) Cleanup() {
	for _, task := range s.tasks.All() {
		task.cancel()
		s.tasks.Remove(task.id)
		s.finish(task.id, nil, ErrCancelled)
	}
}

func (s *GenerationService) run(ctx context.Context, task *generationTask) {
	defer close(task.done)
	defer s.tasks.Remove(task.id)
	defer task.cancel()

	var transcript *LLMLogger
	if s.transcriptDir != "" && task.ai.Provider != ProviderMock {
		var err error
		transcript, err = NewLLMLogger(s.transcriptDir, task.id, task.ai.Provider, task.config, task.files)
		if err != nil {
			s.log.Warn().Err(err).Msg("transcript disabled")
		}
	}

	questions, err := s.execute(ctx, task, transcript)
	if err != nil && ctx.Err() != nil {
		err = contextFailure(ctx, s.timeout)
	}

	outcome := fmt.Sprintf("%d questions", len(questions))
	if err != nil {
		outcome = err.Error()
		s.log.Error().Err(err).Str("generation_id", task.id).Msg("generation failed")
	} else {
		s.log.Info().Str("generation_id", task.id).Int("questions", len(questions)).
			Dur("elapsed", s.now().Sub(task.startedAt)).Msg("generation complete")
	}
	if cerr := transcript.Close(outcome); cerr != nil {
		s.log.Warn().Err(cerr).Msg("failed to close transcript")
	}

	s.finish(task.id, questions, err)
}

func (s *GenerationService) execute(ctx context.Context, task *generationTask, transcript *LLMLogger) ([]Question, error) {
	s.setProgress(task.id, ProgressExtracting)
	if err := sleepCtx(ctx, s.extractDelay); err != nil {
		return nil, err
	}

	var questions []Question
	if task.ai.Provider == ProviderMock {
		s.setProgress(task.id, ProgressMock)
		if err := sleepCtx(ctx, s.mockDelay); err != nil {
			return nil, err
		}
		questions = MockQuestions(task.config)
	} else {
		s.setProgress(task.id, ProgressCallingAI)
		ai, err := s.newCompleter(task.ai, transcript)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		gen := NewQuizGenerator(ai, task.config)
		gen.SetTranscript(transcript)
		questions, err = gen.GenerateQuestions(ctx, task.files, task.config)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

func (s *GenerationService) setProgress(id, progress string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.GenerationID == id && s.state.IsGenerating {
		s.state.Progress = progress
	}
}

// finish moves generation id to its terminal state. Only the first call
// for a generation has any effect.
func (s *GenerationService) finish(id string, questions []Question, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.GenerationID != id || !s.state.IsGenerating {
		return
	}
	s.state.IsGenerating = false
	s.state.FinishedAt = s.now()
	if err != nil {
		s.state.Progress = ProgressFailed
		s.state.Error = err.Error()
		return
	}
	s.state.Progress = ProgressCompleted
	s.state.Questions = questions
}

func contextFailure(ctx context.Context, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("generation timed out after %s", timeout)
	}
	return ErrCancelled
}

// sleepCtx waits for d unless ctx ends first
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
