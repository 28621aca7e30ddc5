package quizsystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, s *GenerationService, id string) GenerationStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx, id))
	return s.Status(id)
}

// blockingCompleter blocks every call until its context ends
type blockingCompleter struct {
	started chan struct{}
}

func (b *blockingCompleter) Provider() Provider { return ProviderOpenAI }

func (b *blockingCompleter) Complete(ctx context.Context, _, _ string, _ bool) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func factoryFor(c Completer) GenerationOption {
	return WithCompleterFactory(func(AIConfig, *LLMLogger) (Completer, error) { return c, nil })
}

func TestGenerationMock(t *testing.T) {
	s := NewGenerationService(GenerationConfig{})
	id, err := s.StartGeneration(studyDocs, QuestionConfig{Count: 4, Types: []QuestionType{TypeTrueFalse}}, AIConfig{Provider: ProviderMock})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	st := waitDone(t, s, id)
	assert.False(t, st.IsGenerating)
	assert.False(t, st.HasActiveTask)
	assert.Equal(t, ProgressCompleted, st.Progress)
	assert.Equal(t, id, st.GenerationID)
	assert.Empty(t, st.Error)
	require.Len(t, st.Questions, 4)
	for _, q := range st.Questions {
		assert.Equal(t, TypeTrueFalse, q.Type)
	}
	assert.False(t, st.FinishedAt.IsZero())
	assert.False(t, s.HasActiveGeneration())
}

func TestGenerationSingleTask(t *testing.T) {
	s := NewGenerationService(GenerationConfig{MockDelay: time.Hour})
	defer s.Cleanup()

	first, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: ProviderMock})
	require.NoError(t, err)
	second, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: ProviderMock})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	st := s.Status(first)
	assert.True(t, st.IsGenerating)
	assert.True(t, st.HasActiveTask)
	assert.Equal(t, 10, st.Config.Count)
	assert.True(t, s.HasActiveGeneration())
}

func TestGenerationCancel(t *testing.T) {
	s := NewGenerationService(GenerationConfig{MockDelay: time.Hour})

	id, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: ProviderMock})
	require.NoError(t, err)

	assert.True(t, s.CancelGeneration(id))
	assert.False(t, s.CancelGeneration(id))
	assert.False(t, s.CancelGeneration("unknown"))

	st := s.Status(id)
	assert.False(t, st.IsGenerating)
	assert.False(t, st.HasActiveTask)
	assert.Equal(t, ProgressFailed, st.Progress)
	assert.Equal(t, ErrCancelled.Error(), st.Error)

	// a new generation may start right away
	next, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: ProviderMock})
	require.NoError(t, err)
	assert.NotEqual(t, id, next)
	s.Cleanup()
	assert.Equal(t, ErrCancelled.Error(), s.Status(next).Error)
}

func TestGenerationCancelDuringAICall(t *testing.T) {
	ai := &blockingCompleter{started: make(chan struct{})}
	s := NewGenerationService(GenerationConfig{}, factoryFor(ai))

	id, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: ProviderOpenAI})
	require.NoError(t, err)

	select {
	case <-ai.started:
	case <-time.After(5 * time.Second):
		t.Fatal("AI was never called")
	}
	assert.Equal(t, ProgressCallingAI, s.Status(id).Progress)
	require.True(t, s.CancelGeneration(id))

	// the late failure from the cancelled call must not overwrite the state
	time.Sleep(50 * time.Millisecond)
	st := s.Status(id)
	assert.Equal(t, ErrCancelled.Error(), st.Error)
	assert.Nil(t, st.Questions)
}

func TestGenerationTimeout(t *testing.T) {
	ai := &blockingCompleter{started: make(chan struct{})}
	s := NewGenerationService(GenerationConfig{Timeout: 50 * time.Millisecond}, factoryFor(ai))

	id, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: ProviderOpenAI})
	require.NoError(t, err)

	st := waitDone(t, s, id)
	assert.Equal(t, ProgressFailed, st.Progress)
	assert.Equal(t, "generation timed out after 50ms", st.Error)
}

func TestGenerationAIPath(t *testing.T) {
	ai := &fakeCompleter{replies: []string{`{"questions":[
		{"type":"short_answer","question":"What is a cell?","answer":"The unit of life"},
		{"type":"true_false","question":"Cells divide","answer":"true"}
	]}`}}
	dir := t.TempDir()
	s := NewGenerationService(GenerationConfig{}, factoryFor(ai), WithTranscriptDir(dir))

	id, err := s.StartGeneration(studyDocs, QuestionConfig{Count: 2, Types: []QuestionType{TypeShortAnswer, TypeTrueFalse}}, AIConfig{Provider: ProviderOpenAI})
	require.NoError(t, err)

	st := waitDone(t, s, id)
	require.Empty(t, st.Error)
	assert.Len(t, st.Questions, 2)

	data, err := os.ReadFile(filepath.Join(dir, id+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Outcome: 2 questions")
}

func TestGenerationFailures(t *testing.T) {
	t.Run("unsupported provider", func(t *testing.T) {
		s := NewGenerationService(GenerationConfig{})
		_, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: "bogus"})
		assert.ErrorIs(t, err, ErrUnsupportedProvider)
		assert.False(t, s.HasActiveGeneration())
	})

	t.Run("no questions", func(t *testing.T) {
		ai := &fakeCompleter{replies: []string{`{"questions":[{"type":"short_answer","question":"","answer":"x"}]}`}}
		s := NewGenerationService(GenerationConfig{}, factoryFor(ai))
		id, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: ProviderOpenAI})
		require.NoError(t, err)
		assert.Equal(t, ErrNoQuestions.Error(), waitDone(t, s, id).Error)
	})

	t.Run("client construction", func(t *testing.T) {
		s := NewGenerationService(GenerationConfig{}, WithCompleterFactory(func(AIConfig, *LLMLogger) (Completer, error) {
			return nil, errors.New("no api key")
		}))
		id, err := s.StartGeneration(studyDocs, QuestionConfig{}, AIConfig{Provider: ProviderOpenAI})
		require.NoError(t, err)
		assert.Equal(t, "no api key", waitDone(t, s, id).Error)
	})
}

func TestStatusReturnsCopy(t *testing.T) {
	s := NewGenerationService(GenerationConfig{})
	id, err := s.StartGeneration(studyDocs, QuestionConfig{Count: 2}, AIConfig{Provider: ProviderMock})
	require.NoError(t, err)

	st := waitDone(t, s, id)
	st.Questions[0].Question = "changed"
	assert.NotEqual(t, "changed", s.Status(id).Questions[0].Question)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), 0))
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepCtx(ctx, 0), context.Canceled)
}
