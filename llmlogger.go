package quizsystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes a plain-text transcript of one generation run: every
// prompt, every reply and what happened to each question. A nil *LLMLogger
// discards everything.
type LLMLogger struct {
	file         *os.File
	path         string
	mu           sync.Mutex
	generationID string
}

// NewLLMLogger creates dir/<generationID>.log and writes the run header
func NewLLMLogger(dir, generationID string, provider Provider, cfg QuestionConfig, files []UploadedFile) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", generationID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	logger := &LLMLogger{
		file:         file,
		path:         filename,
		generationID: generationID,
	}

	logger.Logf("=== Question Generation Log ===\n")
	logger.Logf("Generation ID: %s\n", generationID)
	logger.Logf("Provider: %s\n", provider)
	if cfg.BankName != "" {
		logger.Logf("Bank: %s\n", cfg.BankName)
	}
	logger.Logf("Number of Questions: %d\n", cfg.Count)
	logger.Logf("Types: %v\n", cfg.Types)
	logger.Logf("Difficulty: %s\n", cfg.Difficulty)
	for _, f := range files {
		logger.Logf("Document: %s (%d characters)\n", f.Name, len(f.Content))
	}
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Path returns the transcript file name
func (ll *LLMLogger) Path() string {
	if ll == nil {
		return ""
	}
	return ll.path
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...any) {
	if ll == nil {
		return
	}
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.writeLocked(format, args...)
}

func (ll *LLMLogger) writeLocked(format string, args ...any) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", module)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs an LLM response
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", module)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogQuestionResult logs the validation outcome of a question
func (ll *LLMLogger) LogQuestionResult(questionID string, action ValidationAction, reason string) {
	ll.Logf("Question %s: %s - %s\n", questionID, action, reason)
}

// LogDedupResult logs the result of deduplication
func (ll *LLMLogger) LogDedupResult(questionID string, result *DedupResult) {
	if result.IsDuplicate {
		ll.Logf("Question %s: DUPLICATE of %s - %s\n", questionID, result.DuplicateID, result.Reason)
	} else {
		ll.Logf("Question %s: UNIQUE - %s\n", questionID, result.Reason)
	}
}

// Close writes the footer with the run's outcome and closes the file
func (ll *LLMLogger) Close(outcome string) error {
	if ll == nil {
		return nil
	}
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}
	ll.writeLocked("=== Question Generation Finished ===\n")
	ll.writeLocked("Outcome: %s\n", outcome)
	ll.writeLocked("Completed: %s\n", time.Now().Format(time.RFC3339))
	ll.writeLocked("=============================\n")
	err := ll.file.Close()
	ll.file = nil
	return err
}
