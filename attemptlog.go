package taskverify

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AttemptLogger writes a transcript of all LLM interactions for one
// verification attempt.
type AttemptLogger struct {
	file      *os.File
	mu        sync.Mutex
	attemptID string
}

// NewAttemptLogger creates a transcript file for a verification attempt
func NewAttemptLogger(attemptID string, task *Task) (*AttemptLogger, error) {
	// Ensure log directory exists
	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join("log", fmt.Sprintf("%s.log", attemptID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &AttemptLogger{
		file:      file,
		attemptID: attemptID,
	}

	// Write header with attempt parameters
	logger.Logf("=== Verification Attempt Log ===\n")
	logger.Logf("Attempt ID: %s\n", attemptID)
	logger.Logf("Task ID: %s\n", task.ID)
	logger.Logf("Task Title: %s\n", task.Title)
	logger.Logf("Category: %s\n", task.Category)
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp
func (al *AttemptLogger) Logf(format string, args ...interface{}) {
	al.mu.Lock()
	defer al.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(al.file, "[%s] %s", timestamp, message)

	// Flush so a crashed attempt still leaves a transcript
	al.file.Sync()
}

// LogLLMRequest logs an LLM request
func (al *AttemptLogger) LogLLMRequest(module, prompt string) {
	al.Logf("=== LLM REQUEST (%s) ===\n", module)
	al.Logf("Prompt:\n%s\n", prompt)
	al.Logf("=====================\n\n")
}

// LogLLMResponse logs an LLM response
func (al *AttemptLogger) LogLLMResponse(module, response string) {
	al.Logf("=== LLM RESPONSE (%s) ===\n", module)
	al.Logf("Response:\n%s\n", response)
	al.Logf("======================\n\n")
}

// Close writes the footer and closes the log file
func (al *AttemptLogger) Close() error {
	al.Logf("=== Verification Attempt Complete ===\n")
	al.Logf("Completed: %s\n", time.Now().Format(time.RFC3339))
	al.Logf("=============================\n")

	al.mu.Lock()
	defer al.mu.Unlock()
	if al.file != nil {
		return al.file.Close()
	}
	return nil
}
