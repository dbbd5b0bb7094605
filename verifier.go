package taskverify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// DefaultGenerationTimeout bounds the model call so a hung request cannot
// leave an attempt loading forever.
const DefaultGenerationTimeout = 2 * time.Minute

// Verifier runs the task-verification pipeline: resolve the task, generate
// its quiz, and settle the reward once the session completes.
type Verifier struct {
	resolver *Resolver
	maker    *QuizMaker
	rewards  *Rewards
	timeout  time.Duration
}

// NewVerifier creates a verifier over the store and quiz maker
func NewVerifier(store *Store, maker *QuizMaker) *Verifier {
	return &Verifier{
		resolver: NewResolver(store),
		maker:    maker,
		rewards:  NewRewards(store),
		timeout:  DefaultGenerationTimeout,
	}
}

// SetGenerationTimeout overrides the model call deadline
func (v *Verifier) SetGenerationTimeout(d time.Duration) {
	if d > 0 {
		v.timeout = d
	}
}

// StartAttempt resolves the task and generates its verification quiz. An id
// that matches neither collection fails with ErrTaskNotFound before any
// model call is made. A generation failure degrades to the single fallback
// question instead of blocking the user.
func (v *Verifier) StartAttempt(ctx context.Context, taskID, categoryHint string) (*Session, *Task, error) {
	task, err := v.resolver.Resolve(taskID, categoryHint)
	if err != nil {
		return nil, nil, err
	}

	attemptID := uuid.NewString()

	logger, err := NewAttemptLogger(attemptID, task)
	if err != nil {
		// Continue without a transcript rather than failing the attempt
		log.Printf("Failed to create attempt logger for %s: %v", attemptID, err)
		logger = nil
	} else {
		defer logger.Close()
	}

	genCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	questions, err := v.maker.GenerateQuiz(genCtx, task, logger)
	if err != nil {
		log.Printf("Quiz generation failed for task %s, using fallback question: %v", taskID, err)
		questions = FallbackQuiz(task)
	}

	return NewSession(attemptID, task.ID, questions), task, nil
}

// SettleAttempt applies the reward policy to a completed session. A missing
// user session or a persistence failure is reported to the caller, which may
// treat it as non-fatal: the score stands either way.
func (v *Verifier) SettleAttempt(userID string, sess *Session) (bool, int, error) {
	if !sess.Completed {
		return false, 0, fmt.Errorf("attempt %s is not completed", sess.AttemptID)
	}
	return v.rewards.Settle(userID, sess.ScorePercent)
}
