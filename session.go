package taskverify

import (
	"errors"
	"fmt"
)

// Session state errors.
var (
	ErrSessionCompleted = errors.New("session already completed")
	ErrNoAnswer         = errors.New("current question has no answer")
)

// Session is the state of one in-progress verification attempt. It lives in
// the caller's cookie session and is discarded when the user navigates away.
// Fields are exported so the struct survives a gob round-trip.
type Session struct {
	AttemptID    string         `json:"attempt_id"`
	TaskID       string         `json:"task_id"`
	Questions    []Question     `json:"questions"`
	Current      int            `json:"current"`
	Selected     map[int]string `json:"selected"`
	Completed    bool           `json:"completed"`
	ScorePercent float64        `json:"score_percent"`
}

// NewSession starts a session positioned on the first question
func NewSession(attemptID, taskID string, questions []Question) *Session {
	return &Session{
		AttemptID: attemptID,
		TaskID:    taskID,
		Questions: questions,
		Selected:  make(map[int]string),
	}
}

// CurrentQuestion returns the question at the session cursor.
func (s *Session) CurrentQuestion() Question {
	return s.Questions[s.Current]
}

// SelectAnswer records answer for the question at index, overwriting any
// prior selection. It never advances the cursor.
func (s *Session) SelectAnswer(index int, answer string) error {
	if s.Completed {
		return ErrSessionCompleted
	}
	if index < 0 || index >= len(s.Questions) {
		return fmt.Errorf("question index %d out of range", index)
	}
	if s.Selected == nil {
		s.Selected = make(map[int]string)
	}
	s.Selected[index] = answer
	return nil
}

// Advance moves to the next question once the current one has an answer. On
// the last question it completes the session and computes the final score.
// A completed session never transitions back.
func (s *Session) Advance() error {
	if s.Completed {
		return ErrSessionCompleted
	}
	if _, ok := s.Selected[s.Current]; !ok {
		return ErrNoAnswer
	}
	if s.Current+1 < len(s.Questions) {
		s.Current++
		return nil
	}
	s.Completed = true
	s.ScorePercent = s.score()
	return nil
}

// score counts answers that are members of each question's correct set. An
// unanswered question counts as incorrect, never as an error.
func (s *Session) score() float64 {
	if len(s.Questions) == 0 {
		return 0
	}
	correct := 0
	for i, q := range s.Questions {
		if q.IsCorrect(s.Selected[i]) {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(s.Questions))
}
