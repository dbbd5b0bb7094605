package taskverify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task is the read-only projection handed to the quiz generator. It is not
// persisted on its own; the resolver assembles it from either a daily task
// or a quest sub-task.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Question is a single verification question with four options.
// CorrectAnswers holds one entry for most tasks; workout-style tasks may
// declare several acceptable options.
type Question struct {
	Text           string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correctAnswer"`
}

// UnmarshalJSON accepts correctAnswer as either a single string or an array
// of strings, which is how the model returns it.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text    string          `json:"question"`
		Options []string        `json:"options"`
		Correct json.RawMessage `json:"correctAnswer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Text = raw.Text
	q.Options = raw.Options
	q.CorrectAnswers = nil
	if len(raw.Correct) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw.Correct, &single); err == nil {
		q.CorrectAnswers = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw.Correct, &many); err != nil {
		return fmt.Errorf("correctAnswer is neither a string nor a list: %w", err)
	}
	q.CorrectAnswers = many
	return nil
}

// IsCorrect reports whether answer is a member of the question's correct set.
func (q *Question) IsCorrect(answer string) bool {
	for _, c := range q.CorrectAnswers {
		if c == answer {
			return true
		}
	}
	return false
}

// DailyTask is a recurring task row. Streak and XP bookkeeping lives here
// too, though the verification flow does not consume it.
type DailyTask struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Completed     bool       `json:"completed"`
	Streak        int        `json:"streak"`
	XP            int        `json:"xp"`
	Multiplier    float64    `json:"multiplier"`
	LastCompleted *time.Time `json:"last_completed,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// QuestSubtask is one selectable entry embedded in a quest.
type QuestSubtask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Quest is a composite task whose sub-tasks are stored as an embedded JSON list.
type Quest struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Difficulty    string         `json:"difficulty"`
	XP            int            `json:"xp"`
	SelectedTasks []QuestSubtask `json:"selected_tasks"`
	CreatedAt     time.Time      `json:"created_at"`
}
