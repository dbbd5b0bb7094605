package taskverify

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrTaskNotFound is returned when an id matches neither a daily task nor a
// quest sub-task.
var ErrTaskNotFound = errors.New("task not found")

// Store wraps the sqlite database holding the task collections and the
// experience point counter.
type Store struct {
	db *sql.DB
}

// OpenStore opens a new database connection
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (s *Store) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS dailies (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			category TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			xp INTEGER NOT NULL DEFAULT 0,
			multiplier REAL NOT NULL DEFAULT 1,
			last_completed DATETIME,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quests (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'medium',
			xp INTEGER NOT NULL DEFAULT 0,
			selected_tasks TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS xp_points (
			id TEXT PRIMARY KEY,
			total_points INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// CreateDaily inserts a new daily task
func (s *Store) CreateDaily(d *DailyTask) error {
	var last sql.NullTime
	if d.LastCompleted != nil {
		last = sql.NullTime{Time: *d.LastCompleted, Valid: true}
	}
	_, err := s.db.Exec(
		"INSERT INTO dailies (id, title, description, category, completed, streak, xp, multiplier, last_completed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		d.ID, d.Title, d.Description, d.Category, d.Completed, d.Streak, d.XP, d.Multiplier, last, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create daily task: %w", err)
	}
	return nil
}

// GetDaily retrieves a daily task by ID
func (s *Store) GetDaily(id string) (*DailyTask, error) {
	var d DailyTask
	var last sql.NullTime
	err := s.db.QueryRow(
		"SELECT id, title, description, category, completed, streak, xp, multiplier, last_completed, created_at FROM dailies WHERE id = ?",
		id,
	).Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.Completed, &d.Streak, &d.XP, &d.Multiplier, &last, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("daily %s: %w", id, ErrTaskNotFound)
		}
		return nil, fmt.Errorf("failed to get daily task: %w", err)
	}
	if last.Valid {
		d.LastCompleted = &last.Time
	}
	return &d, nil
}

// ListDailies retrieves all daily tasks, newest first
func (s *Store) ListDailies() ([]DailyTask, error) {
	rows, err := s.db.Query(
		"SELECT id, title, description, category, completed, streak, xp, multiplier, last_completed, created_at FROM dailies ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily tasks: %w", err)
	}
	defer rows.Close()

	var dailies []DailyTask
	for rows.Next() {
		var d DailyTask
		var last sql.NullTime
		err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.Completed, &d.Streak, &d.XP, &d.Multiplier, &last, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily task: %w", err)
		}
		if last.Valid {
			d.LastCompleted = &last.Time
		}
		dailies = append(dailies, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily tasks: %w", err)
	}

	return dailies, nil
}

// CompleteDaily marks a daily task completed and bumps its streak
func (s *Store) CompleteDaily(id string, when time.Time) error {
	res, err := s.db.Exec(
		"UPDATE dailies SET completed = 1, streak = streak + 1, last_completed = ? WHERE id = ?",
		when, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete daily task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete daily task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("daily %s: %w", id, ErrTaskNotFound)
	}
	return nil
}

// CreateQuest inserts a new quest with its embedded sub-task list
func (s *Store) CreateQuest(q *Quest) error {
	tasksJSON, err := SubtasksToJSON(q.SelectedTasks)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO quests (id, title, difficulty, xp, selected_tasks, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		q.ID, q.Title, q.Difficulty, q.XP, tasksJSON, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quest: %w", err)
	}
	return nil
}

// GetQuest retrieves a quest by ID
func (s *Store) GetQuest(id string) (*Quest, error) {
	var q Quest
	var tasksJSON string
	err := s.db.QueryRow(
		"SELECT id, title, difficulty, xp, selected_tasks, created_at FROM quests WHERE id = ?",
		id,
	).Scan(&q.ID, &q.Title, &q.Difficulty, &q.XP, &tasksJSON, &q.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("quest %s: %w", id, ErrTaskNotFound)
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	q.SelectedTasks, err = JSONToSubtasks(tasksJSON)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuests retrieves all quests, newest first
func (s *Store) ListQuests() ([]Quest, error) {
	rows, err := s.db.Query("SELECT id, title, difficulty, xp, selected_tasks, created_at FROM quests ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	defer rows.Close()

	var quests []Quest
	for rows.Next() {
		var q Quest
		var tasksJSON string
		err := rows.Scan(&q.ID, &q.Title, &q.Difficulty, &q.XP, &tasksJSON, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quest: %w", err)
		}
		q.SelectedTasks, err = JSONToSubtasks(tasksJSON)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quests: %w", err)
	}

	return quests, nil
}

// FindQuestSubtask locates the quest containing the given sub-task id.
func (s *Store) FindQuestSubtask(subtaskID string) (*Quest, *QuestSubtask, error) {
	quests, err := s.ListQuests()
	if err != nil {
		return nil, nil, err
	}
	for i := range quests {
		for j := range quests[i].SelectedTasks {
			if quests[i].SelectedTasks[j].ID == subtaskID {
				return &quests[i], &quests[i].SelectedTasks[j], nil
			}
		}
	}
	return nil, nil, fmt.Errorf("quest sub-task %s: %w", subtaskID, ErrTaskNotFound)
}

// CompleteQuestSubtask marks one embedded sub-task of a quest completed
func (s *Store) CompleteQuestSubtask(questID, subtaskID string) error {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return err
	}
	found := false
	for i := range quest.SelectedTasks {
		if quest.SelectedTasks[i].ID == subtaskID {
			quest.SelectedTasks[i].Completed = true
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("quest sub-task %s: %w", subtaskID, ErrTaskNotFound)
	}
	tasksJSON, err := SubtasksToJSON(quest.SelectedTasks)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec("UPDATE quests SET selected_tasks = ? WHERE id = ?", tasksJSON, questID); err != nil {
		return fmt.Errorf("failed to update quest sub-tasks: %w", err)
	}
	return nil
}

// GetPoints returns a user's accumulated experience points. A user with no
// row yet has zero points.
func (s *Store) GetPoints(userID string) (int, error) {
	var points int
	err := s.db.QueryRow("SELECT total_points FROM xp_points WHERE id = ?", userID).Scan(&points)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get points: %w", err)
	}
	return points, nil
}

// AddPoints increments a user's experience points in a single statement,
// creating the row if it does not exist. Returns the new total.
func (s *Store) AddPoints(userID string, delta int) (int, error) {
	var total int
	err := s.db.QueryRow(
		`INSERT INTO xp_points (id, total_points) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET total_points = total_points + excluded.total_points
		 RETURNING total_points`,
		userID, delta,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return total, nil
}

// Helper function to convert a sub-task list to a JSON string
func SubtasksToJSON(tasks []QuestSubtask) (string, error) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sub-tasks: %w", err)
	}
	return string(data), nil
}

// Helper function to convert a JSON string to a sub-task list
func JSONToSubtasks(tasksJSON string) ([]QuestSubtask, error) {
	var tasks []QuestSubtask
	err := json.Unmarshal([]byte(tasksJSON), &tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal sub-tasks: %w", err)
	}
	return tasks, nil
}
