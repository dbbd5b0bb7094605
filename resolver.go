package taskverify

import (
	"errors"
	"fmt"
)

// DefaultQuestCategory is used when a quest sub-task is resolved without a
// category hint from the caller.
const DefaultQuestCategory = "Quest Task"

// TaskSource resolves a task id against one backing representation.
type TaskSource interface {
	Resolve(id, categoryHint string) (*Task, error)
}

// dailySource resolves ids against the dailies collection.
type dailySource struct {
	store *Store
}

func (ds *dailySource) Resolve(id, categoryHint string) (*Task, error) {
	d, err := ds.store.GetDaily(id)
	if err != nil {
		return nil, err
	}
	return &Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
	}, nil
}

// questSource resolves ids against the embedded sub-task lists of quests.
// The projection takes its title from the parent quest and its description
// from the sub-task.
type questSource struct {
	store *Store
}

func (qs *questSource) Resolve(id, categoryHint string) (*Task, error) {
	quest, sub, err := qs.store.FindQuestSubtask(id)
	if err != nil {
		return nil, err
	}
	category := categoryHint
	if category == "" {
		category = DefaultQuestCategory
	}
	return &Task{
		ID:          sub.ID,
		Title:       quest.Title,
		Description: sub.Description,
		Category:    category,
	}, nil
}

// Resolver looks a task id up across the daily and quest collections in order.
type Resolver struct {
	sources []TaskSource
}

// NewResolver builds a resolver over the store, dailies first
func NewResolver(store *Store) *Resolver {
	return &Resolver{
		sources: []TaskSource{
			&dailySource{store: store},
			&questSource{store: store},
		},
	}
}

// Resolve returns the task projection for id, or ErrTaskNotFound when no
// source knows it. Store failures other than a miss stop the search.
func (r *Resolver) Resolve(id, categoryHint string) (*Task, error) {
	for _, src := range r.sources {
		task, err := src.Resolve(id, categoryHint)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, ErrTaskNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
}
