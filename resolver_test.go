package taskverify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolverDailyTask(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "t1", "Drink Water", "Drink 2 liters", "Health")

	task, err := NewResolver(store).Resolve("t1", "")
	require.NoError(t, err)
	require.Equal(t, "t1", task.ID)
	require.Equal(t, "Drink Water", task.Title)
	require.Equal(t, "Drink 2 liters", task.Description)
	require.Equal(t, "Health", task.Category)
}

func TestResolverQuestSubtask(t *testing.T) {
	store := newTestStore(t)
	seedQuest(t, store, "q1", "Spring Cleaning", []QuestSubtask{
		{ID: "st1", Description: "Declutter the desk"},
	})

	resolver := NewResolver(store)

	// The projection is the quest title plus the sub-task description, with
	// the caller's category hint.
	task, err := resolver.Resolve("st1", "Chores")
	require.NoError(t, err)
	require.Equal(t, "st1", task.ID)
	require.Equal(t, "Spring Cleaning", task.Title)
	require.Equal(t, "Declutter the desk", task.Description)
	require.Equal(t, "Chores", task.Category)

	// Without a hint the category falls back to the generic literal
	task, err = resolver.Resolve("st1", "")
	require.NoError(t, err)
	require.Equal(t, DefaultQuestCategory, task.Category)
}

func TestResolverDailyTakesPrecedence(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "shared", "Daily Title", "daily description", "Health")
	seedQuest(t, store, "q1", "Quest Title", []QuestSubtask{
		{ID: "shared", Description: "quest description"},
	})

	task, err := NewResolver(store).Resolve("shared", "")
	require.NoError(t, err)
	require.Equal(t, "Daily Title", task.Title)
}

func TestResolverNotFound(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "t1", "Drink Water", "", "Health")

	_, err := NewResolver(store).Resolve("missing", "")
	require.ErrorIs(t, err, ErrTaskNotFound)
}
