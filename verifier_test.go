package taskverify

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T, store *Store, client *fakeClient) *Verifier {
	t.Helper()
	// Attempt transcripts land in ./log, keep them out of the repo
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return NewVerifier(store, NewQuizMakerWithClient(client, ""))
}

func TestVerifierEndToEnd(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "t1", "Drink Water", "Drink 2 liters", "Health")

	client := &fakeClient{response: validQuizJSON()}
	verifier := newTestVerifier(t, store, client)

	sess, task, err := verifier.StartAttempt(context.Background(), "t1", "")
	require.NoError(t, err)
	require.Equal(t, "Drink Water", task.Title)
	require.Len(t, sess.Questions, NumQuizQuestions)
	require.NotEmpty(t, sess.AttemptID)

	// Answer every question correctly
	for !sess.Completed {
		question := sess.CurrentQuestion()
		require.NoError(t, sess.SelectAnswer(sess.Current, question.CorrectAnswers[0]))
		require.NoError(t, sess.Advance())
	}
	require.Equal(t, 100.0, sess.ScorePercent)

	awarded, total, err := verifier.SettleAttempt("u1", sess)
	require.NoError(t, err)
	require.True(t, awarded)
	require.Equal(t, 50, total)

	points, err := store.GetPoints("u1")
	require.NoError(t, err)
	require.Equal(t, 50, points)
}

func TestVerifierNotFoundSkipsModelCall(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "t1", "Drink Water", "", "Health")

	client := &fakeClient{response: validQuizJSON()}
	verifier := newTestVerifier(t, store, client)

	_, _, err := verifier.StartAttempt(context.Background(), "missing", "")
	require.ErrorIs(t, err, ErrTaskNotFound)
	require.Zero(t, client.calls)
}

func TestVerifierFallbackOnGenerationFailure(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "t1", "Drink Water", "", "Health")

	client := &fakeClient{err: errors.New("model unavailable")}
	verifier := newTestVerifier(t, store, client)

	sess, _, err := verifier.StartAttempt(context.Background(), "t1", "")
	require.NoError(t, err)
	require.Len(t, sess.Questions, 1)
	require.Equal(t, `Did you complete the task: "Drink Water"?`, sess.Questions[0].Text)

	require.NoError(t, sess.SelectAnswer(0, "Yes, completed"))
	require.NoError(t, sess.Advance())
	require.True(t, sess.Completed)
	require.Equal(t, 100.0, sess.ScorePercent)
}

func TestVerifierFallbackOnMalformedResponse(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "t1", "Drink Water", "", "Health")

	client := &fakeClient{response: "sorry, no quiz today"}
	verifier := newTestVerifier(t, store, client)

	sess, _, err := verifier.StartAttempt(context.Background(), "t1", "")
	require.NoError(t, err)
	require.Len(t, sess.Questions, 1)
	require.Equal(t, []string{"Yes, completed"}, sess.Questions[0].CorrectAnswers)
}

func TestVerifierQuestSubtaskAttempt(t *testing.T) {
	store := newTestStore(t)
	seedQuest(t, store, "q1", "Spring Cleaning", []QuestSubtask{
		{ID: "st1", Description: "Declutter the desk"},
	})

	client := &fakeClient{response: validQuizJSON()}
	verifier := newTestVerifier(t, store, client)

	sess, task, err := verifier.StartAttempt(context.Background(), "st1", "Chores")
	require.NoError(t, err)
	require.Equal(t, "Spring Cleaning", task.Title)
	require.Equal(t, "Chores", task.Category)
	require.Equal(t, "st1", sess.TaskID)
}

func TestVerifierSettleIncompleteAttempt(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "t1", "Drink Water", "", "Health")

	client := &fakeClient{response: validQuizJSON()}
	verifier := newTestVerifier(t, store, client)

	sess, _, err := verifier.StartAttempt(context.Background(), "t1", "")
	require.NoError(t, err)

	_, _, err = verifier.SettleAttempt("u1", sess)
	require.Error(t, err)
}

func TestVerifierSettleWithoutUserSession(t *testing.T) {
	store := newTestStore(t)
	seedDaily(t, store, "t1", "Drink Water", "", "Health")

	client := &fakeClient{response: validQuizJSON()}
	verifier := newTestVerifier(t, store, client)

	sess, _, err := verifier.StartAttempt(context.Background(), "t1", "")
	require.NoError(t, err)
	for !sess.Completed {
		require.NoError(t, sess.SelectAnswer(sess.Current, sess.CurrentQuestion().CorrectAnswers[0]))
		require.NoError(t, sess.Advance())
	}

	// The reward is skipped, the score stands
	_, _, err = verifier.SettleAttempt("", sess)
	require.ErrorIs(t, err, ErrAuthRequired)
	require.Equal(t, 100.0, sess.ScorePercent)
}
