package taskverify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

// fakeClient stands in for the OpenAI client in tests.
type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.response}},
		},
	}, nil
}

func validQuizJSON() string {
	questions := ""
	for i := 1; i <= NumQuizQuestions; i++ {
		if i > 1 {
			questions += ","
		}
		correct := fmt.Sprintf(`"Option %d-A"`, i)
		if i == 2 {
			// Workout-style multi-answer question
			correct = fmt.Sprintf(`["Option %d-A", "Option %d-B"]`, i, i)
		}
		questions += fmt.Sprintf(`{
			"question": "Question %d?",
			"options": ["Option %d-A", "Option %d-B", "Option %d-C", "Option %d-D"],
			"correctAnswer": %s
		}`, i, i, i, i, i, correct)
	}
	return "[" + questions + "]"
}

func TestParseQuizResponsePlain(t *testing.T) {
	questions, err := ParseQuizResponse(validQuizJSON())
	require.NoError(t, err)
	require.Len(t, questions, NumQuizQuestions)

	require.Equal(t, "Question 1?", questions[0].Text)
	require.Len(t, questions[0].Options, 4)
	require.Equal(t, []string{"Option 1-A"}, questions[0].CorrectAnswers)

	// String-or-array correctAnswer both normalize to a set
	require.Equal(t, []string{"Option 2-A", "Option 2-B"}, questions[1].CorrectAnswers)
}

func TestParseQuizResponseFenced(t *testing.T) {
	fenced := "```json\n" + validQuizJSON() + "\n```"
	questions, err := ParseQuizResponse(fenced)
	require.NoError(t, err)
	require.Len(t, questions, NumQuizQuestions)

	bareFence := "```\n" + validQuizJSON() + "\n```"
	questions, err = ParseQuizResponse(bareFence)
	require.NoError(t, err)
	require.Len(t, questions, NumQuizQuestions)
}

func TestParseQuizResponseMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"not json", "I could not generate a quiz, sorry."},
		{"empty array", "[]"},
		{"wrong length", `[{"question": "Q?", "options": ["a","b","c","d"], "correctAnswer": "a"}]`},
		{"three options", func() string {
			return `[` + repeatQuestions(`{"question": "Q?", "options": ["a","b","c"], "correctAnswer": "a"}`) + `]`
		}()},
		{"empty question text", func() string {
			return `[` + repeatQuestions(`{"question": " ", "options": ["a","b","c","d"], "correctAnswer": "a"}`) + `]`
		}()},
		{"missing correct answer", func() string {
			return `[` + repeatQuestions(`{"question": "Q?", "options": ["a","b","c","d"]}`) + `]`
		}()},
		{"correct answer not an option", func() string {
			return `[` + repeatQuestions(`{"question": "Q?", "options": ["a","b","c","d"], "correctAnswer": "z"}`) + `]`
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuizResponse(tt.text)
			require.ErrorIs(t, err, ErrQuizGeneration)
		})
	}
}

func repeatQuestions(question string) string {
	out := question
	for i := 1; i < NumQuizQuestions; i++ {
		out += "," + question
	}
	return out
}

func TestGenerateQuiz(t *testing.T) {
	client := &fakeClient{response: "```json\n" + validQuizJSON() + "\n```"}
	maker := NewQuizMakerWithClient(client, "")

	task := &Task{ID: "t1", Title: "Drink Water", Description: "Drink 2 liters", Category: "Health"}
	questions, err := maker.GenerateQuiz(context.Background(), task, nil)
	require.NoError(t, err)
	require.Len(t, questions, NumQuizQuestions)
	require.Equal(t, 1, client.calls)
}

func TestGenerateQuizClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	maker := NewQuizMakerWithClient(client, "")

	task := &Task{ID: "t1", Title: "Drink Water"}
	_, err := maker.GenerateQuiz(context.Background(), task, nil)
	require.ErrorIs(t, err, ErrQuizGeneration)
}

func TestGenerateQuizGarbageResponse(t *testing.T) {
	client := &fakeClient{response: "no json here"}
	maker := NewQuizMakerWithClient(client, "")

	task := &Task{ID: "t1", Title: "Drink Water"}
	_, err := maker.GenerateQuiz(context.Background(), task, nil)
	require.ErrorIs(t, err, ErrQuizGeneration)
}

func TestFallbackQuiz(t *testing.T) {
	task := &Task{ID: "t1", Title: "Drink Water"}

	questions := FallbackQuiz(task)
	require.Len(t, questions, 1)
	require.Equal(t, `Did you complete the task: "Drink Water"?`, questions[0].Text)
	require.Len(t, questions[0].Options, 4)
	require.Equal(t, []string{"Yes, completed"}, questions[0].CorrectAnswers)
	require.True(t, questions[0].IsCorrect("Yes, completed"))
	require.False(t, questions[0].IsCorrect("No, not yet"))
}
