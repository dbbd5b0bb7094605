package taskverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// NumQuizQuestions is how many questions a verification quiz must contain.
const NumQuizQuestions = 5

// ErrQuizGeneration is returned when the model response is missing, empty,
// or does not parse as the expected schema. Callers substitute FallbackQuiz
// so the user is never blocked.
var ErrQuizGeneration = errors.New("quiz generation failed")

// CompletionClient is the slice of the OpenAI client the quiz maker needs.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// QuizMaker generates verification questions for a resolved task
type QuizMaker struct {
	client CompletionClient
	model  string
}

// NewQuizMaker creates a new quiz maker with an OpenAI client
func NewQuizMaker(apiKey, model string) *QuizMaker {
	if model == "" {
		model = openai.GPT4o
	}
	return &QuizMaker{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// NewQuizMakerWithClient creates a quiz maker over an existing client
func NewQuizMakerWithClient(client CompletionClient, model string) *QuizMaker {
	if model == "" {
		model = openai.GPT4o
	}
	return &QuizMaker{client: client, model: model}
}

// GenerateQuiz asks the model for NumQuizQuestions verification questions
// about the given task and validates the response shape before returning it.
func (qm *QuizMaker) GenerateQuiz(ctx context.Context, task *Task, logger *AttemptLogger) ([]Question, error) {
	VerboseLog("Generating verification quiz for task %s (%s)", task.ID, task.Title)

	prompt := qm.buildPrompt(task)
	if logger != nil {
		logger.LogLLMRequest("QuizMaker", prompt)
	}

	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qm.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a strict verifier of self-reported task completion. Generate multiple choice questions that are hard to pass without actually having done the task. Respond with JSON only.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizGeneration, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrQuizGeneration)
	}

	text := resp.Choices[0].Message.Content
	if logger != nil {
		logger.LogLLMResponse("QuizMaker", text)
	}

	questions, err := ParseQuizResponse(text)
	if err != nil {
		return nil, err
	}

	VerboseLog("Generated %d questions for task %s", len(questions), task.ID)
	return questions, nil
}

func (qm *QuizMaker) buildPrompt(task *Task) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d multiple choice questions to verify the completion of this task:\n", NumQuizQuestions))
	sb.WriteString(fmt.Sprintf("Title: \"%s\"\n", task.Title))
	sb.WriteString(fmt.Sprintf("Description: \"%s\"\n", task.Description))
	sb.WriteString(fmt.Sprintf("Category: \"%s\"\n\n", task.Category))

	sb.WriteString("Return the response as a JSON array with exactly this structure:\n")
	sb.WriteString("[\n")
	sb.WriteString("  {\n")
	sb.WriteString("    \"question\": \"Question text here?\",\n")
	sb.WriteString("    \"options\": [\"Option 1\", \"Option 2\", \"Option 3\", \"Option 4\"],\n")
	sb.WriteString("    \"correctAnswer\": \"The correct option (if the task is workout related, mark more than one option as correct by returning a list, when logically correct or possible)\"\n")
	sb.WriteString("  }\n")
	sb.WriteString("]\n\n")

	sb.WriteString("Requirements:\n")
	sb.WriteString("1. Each question should verify a different aspect of task completion\n")
	sb.WriteString("2. Each question must have exactly 4 options\n")
	sb.WriteString("3. The correctAnswer must match exactly one of the options (or multiple, if workout related)\n")
	sb.WriteString("4. Questions should be relevant to the task details. If the task is workout related, ask the number of reps completed, the number of sets, the area where pain is felt etc to find whether the poster actually did it\n")
	sb.WriteString("5. Format as valid JSON that can be parsed\n")

	return sb.String()
}

// ParseQuizResponse strips Markdown code fences from raw model output and
// validates the JSON payload against the quiz schema.
func ParseQuizResponse(text string) ([]Question, error) {
	cleaned := stripCodeFences(text)
	if strings.TrimSpace(cleaned) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrQuizGeneration)
	}

	var questions []Question
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizGeneration, err)
	}
	if len(questions) != NumQuizQuestions {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", ErrQuizGeneration, NumQuizQuestions, len(questions))
	}
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrQuizGeneration, i+1, err)
		}
	}
	return questions, nil
}

func validateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("empty question text")
	}
	if len(q.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(q.Options))
	}
	if len(q.CorrectAnswers) == 0 {
		return errors.New("no correct answer")
	}
	for _, answer := range q.CorrectAnswers {
		found := false
		for _, opt := range q.Options {
			if opt == answer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("correct answer %q is not one of the options", answer)
		}
	}
	return nil
}

// stripCodeFences removes "```json" and bare "```" markers. The model often
// wraps its JSON in a fenced block even when told not to.
func stripCodeFences(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	return strings.ReplaceAll(cleaned, "```", "")
}

// FallbackQuiz builds the single generic completion question substituted when
// generation fails. Trivially passable on purpose: a degraded quiz beats a
// blocked user.
func FallbackQuiz(task *Task) []Question {
	return []Question{
		{
			Text: fmt.Sprintf("Did you complete the task: \"%s\"?", task.Title),
			Options: []string{
				"Yes, completed",
				"No, not yet",
				"In progress",
				"Need help",
			},
			CorrectAnswers: []string{"Yes, completed"},
		},
	}
}
