package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

var errEmptyCompletion = errors.New("no response from OpenAI")

// GeneratedTask is a task suggestion. Suggestions are not stored.
type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

// TaskSuggester turns free text into task suggestions.
type TaskSuggester interface {
	SuggestTasks(ctx context.Context, text string) ([]GeneratedTask, error)
}

// AIService suggests tasks with an OpenAI chat model.
type AIService struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
		now:    time.Now,
	}
}

const suggestPrompt = `You extract concrete, actionable tasks from text for a team task tracker.

Current time: %s

Text:
%s

Reply with a JSON array only, no prose:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "dueDate": "deadline in RFC 3339, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Reply with [] when the text contains no task.
- Resolve relative deadlines such as "tomorrow" or "next week" against the current time.
- dueDate is either an RFC 3339 string or null.`

// SuggestTasks asks the model for tasks found in text
func (s *AIService) SuggestTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	prompt := fmt.Sprintf(suggestPrompt, s.now().UTC().Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errEmptyCompletion
	}

	return parseSuggestions(resp.Choices[0].Message.Content)
}

// parseSuggestions decodes the model reply, tolerating a markdown code fence
// around the JSON.
func parseSuggestions(content string) ([]GeneratedTask, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return tasks, nil
}
