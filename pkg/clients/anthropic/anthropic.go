package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	model          = "claude-3-haiku-20240307"
	maxTokens      = 256
)

// Client turns free-form pantry messages into bot commands.
type Client interface {
	TranslateToCommand(ctx context.Context, input string, known []string) (string, error)
}

type anthropicClient struct {
	httpClient *resty.Client
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string) Client {
	return newClient(apiKey, defaultBaseURL)
}

func newClient(apiKey, baseURL string) *anthropicClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = `You translate messages about a household pantry into exactly one bot command.
Supported commands:
/add <name> <quantity>   add units of an item (quantity defaults to 1)
/remove <name>           take one unit of an item
/set <name> <quantity>   overwrite the quantity of an item
/list                    list the pantry
/search <text>           search item names
/show <name>             show one item
/summary                 summarize the pantry
Item names are case-sensitive; reuse the spelling of a known item when the user refers to it.
Known items: %s
Reply with the command only, no explanation. If the message is not about the pantry reply /help.`

// TranslateToCommand asks the model for the slash command matching input.
func (c *anthropicClient) TranslateToCommand(ctx context.Context, input string, known []string) (string, error) {
	names := "none"
	if len(known) > 0 {
		names = strings.Join(known, ", ")
	}

	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    fmt.Sprintf(systemPrompt, names),
		Messages: []message{
			{Role: "user", Content: input},
			// Prefill so the reply starts with a command.
			{Role: "assistant", Content: "/"},
		},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	command := strings.TrimSpace(respBody.Content[0].Text)
	// Keep the first line only; the model sometimes adds a justification.
	if idx := strings.IndexByte(command, '\n'); idx >= 0 {
		command = strings.TrimSpace(command[:idx])
	}
	command = strings.Trim(command, "`")
	return "/" + strings.TrimPrefix(command, "/"), nil
}
