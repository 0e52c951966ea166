package openai

import (
	"github.com/OFFIS-RIT/factgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ChatOpenAIClient talks to any OpenAI compatible chat completions endpoint,
// including Groq and local gateways.
//
// A ChatOpenAIClient should be created using NewChatOpenAIClient.
type ChatOpenAIClient struct {
	ai.MetricsRecorder

	model string

	Client *openai.Client
}

// NewChatOpenAIClientParams configures a ChatOpenAIClient.
//
// Model is the default model for requests without ai.WithModel.
// BaseURL is optional and defaults to the OpenAI API.
// MaxRetries < 0 disables the SDK's retries, 0 keeps the SDK default.
type NewChatOpenAIClientParams struct {
	Model      string
	BaseURL    string
	APIKey     string
	MaxRetries int
}

// NewChatOpenAIClient creates a client.
//
// Example:
//
//	client := openai.NewChatOpenAIClient(openai.NewChatOpenAIClientParams{
//		Model:   "llama-3.3-70b-versatile",
//		BaseURL: "https://api.groq.com/openai/v1",
//		APIKey:  os.Getenv("AI_CHAT_KEY"),
//	})
func NewChatOpenAIClient(params NewChatOpenAIClientParams) *ChatOpenAIClient {
	options := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	if params.MaxRetries < 0 {
		options = append(options, option.WithMaxRetries(0))
	} else if params.MaxRetries > 0 {
		options = append(options, option.WithMaxRetries(params.MaxRetries))
	}

	client := openai.NewClient(options...)

	return &ChatOpenAIClient{
		model:  params.Model,
		Client: &client,
	}
}
