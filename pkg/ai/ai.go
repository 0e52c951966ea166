package ai

import (
	"context"
)

// GenerateOptions holds configuration for a single generation request.
type GenerateOptions struct {
	Model         string   // Model identifier; empty selects the client's default
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	MaxTokens     int      // Upper bound on generated tokens; 0 leaves it to the server
	Stop          []string // Stop sequences
}

// ModelMetrics contains accumulated usage of a client.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// GenerateOption is a functional option for configuring generation requests.
type GenerateOption func(*GenerateOptions)

func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts sets the system prompts to prepend to the request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature. Higher values produce more
// random outputs, lower values more focused ones.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = n
	}
}

func WithStop(stop ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Stop = stop
	}
}

// ApplyOptions builds GenerateOptions from defaults and opts.
func ApplyOptions(defaults GenerateOptions, opts ...GenerateOption) GenerateOptions {
	options := defaults
	for _, o := range opts {
		if o != nil {
			o(&options)
		}
	}
	return options
}

// ChatAIClient generates text completions from a chat model.
type ChatAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}

// StructuredAIClient is a ChatAIClient that can constrain its answer to the
// JSON schema of out and unmarshal into it.
type StructuredAIClient interface {
	ChatAIClient

	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error
}
