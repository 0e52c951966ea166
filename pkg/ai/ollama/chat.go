package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"

	"github.com/OFFIS-RIT/factgraph/pkg/ai"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

const defaultContext = 4096

// GenerateCompletion sends a single-turn prompt and returns the assistant
// text. The context window is widened when the prompt would not fit the
// server's default.
func (c *ChatOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.model,
		Temperature: 0.3,
	}, opts...)

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  requestOptions(options),
	}

	tokens := countTokens(msgs) + 200 + options.MaxTokens
	if tokens > defaultContext {
		req.Options["num_ctx"] = tokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	c.Record(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return final.Message.Content, nil
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals into out.
func (c *ChatOllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	rv := reflect.ValueOf(out)
	if out == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	format, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.model,
		Temperature: 0.1,
	}, opts...)

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Format:   json.RawMessage(format),
		Options:  requestOptions(options),
	}

	tokens := countTokens(msgs) + 200 + options.MaxTokens
	if tokens > defaultContext {
		req.Options["num_ctx"] = tokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return err
	}

	c.Record(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	logger.Debug("[Ollama][GenerateCompletionWithFormat] Structured completion received", "schema", name, "description", description)
	return ai.UnmarshalFlexible(final.Message.Content, out)
}

func requestOptions(options ai.GenerateOptions) map[string]any {
	out := map[string]any{"temperature": options.Temperature}
	if options.MaxTokens > 0 {
		out["num_predict"] = options.MaxTokens
	}
	if len(options.Stop) > 0 {
		out["stop"] = options.Stop
	}
	return out
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// countTokens sizes the prompt with the o200k encoding. When the encoding
// cannot be loaded it falls back to four characters per token.
func countTokens(msgs []api.Message) int {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("o200k_base")
		if encErr != nil {
			logger.Warn("[Ollama][countTokens] Token encoding unavailable, estimating", "err", encErr)
		}
	})

	n := 0
	for _, m := range msgs {
		if enc != nil {
			n += len(enc.Encode(m.Content, nil, nil))
		} else {
			n += len(m.Content)/4 + 1
		}
	}
	return n
}
