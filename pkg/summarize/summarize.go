package summarize

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OFFIS-RIT/factgraph/pkg/ai"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"
)

const (
	DefaultMaxTokens    = 1024
	DefaultTemperature  = 0.5
	DefaultCharCutoff   = 20000
	DefaultSleepPerChar = 300 * time.Microsecond
	DefaultLanguage     = "English"
)

// Summarizer rephrases claims into search queries and summarizes text through
// a chat model. Rephrasing uses the main model, summaries the low model.
type Summarizer struct {
	client ai.ChatAIClient

	model       string
	lowModel    string
	language    string
	maxTokens   int
	temperature float64
	stop        []string

	sleepPerChar time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewSummarizerParams configures a Summarizer. Zero values select the
// package defaults; an empty LowModel falls back to Model.
type NewSummarizerParams struct {
	Client ai.ChatAIClient

	Model       string
	LowModel    string
	Language    string
	MaxTokens   int
	Temperature float64
	Stop        []string

	SleepPerChar time.Duration
}

type SummarizerOption func(*Summarizer)

// WithSleepFunc replaces the pause used for pacing batch requests.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) SummarizerOption {
	return func(s *Summarizer) {
		s.sleep = fn
	}
}

func NewSummarizer(params NewSummarizerParams, opts ...SummarizerOption) (*Summarizer, error) {
	if params.Client == nil {
		return nil, errors.New("ai client is nil")
	}

	s := &Summarizer{
		client:       params.Client,
		model:        params.Model,
		lowModel:     params.LowModel,
		language:     params.Language,
		maxTokens:    params.MaxTokens,
		temperature:  params.Temperature,
		stop:         params.Stop,
		sleepPerChar: params.SleepPerChar,
		sleep:        sleepContext,
	}
	if s.lowModel == "" {
		s.lowModel = s.model
	}
	if s.language == "" {
		s.language = DefaultLanguage
	}
	if s.maxTokens <= 0 {
		s.maxTokens = DefaultMaxTokens
	}
	if s.temperature <= 0 {
		s.temperature = DefaultTemperature
	}
	if s.sleepPerChar <= 0 {
		s.sleepPerChar = DefaultSleepPerChar
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Summarizer) options(model, system string) []ai.GenerateOption {
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(system),
		ai.WithTemperature(s.temperature),
		ai.WithMaxTokens(s.maxTokens),
	}
	if model != "" {
		opts = append(opts, ai.WithModel(model))
	}
	if len(s.stop) > 0 {
		opts = append(opts, ai.WithStop(s.stop...))
	}
	return opts
}

// RephraseAsQuery turns a claim into a search query prefixed with
// QueryMarker. Any failure, including an empty response, is logged and
// yields nil.
func (s *Summarizer) RephraseAsQuery(ctx context.Context, text string) *string {
	logger.Info("[Summarizer][RephraseAsQuery] Rephrasing claim", "input", truncate(text, 200))

	out, err := s.client.GenerateCompletion(ctx, text, s.options(s.model, rephrasePrompt)...)
	if err != nil {
		logger.Error("[Summarizer][RephraseAsQuery] Failed to rephrase claim", "err", err)
		return nil
	}
	out = strings.TrimSpace(out)
	if out == "" {
		logger.Error("[Summarizer][RephraseAsQuery] Model returned an empty query")
		return nil
	}

	logger.Info("[Summarizer][RephraseAsQuery] Claim rephrased", "query", truncate(out, 1000))
	return &out
}

// Summarize produces a narrative summary with the low model. Errors are
// returned to the caller.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	out, err := s.client.GenerateCompletion(ctx, text, s.options(s.lowModel, summaryPrompt(s.language))...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// SummarizeBatch summarizes texts one after another. Each text is cut to
// charCutoff characters (DefaultCharCutoff when <= 0). After every successful
// call except the last one the batch pauses for len(text) * SleepPerChar.
// Failed or empty summaries become nil entries; the result always has one
// entry per input. A canceled context leaves the remaining entries nil.
func (s *Summarizer) SummarizeBatch(ctx context.Context, texts []string, charCutoff int) []*string {
	if charCutoff <= 0 {
		charCutoff = DefaultCharCutoff
	}

	logger.Info("[Summarizer][SummarizeBatch] Starting batch", "texts", len(texts))
	summaries := make([]*string, len(texts))

	for i, text := range texts {
		if ctx.Err() != nil {
			logger.Warn("[Summarizer][SummarizeBatch] Batch canceled", "done", i, "texts", len(texts))
			break
		}

		cut := truncate(text, charCutoff)
		logger.Debug("[Summarizer][SummarizeBatch] Summarizing text", "index", i+1, "texts", len(texts), "chars", len([]rune(cut)))

		summary, err := s.Summarize(ctx, cut)
		if err != nil {
			logger.Error("[Summarizer][SummarizeBatch] Failed to summarize text", "index", i+1, "err", err)
			continue
		}
		if summary == "" {
			logger.Warn("[Summarizer][SummarizeBatch] No summary returned", "index", i+1)
			continue
		}
		summaries[i] = &summary

		if i == len(texts)-1 {
			break
		}
		pause := time.Duration(len([]rune(cut))) * s.sleepPerChar
		logger.Debug("[Summarizer][SummarizeBatch] Pausing", "duration", pause)
		if err := s.sleep(ctx, pause); err != nil {
			logger.Warn("[Summarizer][SummarizeBatch] Batch canceled", "done", i+1, "texts", len(texts))
			break
		}
	}

	logger.Info("[Summarizer][SummarizeBatch] Batch completed", "texts", len(texts))
	return summaries
}

// ClaimTitleAndSummary derives the stored title and summary of a new claim.
// The title keeps its QueryMarker prefix so store.TrimTitle removes exactly
// the marker; without a model answer the claim text itself is used.
func (s *Summarizer) ClaimTitleAndSummary(ctx context.Context, text string) (title string, summary string) {
	title = QueryMarker + text
	if q := s.RephraseAsQuery(ctx, text); q != nil {
		title = *q
		if !strings.HasPrefix(title, QueryMarker) {
			title = QueryMarker + title
		}
	}

	summary, err := s.Summarize(ctx, text)
	if err != nil {
		logger.Error("[Summarizer][ClaimTitleAndSummary] Failed to summarize claim", "err", err)
		summary = text
	}
	return title, summary
}

func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
