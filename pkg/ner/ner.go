package ner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/factgraph/pkg/ai"
	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"
)

const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.5
	DefaultMaxChars    = 20000
)

const systemPrompt = `you are an NER model that extracts entities and the topic from a text. the output must be like {"topic": "Technology", "entities": ["Elon Musk", "SpaceX", "Tesla", "Paris"]}`

// Extraction is the topic and the named entities found in a text.
type Extraction struct {
	Topic    string   `json:"topic" jsonschema:"description=Single broad topic of the text"`
	Entities []string `json:"entities" jsonschema:"description=Named entities mentioned in the text"`
}

// Extractor finds entities and a topic through a chat model. Clients that
// support structured output are asked for a schema-constrained answer, all
// others get the plain prompt and their reply is parsed leniently.
type Extractor struct {
	client      ai.ChatAIClient
	model       string
	maxTokens   int
	temperature float64
	maxChars    int
}

type NewExtractorParams struct {
	Client      ai.ChatAIClient
	Model       string
	MaxTokens   int
	Temperature float64
	MaxChars    int
}

func NewExtractor(params NewExtractorParams) (*Extractor, error) {
	if params.Client == nil {
		return nil, errors.New("ai client is nil")
	}

	e := &Extractor{
		client:      params.Client,
		model:       params.Model,
		maxTokens:   params.MaxTokens,
		temperature: params.Temperature,
		maxChars:    params.MaxChars,
	}
	if e.maxTokens <= 0 {
		e.maxTokens = DefaultMaxTokens
	}
	if e.temperature == 0 {
		e.temperature = DefaultTemperature
	}
	if e.maxChars <= 0 {
		e.maxChars = DefaultMaxChars
	}
	return e, nil
}

func (e *Extractor) options() []ai.GenerateOption {
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(systemPrompt),
		ai.WithMaxTokens(e.maxTokens),
		ai.WithTemperature(e.temperature),
	}
	if e.model != "" {
		opts = append(opts, ai.WithModel(e.model))
	}
	return opts
}

// ExtractEntitiesAndTopic returns the topic and entities of text. Entities
// are trimmed and de-duplicated case-insensitively in first-seen order.
func (e *Extractor) ExtractEntitiesAndTopic(ctx context.Context, text string) (Extraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Extraction{}, errors.New("text is empty")
	}
	if r := []rune(text); len(r) > e.maxChars {
		text = string(r[:e.maxChars])
	}

	var out Extraction
	if structured, ok := e.client.(ai.StructuredAIClient); ok {
		err := structured.GenerateCompletionWithFormat(
			ctx,
			"named_entities",
			"Topic and named entities of a text",
			text,
			&out,
			e.options()...,
		)
		if err == nil {
			return normalize(out), nil
		}
		if ctx.Err() != nil {
			return Extraction{}, ctx.Err()
		}
		logger.Warn("[NER][ExtractEntitiesAndTopic] Structured output failed, retrying as plain completion", "err", err)
		out = Extraction{}
	}

	raw, err := e.client.GenerateCompletion(ctx, text, e.options()...)
	if err != nil {
		return Extraction{}, err
	}
	if err := ai.UnmarshalFlexible(raw, &out); err != nil {
		return Extraction{}, fmt.Errorf("parse entities: %w", err)
	}
	return normalize(out), nil
}

// Enrich fills the topic of a source when it has none and merges the
// extracted entities into the ones it already carries. Extraction failures
// are logged and leave the source untouched.
func (e *Extractor) Enrich(ctx context.Context, src common.SourceInput) common.SourceInput {
	if strings.TrimSpace(src.Body) == "" {
		return src
	}

	ex, err := e.ExtractEntitiesAndTopic(ctx, src.Body)
	if err != nil {
		logger.Warn("[NER][Enrich] Entity extraction failed", "title", src.Title, "err", err)
		return src
	}

	if strings.TrimSpace(src.Topic) == "" {
		src.Topic = ex.Topic
	}
	src.Entities = dedupe(append(append([]string{}, src.Entities...), ex.Entities...))
	return src
}

func normalize(ex Extraction) Extraction {
	ex.Topic = strings.TrimSpace(ex.Topic)
	ex.Entities = dedupe(ex.Entities)
	return ex
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
