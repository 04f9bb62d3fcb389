package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ai-editor-be/internal/config"
	"ai-editor-be/internal/constant"
	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/internal/tracer"
	"ai-editor-be/pkg/editor"
	"ai-editor-be/pkg/llm"
	"ai-editor-be/pkg/richtext"
)

var (
	ErrEmptyAnswer        = errors.New("model returned an empty answer")
	ErrMalformedAnswer    = errors.New("model answer could not be parsed")
	ErrNotEnoughSuggested = errors.New("model returned too few suggestions")
)

// IAssistService backs the LLM gateways. It is the editor's Gateway and
// Suggester.
type IAssistService interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Suggest(ctx context.Context, text string) ([]editor.Suggestion, error)
	Summarize(ctx context.Context, text string) (string, error)
	TableOfContents(ctx context.Context, text string) (string, error)
	Format(ctx context.Context, text string) (string, error)
}

type assistService struct {
	// prompts with document context rarely repeat, so completion skips the cache
	llm    llm.LLMProvider
	cached llm.LLMProvider
	opts   []llm.Option
	log    logger.ILogger
	tracer trace.Tracer
}

var (
	_ editor.Gateway   = (*assistService)(nil)
	_ editor.Suggester = (*assistService)(nil)
)

func NewAssistService(provider, cached llm.LLMProvider, cfg config.AIConfig, log logger.ILogger) IAssistService {
	if cached == nil {
		cached = provider
	}
	opts := []llm.Option{llm.WithTemperature(cfg.Temperature)}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(cfg.MaxTokens))
	}
	return &assistService{
		llm:    provider,
		cached: cached,
		opts:   opts,
		log:    log,
		tracer: tracer.Tracer("assist"),
	}
}

func (s *assistService) ask(ctx context.Context, op string, provider llm.LLMProvider, system, input string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "assist."+op, trace.WithAttributes(attribute.Int("input.length", len(input))))
	defer span.End()

	opts := append([]llm.Option{llm.WithSystem(system)}, s.opts...)
	answer, err := provider.Generate(ctx, input, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Error("AssistService", "LLM call failed", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return "", fmt.Errorf("%s: %w", op, err)
	}

	answer = richtext.StripFences(answer)
	if answer == "" {
		span.SetStatus(codes.Error, ErrEmptyAnswer.Error())
		return "", fmt.Errorf("%s: %w", op, ErrEmptyAnswer)
	}
	span.SetAttributes(attribute.Int("output.length", len(answer)))
	return answer, nil
}

func (s *assistService) Complete(ctx context.Context, prompt string) (string, error) {
	answer, err := s.ask(ctx, "complete", s.llm, constant.CompleteSystemPromptV1, prompt)
	if err != nil {
		return "", err
	}
	return s.html("complete", answer)
}

func (s *assistService) Suggest(ctx context.Context, text string) ([]editor.Suggestion, error) {
	answer, err := s.ask(ctx, "suggest", s.cached, constant.SuggestSystemPromptV1, text)
	if err != nil {
		return nil, err
	}
	return parseSuggestions(answer)
}

func (s *assistService) Summarize(ctx context.Context, text string) (string, error) {
	return s.ask(ctx, "summarize", s.cached, constant.SummarizeSystemPromptV1, text)
}

func (s *assistService) TableOfContents(ctx context.Context, text string) (string, error) {
	answer, err := s.ask(ctx, "toc", s.cached, constant.TableOfContentsSystemPromptV1, text)
	if err != nil {
		return "", err
	}
	return s.html("toc", answer)
}

func (s *assistService) Format(ctx context.Context, text string) (string, error) {
	answer, err := s.ask(ctx, "format", s.cached, constant.FormatSystemPromptV1, text)
	if err != nil {
		return "", err
	}
	return s.html("format", answer)
}

func (s *assistService) html(op, answer string) (string, error) {
	markup, err := richtext.ToHTML(answer)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if markup == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyAnswer)
	}
	return markup, nil
}

// parseSuggestions reads the JSON array out of a model answer, tolerating
// prose around it.
func parseSuggestions(answer string) ([]editor.Suggestion, error) {
	start := strings.Index(answer, "[")
	end := strings.LastIndex(answer, "]")
	if start < 0 || end < start {
		return nil, ErrMalformedAnswer
	}

	var items []editor.Suggestion
	if err := json.Unmarshal([]byte(answer[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}

	out := make([]editor.Suggestion, 0, constant.SuggestionCount)
	for _, item := range items {
		item.Title = strings.TrimSpace(item.Title)
		if item.Title == "" {
			continue
		}
		item.Description = strings.TrimSpace(item.Description)
		item.Type = strings.ToLower(strings.TrimSpace(item.Type))
		out = append(out, item)
		if len(out) == constant.SuggestionCount {
			return out, nil
		}
	}
	return nil, ErrNotEnoughSuggested
}
