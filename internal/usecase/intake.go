// Package usecase holds the intake orchestration: conversation validation,
// file-text merging, jurisdiction-aware prompt assembly, and dispatch to the
// completions provider.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"legal-intake/internal/domain"
	"legal-intake/internal/jurisdiction"
)

const (
	defaultWindowSize  = 6
	defaultMaxExcerpt  = 3000
	defaultTemperature = 0.5
	defaultMaxTokens   = 300

	fileExcerptPrefix = "I've attached a file. Here's an excerpt:\n\n"
)

// Completer dispatches one completion request to the external provider,
// handling model fallback internally.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// Extractor turns an uploaded attachment into a text excerpt. It never
// fails; unreadable files come back empty.
type Extractor interface {
	Extract(f domain.Attachment) string
}

// UploadReader loads text excerpts of files uploaded earlier for the same
// intake.
type UploadReader interface {
	GetUploadedTexts(ctx context.Context, intakeID string) ([]string, error)
}

// IntakeService orchestrates one intake turn end to end.
type IntakeService struct {
	completer Completer
	extractor Extractor
	uploads   UploadReader

	exemplars          []StyleExemplar
	smallClaimsVariant string
	windowSize         int
	maxExcerptLen      int
	temperature        float64
	maxTokens          int
	logger             *slog.Logger
}

type Option func(*IntakeService)

// WithWindowSize overrides how many trailing messages are sent to the
// provider.
func WithWindowSize(n int) Option {
	return func(s *IntakeService) { s.windowSize = n }
}

// WithMaxExcerptLen overrides the cap on the combined file excerpt.
func WithMaxExcerptLen(n int) Option {
	return func(s *IntakeService) { s.maxExcerptLen = n }
}

// WithGeneration overrides the completion sampling parameters.
func WithGeneration(temperature float64, maxTokens int) Option {
	return func(s *IntakeService) {
		s.temperature = temperature
		s.maxTokens = maxTokens
	}
}

// WithSmallClaimsVariant selects the small-claims framing of the
// legal-context fragment.
func WithSmallClaimsVariant(v string) Option {
	return func(s *IntakeService) { s.smallClaimsVariant = v }
}

// WithExemplars replaces the default style exemplars.
func WithExemplars(exemplars []StyleExemplar) Option {
	return func(s *IntakeService) { s.exemplars = exemplars }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *IntakeService) { s.logger = logger }
}

// NewIntakeService wires the orchestrator's collaborators.
func NewIntakeService(completer Completer, extractor Extractor, uploads UploadReader, opts ...Option) (*IntakeService, error) {
	if completer == nil {
		return nil, errors.New("usecase: completer must not be nil")
	}
	if extractor == nil {
		return nil, errors.New("usecase: extractor must not be nil")
	}
	if uploads == nil {
		return nil, errors.New("usecase: upload reader must not be nil")
	}
	s := &IntakeService{
		completer:          completer,
		extractor:          extractor,
		uploads:            uploads,
		exemplars:          defaultExemplars,
		smallClaimsVariant: VariantParalegal,
		windowSize:         defaultWindowSize,
		maxExcerptLen:      defaultMaxExcerpt,
		temperature:        defaultTemperature,
		maxTokens:          defaultMaxTokens,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IntakeInput is one inbound intake turn: the full conversation so far,
// files attached inline to this turn, and optionally the id of an earlier
// upload batch.
type IntakeInput struct {
	Messages    []domain.ChatMessage
	Attachments []domain.Attachment
	IntakeID    string
}

type IntakeOutput struct {
	Reply    string
	Category jurisdiction.Category
}

// Intake runs one turn: validate, gather file text, classify jurisdiction,
// compose the system prompt, window the history, and complete. A request
// yields exactly one reply or one typed error.
func (s *IntakeService) Intake(ctx context.Context, in IntakeInput) (IntakeOutput, error) {
	if in.Messages == nil {
		return IntakeOutput{}, newError(ErrorInvalidInput, "missing_messages", nil)
	}
	for _, m := range in.Messages {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return IntakeOutput{}, newError(ErrorInvalidInput, "invalid_role", nil)
		}
	}

	history := in.Messages
	if excerpt := s.collectFileText(ctx, in); excerpt != "" {
		history = append(append([]domain.ChatMessage{}, in.Messages...), domain.ChatMessage{
			Role:    domain.RoleUser,
			Content: fileExcerptPrefix + excerpt,
		})
	}

	category := jurisdiction.ClassifyText(joinUserContent(history))
	prompt := composeSystemPrompt(legalContext(category, s.smallClaimsVariant), s.exemplars)

	s.logger.Info("dispatching intake completion",
		"category", string(category), "history_len", len(history))

	reply, err := s.completer.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: prompt,
		Messages:     windowMessages(history, s.windowSize),
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
	})
	if err != nil {
		if errors.Is(err, domain.ErrProviderExhausted) {
			return IntakeOutput{}, newError(ErrorExhausted, "provider_exhausted", err)
		}
		return IntakeOutput{}, newError(ErrorUpstream, "completion_error", err)
	}

	return IntakeOutput{Reply: reply, Category: category}, nil
}

// collectFileText gathers text from inline attachments and, when an intake
// id is supplied, from previously stored uploads. Extractions run
// concurrently; individual failures degrade to empty strings. The combined
// excerpt is capped at maxExcerptLen.
func (s *IntakeService) collectFileText(ctx context.Context, in IntakeInput) string {
	parts := make([]string, len(in.Attachments)+1)
	var g errgroup.Group

	if in.IntakeID != "" {
		g.Go(func() error {
			stored, err := s.uploads.GetUploadedTexts(ctx, in.IntakeID)
			if err != nil {
				// A missing or unreadable manifest must not fail the intake.
				s.logger.Warn("loading stored uploads failed", "intake_id", in.IntakeID, "err", err)
				return nil
			}
			parts[0] = strings.Join(stored, "\n\n")
			return nil
		})
	}
	for i, att := range in.Attachments {
		i, att := i, att
		g.Go(func() error {
			parts[i+1] = s.extractor.Extract(att)
			return nil
		})
	}
	_ = g.Wait()

	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return truncateRunes(strings.Join(nonEmpty, "\n\n"), s.maxExcerptLen)
}

// joinUserContent concatenates the content of every user-authored turn for
// jurisdiction classification.
func joinUserContent(history []domain.ChatMessage) string {
	var b strings.Builder
	for _, m := range history {
		if m.Role != domain.RoleUser {
			continue
		}
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
