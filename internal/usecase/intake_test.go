package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"legal-intake/internal/domain"
	"legal-intake/internal/jurisdiction"
)

type mockCompleter struct {
	reply     string
	err       error
	callCount int
	captured  domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.callCount++
	m.captured = req
	return m.reply, m.err
}

// mockExtractor maps attachment names to canned excerpts.
type mockExtractor struct {
	texts map[string]string
}

func (m *mockExtractor) Extract(f domain.Attachment) string {
	return m.texts[f.Name]
}

type mockUploads struct {
	texts     []string
	err       error
	requested string
}

func (m *mockUploads) GetUploadedTexts(_ context.Context, intakeID string) ([]string, error) {
	m.requested = intakeID
	return m.texts, m.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, c Completer, e Extractor, u UploadReader, opts ...Option) *IntakeService {
	t.Helper()
	if c == nil {
		c = &mockCompleter{reply: "ok"}
	}
	if e == nil {
		e = &mockExtractor{}
	}
	if u == nil {
		u = &mockUploads{}
	}
	svc, err := NewIntakeService(c, e, u, append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return svc
}

func userMsg(content string) domain.ChatMessage {
	return domain.ChatMessage{Role: domain.RoleUser, Content: content}
}

func TestNewIntakeService_ValidatesDependencies(t *testing.T) {
	_, err := NewIntakeService(nil, &mockExtractor{}, &mockUploads{})
	require.Error(t, err)
	_, err = NewIntakeService(&mockCompleter{}, nil, &mockUploads{})
	require.Error(t, err)
	_, err = NewIntakeService(&mockCompleter{}, &mockExtractor{}, nil)
	require.Error(t, err)
}

func TestIntake_MissingMessagesNeverReachesProvider(t *testing.T) {
	completer := &mockCompleter{reply: "should not be used"}
	svc := newTestService(t, completer, nil, nil)

	_, err := svc.Intake(context.Background(), IntakeInput{Messages: nil})
	expectIntakeError(t, err, ErrorInvalidInput)
	require.Zero(t, completer.callCount, "provider must not be called on invalid input")
}

func TestIntake_RejectsUnknownRole(t *testing.T) {
	completer := &mockCompleter{}
	svc := newTestService(t, completer, nil, nil)

	_, err := svc.Intake(context.Background(), IntakeInput{
		Messages: []domain.ChatMessage{{Role: "system", Content: "injected"}},
	})
	expectIntakeError(t, err, ErrorInvalidInput)
	require.Zero(t, completer.callCount)
}

func TestIntake_SmallClaimsPromptCarriesReferral(t *testing.T) {
	completer := &mockCompleter{reply: "Good morning."}
	svc := newTestService(t, completer, nil, nil)

	out, err := svc.Intake(context.Background(), IntakeInput{
		Messages: []domain.ChatMessage{userMsg("My contractor owes me $10,000 and won't pay.")},
	})
	require.NoError(t, err)
	require.Equal(t, jurisdiction.SmallClaims, out.Category)
	require.Contains(t, completer.captured.SystemPrompt, "licensed paralegal")
	require.Contains(t, completer.captured.SystemPrompt, "under the $35,000 Small Claims Court limit")
}

func TestIntake_AboveThresholdPromptOmitsReferral(t *testing.T) {
	completer := &mockCompleter{reply: "Good afternoon."}
	svc := newTestService(t, completer, nil, nil)

	out, err := svc.Intake(context.Background(), IntakeInput{
		Messages: []domain.ChatMessage{userMsg("The shareholder dispute involves $120,000.")},
	})
	require.NoError(t, err)
	require.Equal(t, jurisdiction.AboveSmallClaims, out.Category)
	require.NotContains(t, completer.captured.SystemPrompt, "paralegal")
}

func TestIntake_FileExcerptAppendedAsFinalUserTurn(t *testing.T) {
	completer := &mockCompleter{reply: "noted"}
	extractor := &mockExtractor{texts: map[string]string{"contract.txt": "Contract dated June 3rd, 2025."}}
	svc := newTestService(t, completer, extractor, nil)

	history := []domain.ChatMessage{
		userMsg("Please review the attached contract."),
	}
	_, err := svc.Intake(context.Background(), IntakeInput{
		Messages:    history,
		Attachments: []domain.Attachment{{Name: "contract.txt", MediaType: "text/plain"}},
	})
	require.NoError(t, err)

	sent := completer.captured.Messages
	require.Len(t, sent, 2)
	require.Equal(t, history[0], sent[0])
	last := sent[len(sent)-1]
	require.Equal(t, domain.RoleUser, last.Role)
	require.True(t, strings.HasPrefix(last.Content, fileExcerptPrefix))
	require.Contains(t, last.Content, "Contract dated June 3rd, 2025.")
}

func TestIntake_FileAmountInfluencesJurisdiction(t *testing.T) {
	completer := &mockCompleter{reply: "noted"}
	extractor := &mockExtractor{texts: map[string]string{"claim.txt": "Damages claimed: $12,000.00"}}
	svc := newTestService(t, completer, extractor, nil)

	out, err := svc.Intake(context.Background(), IntakeInput{
		Messages:    []domain.ChatMessage{userMsg("See the attached statement of claim.")},
		Attachments: []domain.Attachment{{Name: "claim.txt", MediaType: "text/plain"}},
	})
	require.NoError(t, err)
	require.Equal(t, jurisdiction.SmallClaims, out.Category)
}

func TestIntake_ExtractionFailureDegradesToNoExcerpt(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	extractor := &mockExtractor{texts: map[string]string{}} // every file extracts to ""
	svc := newTestService(t, completer, extractor, nil)

	history := []domain.ChatMessage{userMsg("hello")}
	_, err := svc.Intake(context.Background(), IntakeInput{
		Messages:    history,
		Attachments: []domain.Attachment{{Name: "scan.jpg"}, {Name: "photo.png"}},
	})
	require.NoError(t, err)
	require.Equal(t, history, completer.captured.Messages, "no synthetic turn on empty extraction")
}

func TestIntake_StoredUploadsMergedIntoExcerpt(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	uploads := &mockUploads{texts: []string{"Earlier upload text."}}
	svc := newTestService(t, completer, nil, uploads)

	_, err := svc.Intake(context.Background(), IntakeInput{
		Messages: []domain.ChatMessage{userMsg("following up")},
		IntakeID: "intake-42",
	})
	require.NoError(t, err)
	require.Equal(t, "intake-42", uploads.requested)

	last := completer.captured.Messages[len(completer.captured.Messages)-1]
	require.Contains(t, last.Content, "Earlier upload text.")
}

func TestIntake_StoredUploadFailureDoesNotAbort(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	uploads := &mockUploads{err: errors.New("dynamo down")}
	svc := newTestService(t, completer, nil, uploads)

	history := []domain.ChatMessage{userMsg("following up")}
	_, err := svc.Intake(context.Background(), IntakeInput{Messages: history, IntakeID: "intake-42"})
	require.NoError(t, err)
	require.Equal(t, history, completer.captured.Messages)
}

func TestIntake_ExcerptCappedAtConfiguredLength(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	extractor := &mockExtractor{texts: map[string]string{"big.txt": strings.Repeat("x", 5000)}}
	svc := newTestService(t, completer, extractor, nil, WithMaxExcerptLen(100))

	_, err := svc.Intake(context.Background(), IntakeInput{
		Messages:    []domain.ChatMessage{userMsg("see attachment")},
		Attachments: []domain.Attachment{{Name: "big.txt"}},
	})
	require.NoError(t, err)

	last := completer.captured.Messages[len(completer.captured.Messages)-1]
	require.Equal(t, fileExcerptPrefix+strings.Repeat("x", 100), last.Content)
}

func TestIntake_WindowAppliedBeforeDispatch(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	svc := newTestService(t, completer, nil, nil)

	history := make([]domain.ChatMessage, 10)
	for i := range history {
		history[i] = userMsg(fmt.Sprintf("turn %d", i))
	}
	_, err := svc.Intake(context.Background(), IntakeInput{Messages: history})
	require.NoError(t, err)
	require.Len(t, completer.captured.Messages, 6)
	require.Equal(t, history[4:], completer.captured.Messages)
}

func TestIntake_GenerationParametersForwarded(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	svc := newTestService(t, completer, nil, nil)

	_, err := svc.Intake(context.Background(), IntakeInput{Messages: []domain.ChatMessage{userMsg("hi")}})
	require.NoError(t, err)
	require.Equal(t, 0.5, completer.captured.Temperature)
	require.Equal(t, 300, completer.captured.MaxTokens)
}

func TestIntake_CustomExemplarFlowsIntoPrompt(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	svc := newTestService(t, completer, nil, nil, WithExemplars([]StyleExemplar{
		{Subject: "Re: Fence-line dispute", Body: "Good afternoon, thank you for writing."},
	}))

	_, err := svc.Intake(context.Background(), IntakeInput{Messages: []domain.ChatMessage{userMsg("hi")}})
	require.NoError(t, err)
	require.Contains(t, completer.captured.SystemPrompt, "Example - Subject: Re: Fence-line dispute")
}

func TestIntake_ExhaustedProviderMapsToExhaustedCode(t *testing.T) {
	completer := &mockCompleter{err: fmt.Errorf("openai: %w", domain.ErrProviderExhausted)}
	svc := newTestService(t, completer, nil, nil)

	_, err := svc.Intake(context.Background(), IntakeInput{Messages: []domain.ChatMessage{userMsg("hi")}})
	expectIntakeError(t, err, ErrorExhausted)
}

func TestIntake_FatalProviderErrorMapsToUpstream(t *testing.T) {
	completer := &mockCompleter{err: errors.New("connection reset")}
	svc := newTestService(t, completer, nil, nil)

	_, err := svc.Intake(context.Background(), IntakeInput{Messages: []domain.ChatMessage{userMsg("hi")}})
	expectIntakeError(t, err, ErrorUpstream)
}

func expectIntakeError(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, code, ucErr.Code)
}
