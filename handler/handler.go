// Package handler adapts API Gateway proxy events to the intake and upload
// use cases. The caller always receives a JSON object with a message field;
// internal diagnostics are logged, never forwarded.
package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"legal-intake/internal/domain"
	"legal-intake/internal/usecase"
)

const (
	maxFormMemory = 10 << 20
	maxFileBytes  = 10 << 20
)

// IntakeUseCase is the orchestration entry point consumed by the handler.
type IntakeUseCase interface {
	Intake(ctx context.Context, in usecase.IntakeInput) (usecase.IntakeOutput, error)
}

// UploadStore persists upload manifest records.
type UploadStore interface {
	SaveUploadedFile(ctx context.Context, rec domain.UploadedFile) error
}

// Extractor produces the text excerpt stored alongside an upload.
type Extractor interface {
	Extract(f domain.Attachment) string
}

type Handler struct {
	intake    IntakeUseCase
	store     UploadStore
	extractor Extractor
	logger    *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler wires the handler's collaborators.
func NewHandler(intake IntakeUseCase, store UploadStore, extractor Extractor, opts ...Option) (*Handler, error) {
	if intake == nil {
		return nil, errors.New("handler: intake use case must not be nil")
	}
	if store == nil {
		return nil, errors.New("handler: upload store must not be nil")
	}
	if extractor == nil {
		return nil, errors.New("handler: extractor must not be nil")
	}
	h := &Handler{
		intake:    intake,
		store:     store,
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type messageResponse struct {
	Message string `json:"message"`
}

type uploadResponse struct {
	Message  string             `json:"message"`
	IntakeID string             `json:"intakeId"`
	Files    []uploadedFileInfo `json:"files"`
}

type uploadedFileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// intakeJSONRequest is the non-multipart intake body shape.
type intakeJSONRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
	IntakeID string               `json:"intakeId"`
}

// Handle routes one API Gateway proxy event: POST .../upload stores
// attachments, any other POST path is an intake turn.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := headerValue(event.Headers, "x-correlation-id")
	if corrID == "" {
		corrID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", corrID, "path", event.Path)

	if event.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"}, corrID), nil
	}

	if strings.HasSuffix(strings.TrimRight(event.Path, "/"), "/upload") {
		return h.handleUpload(ctx, logger, event, corrID), nil
	}
	return h.handleIntake(ctx, logger, event, corrID), nil
}

func (h *Handler) handleIntake(ctx context.Context, logger *slog.Logger, event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	in, err := parseIntakeRequest(event)
	if err != nil {
		logger.Warn("invalid intake request", "err", err)
		return respond(http.StatusBadRequest, messageResponse{Message: "Invalid input format"}, corrID)
	}

	out, err := h.intake.Intake(ctx, in)
	if err != nil {
		status := statusForError(err)
		logger.Error("intake failed", "status", status, "err", err)
		return respond(status, messageResponse{Message: diagnosticFor(status)}, corrID)
	}

	logger.Info("intake completed", "category", string(out.Category))
	return respond(http.StatusOK, messageResponse{Message: out.Reply}, corrID)
}

func (h *Handler) handleUpload(ctx context.Context, logger *slog.Logger, event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	form, err := parseMultipartForm(event)
	if err != nil {
		logger.Warn("parsing upload form failed", "err", err)
		return respond(http.StatusInternalServerError, messageResponse{Message: "Error parsing form data"}, corrID)
	}
	defer func() { _ = form.RemoveAll() }()

	intakeID := headerValue(event.Headers, "intake-id")
	if intakeID == "" {
		intakeID = newIntakeID()
	}

	atts, err := formAttachments(form, "files", "file")
	if err != nil {
		logger.Warn("reading uploaded files failed", "err", err)
		return respond(http.StatusInternalServerError, messageResponse{Message: "Error parsing form data"}, corrID)
	}

	infos := make([]uploadedFileInfo, 0, len(atts))
	for _, att := range atts {
		rec := domain.UploadedFile{
			IntakeID:  intakeID,
			Name:      att.Name,
			Size:      int64(len(att.Data)),
			MediaType: att.MediaType,
			Text:      h.extractor.Extract(att),
		}
		if err := h.store.SaveUploadedFile(ctx, rec); err != nil {
			logger.Error("saving upload failed", "file", att.Name, "err", err)
			return respond(http.StatusInternalServerError, messageResponse{Message: "Upload failed"}, corrID)
		}
		infos = append(infos, uploadedFileInfo{Name: att.Name, Size: int64(len(att.Data)), Type: att.MediaType})
	}

	logger.Info("upload stored", "intake_id", intakeID, "files", len(infos))
	return respond(http.StatusOK, uploadResponse{
		Message:  "Files uploaded successfully",
		IntakeID: intakeID,
		Files:    infos,
	}, corrID)
}

// parseIntakeRequest accepts either multipart/form-data (messages field plus
// optional file parts, the browser's shape) or a plain JSON body.
func parseIntakeRequest(event events.APIGatewayProxyRequest) (usecase.IntakeInput, error) {
	contentType := headerValue(event.Headers, "content-type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return usecase.IntakeInput{}, fmt.Errorf("parse content type: %w", err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return parseMultipartIntake(event)
	}
	if mediaType != "application/json" {
		return usecase.IntakeInput{}, fmt.Errorf("unsupported content type %q", mediaType)
	}

	body, err := requestBody(event)
	if err != nil {
		return usecase.IntakeInput{}, err
	}
	var req intakeJSONRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return usecase.IntakeInput{}, fmt.Errorf("decode intake body: %w", err)
	}
	return usecase.IntakeInput{Messages: req.Messages, IntakeID: req.IntakeID}, nil
}

func parseMultipartIntake(event events.APIGatewayProxyRequest) (usecase.IntakeInput, error) {
	form, err := parseMultipartForm(event)
	if err != nil {
		return usecase.IntakeInput{}, err
	}
	defer func() { _ = form.RemoveAll() }()

	raw := formValue(form, "messages")
	if raw == "" {
		return usecase.IntakeInput{}, errors.New("missing messages field")
	}
	var messages []domain.ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return usecase.IntakeInput{}, fmt.Errorf("decode messages field: %w", err)
	}

	atts, err := formAttachments(form, "file", "files")
	if err != nil {
		return usecase.IntakeInput{}, err
	}

	return usecase.IntakeInput{
		Messages:    messages,
		Attachments: atts,
		IntakeID:    formValue(form, "intakeId"),
	}, nil
}

func parseMultipartForm(event events.APIGatewayProxyRequest) (*multipart.Form, error) {
	contentType := headerValue(event.Headers, "content-type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("expected multipart content, got %q", mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, errors.New("multipart boundary missing")
	}

	body, err := requestBody(event)
	if err != nil {
		return nil, err
	}
	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxFormMemory)
	if err != nil {
		return nil, fmt.Errorf("read multipart form: %w", err)
	}
	return form, nil
}

func formValue(form *multipart.Form, key string) string {
	vals := form.Value[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func formAttachments(form *multipart.Form, keys ...string) ([]domain.Attachment, error) {
	var atts []domain.Attachment
	for _, key := range keys {
		for _, fh := range form.File[key] {
			f, err := fh.Open()
			if err != nil {
				return nil, fmt.Errorf("open uploaded file %q: %w", fh.Filename, err)
			}
			data, err := io.ReadAll(io.LimitReader(f, maxFileBytes))
			_ = f.Close()
			if err != nil {
				return nil, fmt.Errorf("read uploaded file %q: %w", fh.Filename, err)
			}
			atts = append(atts, domain.Attachment{
				Name:      fh.Filename,
				MediaType: fh.Header.Get("Content-Type"),
				Data:      data,
			})
		}
	}
	return atts, nil
}

// requestBody returns the raw request bytes, decoding the base64 transport
// encoding API Gateway applies to binary bodies.
func requestBody(event events.APIGatewayProxyRequest) ([]byte, error) {
	if event.IsBase64Encoded {
		data, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decode base64 body: %w", err)
		}
		return data, nil
	}
	return []byte(event.Body), nil
}

// headerValue does a case-insensitive lookup; API Gateway does not normalize
// header casing.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func statusForError(err error) int {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		switch ucErr.Code {
		case usecase.ErrorInvalidInput:
			return http.StatusBadRequest
		case usecase.ErrorUpstream, usecase.ErrorExhausted:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func diagnosticFor(status int) string {
	if status == http.StatusBadRequest {
		return "Invalid input format"
	}
	return "AI processing failed"
}

func respond(status int, body any, corrID string) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload = []byte(`{"message":"AI processing failed"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": corrID,
		},
		Body: string(payload),
	}
}

var newIntakeID = func() string {
	return uuid.NewString()
}
