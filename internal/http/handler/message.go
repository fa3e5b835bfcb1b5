package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"futuresend/internal/model"
	"futuresend/internal/repository"
	"futuresend/internal/service"
)

// MessageService abstracts message operations for handlers.
type MessageService interface {
	CreateMessage(ctx context.Context, input service.CreateMessageInput) (model.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (model.Message, error)
	PendingCount(ctx context.Context) (int, error)
	ListSentMessages(ctx context.Context, page, limit int) (service.SentMessagesResult, error)
	RunDispatchBatch(ctx context.Context) error
}

// MessageHandler provides HTTP endpoints for messages.
type MessageHandler struct {
	svc      MessageService
	validate *validator.Validate
	logger   *log.Logger
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(svc MessageService, logger *log.Logger) *MessageHandler {
	if logger == nil {
		logger = log.New(os.Stdout, "http ", log.LstdFlags)
	}
	return &MessageHandler{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}
}

type createMessageRequest struct {
	Content     string `json:"content" validate:"required"`
	Destinatary string `json:"destinatary" validate:"required"`
	IsAnonymous bool   `json:"is_anonymous"`
	SendingDate string `json:"sending_date" validate:"required"`
}

type createMessageResponse struct {
	ID string `json:"id"`
}

// Create handles POST /messages.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, KindValidationFailed, "missing or malformed X-User-ID header")
		return
	}

	var req createMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindValidationFailed, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, KindValidationFailed, "missing required fields")
		return
	}

	sendingDate, err := time.Parse(time.RFC3339, req.SendingDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, KindValidationFailed, "sending_date must be RFC3339")
		return
	}

	msg, err := h.svc.CreateMessage(r.Context(), service.CreateMessageInput{
		Content:     req.Content,
		Destinatary: req.Destinatary,
		IsAnonymous: req.IsAnonymous,
		SendingDate: sendingDate,
		UserID:      userID,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, createMessageResponse{ID: msg.ID.String()})
	case errors.Is(err, repository.ErrQuotaExhausted):
		writeError(w, http.StatusBadRequest, KindQuotaExhausted, "no messages left on your quota")
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusBadRequest, KindValidationFailed, "unknown user")
	default:
		h.logger.Printf("create message: %v", err)
		writeInternal(w)
	}
}

// Get handles GET /messages/{id}.
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, KindValidationFailed, "malformed message id")
		return
	}

	msg, err := h.svc.GetMessage(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, msg)
	case errors.Is(err, repository.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, KindNotFound, "message not found")
	default:
		h.logger.Printf("get message %s: %v", id, err)
		writeInternal(w)
	}
}

type pendingCountResponse struct {
	Count int `json:"count"`
}

// PendingCount handles GET /messages/pending.
func (h *MessageHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.PendingCount(r.Context())
	if err != nil {
		h.logger.Printf("pending count: %v", err)
		writeInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, pendingCountResponse{Count: count})
}

// ListSent handles GET /messages/sent.
func (h *MessageHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	page := parseIntDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)

	result, err := h.svc.ListSentMessages(r.Context(), page, limit)
	if err != nil {
		h.logger.Printf("list sent messages: %v", err)
		writeInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RunDispatch handles POST /dispatch/run.
func (h *MessageHandler) RunDispatch(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RunDispatchBatch(r.Context()); err != nil {
		h.logger.Printf("dispatch batch: %v", err)
		writeInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return def
}
