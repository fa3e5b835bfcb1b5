package service

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"futuresend/internal/metrics"
	"futuresend/internal/model"
	"futuresend/internal/notifier"
	"futuresend/internal/repository"
)

// maxBatchLimit caps per-run work and provider load.
const maxBatchLimit = 100

// DispatchState coordinates dispatch runs: a leader lock against overlapping
// invocations and metadata about issued sends. A nil DispatchState disables
// both, leaving dispatch unguarded.
type DispatchState interface {
	AcquireLock(ctx context.Context) (bool, error)
	ReleaseLock(ctx context.Context) error
	RecordSent(ctx context.Context, messageID uuid.UUID, sentAt time.Time) error
}

// MessageService orchestrates message submission, lookup and dispatch.
type MessageService struct {
	messages   repository.MessageRepository
	users      repository.UserRepository
	sender     notifier.Sender
	dispatch   DispatchState
	batchLimit int
	logger     *log.Logger
	now        func() time.Time
}

// Dependencies groups constructor requirements for MessageService.
type Dependencies struct {
	Messages repository.MessageRepository
	Users    repository.UserRepository
	Sender   notifier.Sender
	Dispatch DispatchState
}

// MessageServiceOptions configures MessageService.
type MessageServiceOptions struct {
	BatchLimit int
	Logger     *log.Logger
	Now        func() time.Time
}

// NewMessageService builds a MessageService.
func NewMessageService(deps Dependencies, opts MessageServiceOptions) *MessageService {
	batchLimit := opts.BatchLimit
	if batchLimit <= 0 || batchLimit > maxBatchLimit {
		batchLimit = maxBatchLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "message-service ", log.LstdFlags)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &MessageService{
		messages:   deps.Messages,
		users:      deps.Users,
		sender:     deps.Sender,
		dispatch:   deps.Dispatch,
		batchLimit: batchLimit,
		logger:     logger,
		now:        now,
	}
}

// CreateMessageInput carries a validated submission.
type CreateMessageInput struct {
	Content     string
	Destinatary string
	IsAnonymous bool
	SendingDate time.Time
	UserID      uuid.UUID
}

// CreateMessage persists a new message, spending one unit of the user's
// quota. The sender label is the user's full name unless the message is
// anonymous, in which case it stays empty for good.
func (s *MessageService) CreateMessage(ctx context.Context, input CreateMessageInput) (model.Message, error) {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return model.Message{}, err
	}

	if user.AvailableMessages <= 0 {
		return model.Message{}, repository.ErrQuotaExhausted
	}

	msg := model.Message{
		ID:          uuid.New(),
		Content:     input.Content,
		Destinatary: input.Destinatary,
		IsAnonymous: input.IsAnonymous,
		SendingDate: input.SendingDate,
		CreatedAt:   s.now().UTC(),
	}
	if !input.IsAnonymous {
		msg.Sender = user.FullName()
	}

	if err := s.messages.CreateConsumingQuota(ctx, msg, user.ID); err != nil {
		return model.Message{}, err
	}

	metrics.MessagesCreated.Inc()
	return msg, nil
}

// GetMessage retrieves a single message by id.
func (s *MessageService) GetMessage(ctx context.Context, id uuid.UUID) (model.Message, error) {
	return s.messages.FindByID(ctx, id)
}

// PendingCount reports how many messages are due but not yet sent. The value
// is a point-in-time estimate and may race with a concurrent dispatch run.
func (s *MessageService) PendingCount(ctx context.Context) (int, error) {
	return s.messages.CountDue(ctx, s.now())
}

// SentMessagesResult captures paginated sent messages.
type SentMessagesResult struct {
	Messages []model.Message `json:"messages"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

// ListSentMessages returns paginated dispatched messages.
func (s *MessageService) ListSentMessages(ctx context.Context, page, limit int) (SentMessagesResult, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit
	items, total, err := s.messages.ListSent(ctx, offset, limit)
	if err != nil {
		return SentMessagesResult{}, err
	}

	return SentMessagesResult{
		Messages: items,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

// RunDispatchBatch selects due unsent messages up to the batch limit, fires
// their deliveries without awaiting outcomes, then bulk-marks the whole
// selection as sent. Delivery is at-most-once-attempted: an individual send
// failure is logged and counted but never blocks the status flip.
func (s *MessageService) RunDispatchBatch(ctx context.Context) error {
	if s.dispatch != nil {
		acquired, err := s.dispatch.AcquireLock(ctx)
		if err != nil {
			s.logger.Printf("dispatch lock unavailable, proceeding unguarded: %v", err)
		} else if !acquired {
			metrics.DispatchRuns.WithLabelValues("skipped").Inc()
			s.logger.Println("dispatch already running elsewhere, skipping batch")
			return nil
		} else {
			defer func() {
				if err := s.dispatch.ReleaseLock(ctx); err != nil {
					s.logger.Printf("failed to release dispatch lock: %v", err)
				}
			}()
		}
	}

	now := s.now()
	due, err := s.messages.FindDue(ctx, now, s.batchLimit)
	if err != nil {
		metrics.DispatchRuns.WithLabelValues("error").Inc()
		return err
	}

	if len(due) == 0 {
		metrics.DispatchRuns.WithLabelValues("ok").Inc()
		return nil
	}

	// Sends outlive the triggering request, so they must not inherit its
	// cancellation: a manual /dispatch/run would otherwise abort every
	// delivery the moment the handler returns.
	sendCtx := context.WithoutCancel(ctx)

	ids := make([]uuid.UUID, 0, len(due))
	for _, msg := range due {
		ids = append(ids, msg.ID)
		go s.sendMessage(sendCtx, msg, now)
	}

	if err := s.messages.MarkSent(ctx, ids, now.UTC()); err != nil {
		metrics.DispatchRuns.WithLabelValues("error").Inc()
		return err
	}

	metrics.MessagesDispatched.Add(float64(len(ids)))
	metrics.DispatchRuns.WithLabelValues("ok").Inc()
	s.logger.Printf("dispatched batch of %d messages", len(ids))
	return nil
}

func (s *MessageService) sendMessage(ctx context.Context, msg model.Message, sentAt time.Time) {
	label := msg.Sender
	if msg.IsAnonymous {
		label = ""
	}

	if err := s.sender.Send(ctx, msg.Destinatary, msg.ID.String(), label); err != nil {
		metrics.SendFailures.Inc()
		s.logger.Printf("failed to send message %s: %v", msg.ID, err)
		return
	}

	if s.dispatch != nil {
		if err := s.dispatch.RecordSent(ctx, msg.ID, sentAt); err != nil {
			s.logger.Printf("failed to record dispatch metadata for %s: %v", msg.ID, err)
		}
	}
}
