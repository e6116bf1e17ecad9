package collaborator

import (
	"context"
	"log/slog"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

const defaultPublishTimeout = 5 * time.Second

// ReservationStatusChanged is published once per accepted status transition.
// OldStatus is empty for a newly created reservation.
type ReservationStatusChanged struct {
	ReservationID core.ReservationIDString `json:"reservationId"`
	OldStatus     core.Status              `json:"oldStatus"`
	NewStatus     core.Status              `json:"newStatus"`
	OccurredAt    time.Time                `json:"occurredAt"`
}

// StatusChangePublisher delivers notifications to the notification service.
type StatusChangePublisher interface {
	PublishStatusChanged(ctx context.Context, message ReservationStatusChanged) error
}

// NotificationHook publishes a ReservationStatusChanged after every append that changed the status.
// Publishing runs in its own goroutine, detached from the request's cancellation, and failures are only logged.
type NotificationHook struct {
	publisher StatusChangePublisher
	logger    *slog.Logger
	timeout   time.Duration
	published func()
}

// NotificationOption configures a NotificationHook.
type NotificationOption func(*NotificationHook)

// WithPublishTimeout bounds how long a single publish may take.
func WithPublishTimeout(timeout time.Duration) NotificationOption {
	return func(h *NotificationHook) {
		h.timeout = timeout
	}
}

// WithPublishedCallback is invoked after every publish attempt, successful or not.
func WithPublishedCallback(callback func()) NotificationOption {
	return func(h *NotificationHook) {
		h.published = callback
	}
}

func NewNotificationHook(publisher StatusChangePublisher, logger *slog.Logger, options ...NotificationOption) *NotificationHook {
	hook := &NotificationHook{
		publisher: publisher,
		logger:    logger,
		timeout:   defaultPublishTimeout,
		published: func() {},
	}

	for _, option := range options {
		option(hook)
	}

	return hook
}

func (h *NotificationHook) AfterAppend(
	ctx context.Context,
	previous core.Reservation,
	current core.Reservation,
	event core.DomainEvent,
) {

	if previous.Exists() && previous.Status == current.Status {
		return
	}

	message := ReservationStatusChanged{
		ReservationID: current.ReservationID,
		OldStatus:     previous.Status,
		NewStatus:     current.Status,
		OccurredAt:    event.HasOccurredAt(),
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)

	go func() {
		defer cancel()
		defer h.published()

		if err := h.publisher.PublishStatusChanged(publishCtx, message); err != nil {
			h.logger.WarnContext(publishCtx, logMsgNotificationFailed,
				logAttrReservationID, message.ReservationID,
				logAttrNewStatus, string(message.NewStatus),
				logAttrError, err.Error())
		}
	}()
}

// LogPublisher writes notifications to the log. It is used when no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) PublishStatusChanged(ctx context.Context, message ReservationStatusChanged) error {
	p.Logger.InfoContext(ctx, logMsgStatusChanged,
		logAttrReservationID, message.ReservationID,
		logAttrOldStatus, string(message.OldStatus),
		logAttrNewStatus, string(message.NewStatus))

	return nil
}
