package collaborator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

var fakeNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func Test_FixedPricing_Quote(t *testing.T) {
	window, err := core.BuildWindow(fakeNow, 90*time.Minute)
	require.NoError(t, err)
	pricing := FixedPricing{
		Currency:        "EUR",
		BaseAmountMinor: 2000,
		HourlyMinor:     6000,
		DoctorHourly:    map[string]int64{"d-senior": 12000},
	}

	price, err := pricing.Quote(context.Background(), QuoteRequest{DoctorID: "d-1", Window: window})
	require.NoError(t, err)
	assert.Equal(t, core.Money{AmountMinor: 11000, Currency: "EUR"}, price)

	price, err = pricing.Quote(context.Background(), QuoteRequest{DoctorID: "d-senior", Window: window})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), price.AmountMinor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pricing.Quote(ctx, QuoteRequest{Window: window})
	assert.ErrorIs(t, err, ErrPricingUnavailable)
}

func Test_NotificationHook_Publishes_Only_Status_Changes(t *testing.T) {
	// arrange
	publisher := &recordingPublisher{}
	var wg sync.WaitGroup
	hook := NewNotificationHook(publisher, slog.New(slog.DiscardHandler), WithPublishedCallback(wg.Done))

	window, err := core.BuildWindow(fakeNow.Add(time.Hour), time.Hour)
	require.NoError(t, err)
	created := core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", window, core.Resources{}, "", fakeNow)
	pending := core.Reservation{}.Apply(created)
	rescheduled := core.BuildReservationRescheduled("r-1", window, window, fakeNow)
	confirmed := core.BuildReservationConfirmed("r-1", "", core.Money{}, fakeNow)

	ctx, cancel := context.WithCancel(context.Background())

	// act
	wg.Add(2)
	hook.AfterAppend(ctx, core.Reservation{}, pending, created)
	hook.AfterAppend(ctx, pending, pending.Apply(rescheduled), rescheduled)
	hook.AfterAppend(ctx, pending, pending.Apply(confirmed), confirmed)
	cancel()
	wg.Wait()

	// assert
	assert.ElementsMatch(t, []ReservationStatusChanged{
		{ReservationID: "r-1", OldStatus: "", NewStatus: core.StatusPending, OccurredAt: fakeNow},
		{ReservationID: "r-1", OldStatus: core.StatusPending, NewStatus: core.StatusConfirmed, OccurredAt: fakeNow},
	}, publisher.messages())
	assert.NoError(t, publisher.lastCtxErr, "publishing must not inherit the request cancellation")
}

func Test_NotificationHook_Logs_Failures(t *testing.T) {
	var logs bytes.Buffer
	var wg sync.WaitGroup
	hook := NewNotificationHook(
		&recordingPublisher{err: errors.New("broker down")},
		slog.New(slog.NewTextHandler(&logs, nil)),
		WithPublishedCallback(wg.Done),
	)
	created := core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", core.Window{}, core.Resources{}, "", fakeNow)

	wg.Add(1)
	hook.AfterAppend(context.Background(), core.Reservation{}, core.Reservation{}.Apply(created), created)
	wg.Wait()

	assert.Contains(t, logs.String(), "broker down")
	assert.Contains(t, logs.String(), logMsgNotificationFailed)
}

func Test_AMQPPublisher_Publishes_JSON_With_Status_Routing_Key(t *testing.T) {
	channel := &fakeChannel{}
	publisher := &AMQPPublisher{ch: channel, exchange: "reservations"}
	message := ReservationStatusChanged{ReservationID: "r-1", OldStatus: core.StatusConfirmed, NewStatus: core.StatusNoShow, OccurredAt: fakeNow}

	err := publisher.PublishStatusChanged(context.Background(), message)

	require.NoError(t, err)
	assert.Equal(t, "reservations", channel.exchange)
	assert.Equal(t, "reservation.status.no_show", channel.key)
	assert.Equal(t, "application/json", channel.msg.ContentType)

	var decoded ReservationStatusChanged
	require.NoError(t, jsoniter.Unmarshal(channel.msg.Body, &decoded))
	assert.Equal(t, message, decoded)
	assert.NoError(t, publisher.Close())
}

func Test_AMQPPublisher_Wraps_Broker_Errors_In_Sentinels(t *testing.T) {
	// arrange
	channel := &fakeChannel{err: errors.New("channel closed")}
	publisher := &AMQPPublisher{ch: channel, exchange: "reservations"}
	message := ReservationStatusChanged{ReservationID: "r-1", NewStatus: core.StatusCancelled, OccurredAt: fakeNow}

	// act
	_, dialErr := NewAMQPPublisher("http://not-an-amqp-url", "reservations")
	publishErr := publisher.PublishStatusChanged(context.Background(), message)

	// assert
	assert.ErrorIs(t, dialErr, ErrBrokerDial)
	assert.ErrorIs(t, publishErr, ErrNotificationSend)
	assert.ErrorContains(t, publishErr, "channel closed")
}

func Test_LogPublisher_Logs_The_Status_Change(t *testing.T) {
	var logs bytes.Buffer
	publisher := LogPublisher{Logger: slog.New(slog.NewTextHandler(&logs, nil))}

	err := publisher.PublishStatusChanged(context.Background(), ReservationStatusChanged{
		ReservationID: "r-1",
		OldStatus:     core.StatusPending,
		NewStatus:     core.StatusConfirmed,
	})

	require.NoError(t, err)
	assert.Contains(t, logs.String(), logMsgStatusChanged)
	assert.Contains(t, logs.String(), logAttrNewStatus+"=CONFIRMED")
}

type recordingPublisher struct {
	mu         sync.Mutex
	published  []ReservationStatusChanged
	err        error
	lastCtxErr error
}

func (p *recordingPublisher) PublishStatusChanged(ctx context.Context, message ReservationStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.published = append(p.published, message)
	if ctx.Err() != nil {
		p.lastCtxErr = ctx.Err()
	}

	return p.err
}

func (p *recordingPublisher) messages() []ReservationStatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]ReservationStatusChanged(nil), p.published...)
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange = exchange
	c.key = key
	c.msg = msg

	return c.err
}

func (c *fakeChannel) Close() error { return nil }
