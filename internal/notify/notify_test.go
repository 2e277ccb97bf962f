package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bookingd/internal/config"
	"bookingd/internal/events"
	"bookingd/internal/models"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func sample(kind models.NotificationKind) models.Notification {
	return models.Notification{
		Kind:      kind,
		UserID:    "user-1",
		BookingID: "booking-1",
		CreatedAt: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	n := NewLogNotifier(&logger)

	require.NoError(t, n.Notify(context.Background(), sample(models.NotificationConfirmed)))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "confirmed", entry["kind"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "booking-1", entry["booking_id"])
	assert.Equal(t, "Booking confirmed", entry["message"])
}

func TestMessage(t *testing.T) {
	for _, kind := range []models.NotificationKind{
		models.NotificationCreated,
		models.NotificationConfirmed,
		models.NotificationCancelled,
		models.NotificationCompleted,
	} {
		assert.NotEqual(t, "Booking updated", Message(kind), kind)
	}
	assert.Equal(t, "Booking updated", Message("moved"))
}

func TestEventBusNotifier(t *testing.T) {
	bus := events.NewEventBus()
	var got events.BookingEventPayload
	var eventType string
	bus.Subscribe(events.EventBookingCancelled, func(e *events.Event) error {
		eventType = e.Type
		return json.Unmarshal(e.Payload, &got)
	})

	n := NewEventBusNotifier(bus)
	require.NoError(t, n.Notify(context.Background(), sample(models.NotificationCancelled)))

	assert.Equal(t, events.EventBookingCancelled, eventType)
	assert.Equal(t, "booking-1", got.BookingID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "cancelled", got.Kind)

	assert.Error(t, n.Notify(context.Background(), sample("moved")))

	bus.Subscribe(events.EventBookingCreated, func(*events.Event) error { return errors.New("handler failed") })
	assert.Error(t, n.Notify(context.Background(), sample(models.NotificationCreated)))
}

func TestRedisNotifier(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	n := NewRedisNotifier(client, "bookings:notifications")
	ctx := context.Background()

	t.Run("PushesJSON", func(t *testing.T) {
		require.NoError(t, n.Notify(ctx, sample(models.NotificationCreated)))
		require.NoError(t, n.Notify(ctx, sample(models.NotificationConfirmed)))

		items, err := s.List("bookings:notifications")
		require.NoError(t, err)
		require.Len(t, items, 2)

		var latest models.Notification
		require.NoError(t, json.Unmarshal([]byte(items[0]), &latest))
		assert.Equal(t, models.NotificationConfirmed, latest.Kind)
		assert.Equal(t, "booking-1", latest.BookingID)
	})

	t.Run("ServerDown", func(t *testing.T) {
		s.SetError("READONLY")
		defer s.SetError("")
		assert.Error(t, n.Notify(ctx, sample(models.NotificationCreated)))
	})

	t.Run("NilClient", func(t *testing.T) {
		assert.Error(t, NewRedisNotifier(nil, "k").Notify(ctx, sample(models.NotificationCreated)))
	})
}

func TestTelegramNotifier(t *testing.T) {
	sender := new(mockSender)
	n := NewTelegramNotifier(sender, 4242)

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 4242 &&
			strings.Contains(msg.Text, "Booking completed") &&
			strings.Contains(msg.Text, "booking-1")
	})).Return(tgbotapi.Message{MessageID: 1}, nil).Once()

	require.NoError(t, n.Notify(context.Background(), sample(models.NotificationCompleted)))
	sender.AssertExpectations(t)

	t.Run("SendError", func(t *testing.T) {
		failing := new(mockSender)
		failing.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("Forbidden: bot was blocked")).Once()
		assert.Error(t, NewTelegramNotifier(failing, 1).Notify(context.Background(), sample(models.NotificationCreated)))
	})

	t.Run("EscapesIDs", func(t *testing.T) {
		note := sample(models.NotificationCreated)
		note.UserID = "<a&b>"
		note.BookingID = "</code><b>x"

		var sent tgbotapi.MessageConfig
		capture := new(mockSender)
		capture.On("Send", mock.Anything).Run(func(args mock.Arguments) {
			sent = args.Get(0).(tgbotapi.MessageConfig)
		}).Return(tgbotapi.Message{MessageID: 2}, nil).Once()

		require.NoError(t, NewTelegramNotifier(capture, 1).Notify(context.Background(), note))
		assert.Equal(t, tgbotapi.ModeHTML, sent.ParseMode)
		assert.Contains(t, sent.Text, "<code>&lt;a&amp;b&gt;</code>")
		assert.Contains(t, sent.Text, "<code>&lt;/code&gt;&lt;b&gt;x</code>")
		assert.NotContains(t, sent.Text, "<a&b>")
	})

	t.Run("CancelledContext", func(t *testing.T) {
		idle := new(mockSender)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, NewTelegramNotifier(idle, 1).Notify(ctx, sample(models.NotificationCreated)), context.Canceled)
		idle.AssertNotCalled(t, "Send", mock.Anything)
	})
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	note := sample(models.NotificationCreated)
	errA := errors.New("a down")

	a, b := new(mockNotifier), new(mockNotifier)
	a.On("Notify", ctx, note).Return(errA).Once()
	b.On("Notify", ctx, note).Return(nil).Once()

	err := Multi{a, b}.Notify(ctx, note)
	assert.ErrorIs(t, err, errA)
	b.AssertExpectations(t)

	assert.NoError(t, Multi{}.Notify(ctx, note))
}

func TestFailover(t *testing.T) {
	ctx := context.Background()
	note := sample(models.NotificationCreated)
	primary, fallback := new(mockNotifier), new(mockNotifier)

	var mu sync.Mutex
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFailover(primary, fallback, time.Minute, nil)
	f.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	primary.On("Notify", ctx, note).Return(nil).Once()
	require.NoError(t, f.Notify(ctx, note))
	assert.False(t, f.IsDown())

	primary.On("Notify", ctx, note).Return(errors.New("redis down")).Once()
	fallback.On("Notify", ctx, note).Return(nil)
	require.NoError(t, f.Notify(ctx, note))
	assert.True(t, f.IsDown())

	// primary is skipped while inside the recovery window
	require.NoError(t, f.Notify(ctx, note))
	primary.AssertNumberOfCalls(t, "Notify", 2)

	advance(2 * time.Minute)
	primary.On("Notify", ctx, note).Return(nil).Once()
	require.NoError(t, f.Notify(ctx, note))
	assert.False(t, f.IsDown())
	primary.AssertNumberOfCalls(t, "Notify", 3)
	fallback.AssertNumberOfCalls(t, "Notify", 2)
}

func TestThrottled(t *testing.T) {
	ctx := context.Background()
	next := new(mockNotifier)
	next.On("Notify", ctx, mock.Anything).Return(nil)

	th := NewThrottled(next, 0.001, 2)

	note := sample(models.NotificationCreated)
	require.NoError(t, th.Notify(ctx, note))
	require.NoError(t, th.Notify(ctx, note))
	assert.ErrorIs(t, th.Notify(ctx, note), ErrThrottled)

	other := note
	other.UserID = "user-2"
	assert.NoError(t, th.Notify(ctx, other), "limits are per user")

	next.AssertNumberOfCalls(t, "Notify", 3)
}
