// Package notify publishes booking transition events. The engine only
// classifies why a transition happened; turning the reason into a
// human-readable message is the subscriber's job.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Transition reasons carried on events.
const (
	ReasonRequested        = "requested"
	ReasonConfirmed        = "confirmed"
	ReasonDeclined         = "declined"
	ReasonExpired          = "expired"
	ReasonCancelled        = "cancelled"
	ReasonBlackout         = "blackout"
	ReasonStarted          = "started"
	ReasonAwaitingFeedback = "awaiting_feedback"
	ReasonCompleted        = "completed"
)

type Event struct {
	BookingID string    `json:"booking_id"`
	StudentID string    `json:"student_id"`
	TutorID   string    `json:"tutor_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

type Notifier interface {
	BookingEvent(ctx context.Context, event Event) error
}

type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(redisAddr, channel string) (*RedisNotifier, error) {
	const op = "notify.NewRedisNotifier"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisNotifier{client: client, channel: channel}, nil
}

func (n *RedisNotifier) BookingEvent(ctx context.Context, event Event) error {
	const op = "notify.RedisNotifier.BookingEvent"

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
