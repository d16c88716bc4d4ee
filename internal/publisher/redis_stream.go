// Package publisher emits processed-game summaries to a Redis stream.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// streamMaxLen caps the stream so it does not grow without bound.
const streamMaxLen = 10000

// Event is one stream entry.
type Event struct {
	Type      string      `json:"type"`
	GameKey   string      `json:"gameKey"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// RedisStreamPublisher publishes events to a Redis stream behind a circuit
// breaker, so a Redis outage fails fast instead of stalling ingestion.
type RedisStreamPublisher struct {
	client  *redis.Client
	stream  string
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

// NewRedisStreamPublisher creates a publisher on an existing client.
func NewRedisStreamPublisher(client *redis.Client, stream string, log *logrus.Entry) *RedisStreamPublisher {
	log = log.WithField("component", "publisher")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stream-publisher",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("publisher circuit breaker state changed")
		},
	})

	return &RedisStreamPublisher{client: client, stream: stream, breaker: cb, log: log}
}

// Publish appends an event to the stream.
func (p *RedisStreamPublisher) Publish(ctx context.Context, eventType, gameKey string, payload interface{}) error {
	data, err := json.Marshal(Event{Type: eventType, GameKey: gameKey, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]interface{}{
				"type":      eventType,
				"game_key":  gameKey,
				"data":      string(data),
				"timestamp": time.Now().Unix(),
			},
		}).Err()
	})
	if err != nil {
		return fmt.Errorf("publish %s for %s: %w", eventType, gameKey, err)
	}
	return nil
}

// State reports the breaker state for health output.
func (p *RedisStreamPublisher) State() string {
	return p.breaker.State().String()
}

// Nop discards every event. The CLI and tests use it.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, interface{}) error { return nil }
