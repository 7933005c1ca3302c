package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// EventQueueKey is the redis list the core pushes notification events onto
// and the notification worker drains.
const EventQueueKey = "hackforge:notifications"

// Event is the wire form of a notification emitted by the team core. Each
// event addresses one or more users; the sink decides how to deliver it.
type Event struct {
	Type    string    `json:"type"`
	UserIDs []uint    `json:"user_ids"`
	TeamID  uint      `json:"team_id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is the contract between the team core and the notification sink.
// Emission is best-effort: a failed emit is logged, never propagated, so a
// notification outage cannot fail a committed state change.
type Notifier interface {
	Emit(ctx context.Context, event Event) error
}

// RedisNotifier pushes events onto a redis list for the worker to consume.
type RedisNotifier struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisNotifier(client *redis.Client, logger *logrus.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

func (n *RedisNotifier) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.client.LPush(ctx, EventQueueKey, payload).Err(); err != nil {
		n.logger.WithError(err).WithField("type", event.Type).Warn("failed to enqueue notification event")
		return err
	}
	return nil
}

// LogNotifier is the fallback sink when redis is disabled: events are logged
// and otherwise dropped. Useful for local development.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Emit(ctx context.Context, event Event) error {
	n.logger.WithFields(logrus.Fields{
		"type":     event.Type,
		"user_ids": event.UserIDs,
		"team_id":  event.TeamID,
	}).Info(event.Message)
	return nil
}
