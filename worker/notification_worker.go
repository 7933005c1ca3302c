package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"hackforge/models"
	"hackforge/utils"
)

// NotificationWorker drains the redis event queue and persists one
// Notification row per addressed user. It is the delivery side of the
// Notifier contract: the core emits and forgets, this worker owns delivery
// and read-state.
type NotificationWorker struct {
	db     *gorm.DB
	client *redis.Client
	logger *log.Logger
}

func NewNotificationWorker(db *gorm.DB, client *redis.Client, logger *log.Logger) *NotificationWorker {
	return &NotificationWorker{
		db:     db,
		client: client,
		logger: logger,
	}
}

func (nw *NotificationWorker) Start(ctx context.Context) {
	nw.logger.Println("Starting notification worker...")
	ticker := time.NewTicker(2 * time.Second)

	for {
		select {
		case <-ticker.C:
			nw.drainQueue(ctx)
		case <-ctx.Done():
			nw.logger.Println("Stopping notification worker...")
			ticker.Stop()
			return
		}
	}
}

func (nw *NotificationWorker) drainQueue(ctx context.Context) {
	for {
		payload, err := nw.client.RPop(ctx, utils.EventQueueKey).Result()
		if err == redis.Nil {
			return
		}
		if err != nil {
			nw.logger.Printf("failed to pop notification event: %v", err)
			return
		}

		var event utils.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			nw.logger.Printf("dropping malformed notification event: %v", err)
			continue
		}

		nw.persist(event)
	}
}

func (nw *NotificationWorker) persist(event utils.Event) {
	for _, userID := range event.UserIDs {
		notification := models.Notification{
			UserID:  userID,
			TeamID:  event.TeamID,
			Type:    event.Type,
			Message: event.Message,
		}
		if err := nw.db.Create(&notification).Error; err != nil {
			nw.logger.Printf("failed to persist notification for user %d: %v", userID, err)
		}
	}
}
