package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hackforge/models"
	"hackforge/utils"
)

// NotificationController serves the rows the notification worker persisted.
// Plain CRUD; no invariants live here.
type NotificationController struct {
	db     *gorm.DB
	logger *log.Logger
}

func NewNotificationController(db *gorm.DB, logger *log.Logger) *NotificationController {
	return &NotificationController{db: db, logger: logger}
}

func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var notifications []models.Notification
	err := nc.db.WithContext(c.Context()).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error
	if err != nil {
		nc.logger.Printf("failed to list notifications for user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Temporarily unable to load notifications", nil)
	}

	return c.JSON(utils.SuccessResponse(notifications))
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	notificationID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification id", nil)
	}

	result := nc.db.WithContext(c.Context()).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, user.ID).
		Update("read", true)
	if result.Error != nil {
		nc.logger.Printf("failed to mark notification %d read: %v", notificationID, result.Error)
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Temporarily unable to update notification", nil)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Notification not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"read": notificationID}))
}
