package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"hackforge/models"
	"hackforge/services"
	"hackforge/utils"
)

type ApprovalController struct {
	approvals *services.ApprovalService
	logger    *log.Logger
}

func NewApprovalController(approvals *services.ApprovalService, logger *log.Logger) *ApprovalController {
	return &ApprovalController{approvals: approvals, logger: logger}
}

type DecisionRequest struct {
	Notes string `json:"notes"`
}

func (ac *ApprovalController) RequestApproval(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}

	team, err := ac.approvals.Request(c.Context(), user, teamID)
	if err != nil {
		return serviceError(c, ac.logger, err)
	}

	return c.JSON(utils.SuccessResponse(team))
}

func (ac *ApprovalController) ApproveTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}

	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	team, err := ac.approvals.Approve(c.Context(), user, teamID, req.Notes)
	if err != nil {
		return serviceError(c, ac.logger, err)
	}

	return c.JSON(utils.SuccessResponse(team))
}

func (ac *ApprovalController) RejectTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}

	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	team, err := ac.approvals.Reject(c.Context(), user, teamID, req.Notes)
	if err != nil {
		return serviceError(c, ac.logger, err)
	}

	return c.JSON(utils.SuccessResponse(team))
}
