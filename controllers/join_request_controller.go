package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"hackforge/models"
	"hackforge/services"
	"hackforge/utils"
)

type JoinRequestController struct {
	requests *services.JoinRequestService
	logger   *log.Logger
}

func NewJoinRequestController(requests *services.JoinRequestService, logger *log.Logger) *JoinRequestController {
	return &JoinRequestController{requests: requests, logger: logger}
}

type SendJoinRequestRequest struct {
	TeamID uint `json:"team_id" validate:"required"`
}

func (jc *JoinRequestController) SendJoinRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req SendJoinRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	request, err := jc.requests.Send(c.Context(), user, req.TeamID)
	if err != nil {
		return serviceError(c, jc.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(request))
}

func (jc *JoinRequestController) AcceptJoinRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	requestID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request id", nil)
	}

	team, err := jc.requests.Accept(c.Context(), user, requestID)
	if err != nil {
		return serviceError(c, jc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(team))
}

func (jc *JoinRequestController) RejectJoinRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	requestID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request id", nil)
	}

	if err := jc.requests.Reject(c.Context(), user, requestID); err != nil {
		return serviceError(c, jc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"rejected": requestID}))
}

func (jc *JoinRequestController) GetMyJoinRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	requests, err := jc.requests.ListMine(c.Context(), user.ID)
	if err != nil {
		return serviceError(c, jc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(requests))
}

func (jc *JoinRequestController) GetTeamJoinRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}

	requests, err := jc.requests.ListForTeam(c.Context(), user, teamID)
	if err != nil {
		return serviceError(c, jc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(requests))
}
