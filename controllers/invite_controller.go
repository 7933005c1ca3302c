package controller

import (
	"log"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"

	"hackforge/models"
	"hackforge/services"
	"hackforge/utils"
)

type InviteController struct {
	invites *services.InviteService
	logger  *log.Logger
}

func NewInviteController(invites *services.InviteService, logger *log.Logger) *InviteController {
	return &InviteController{invites: invites, logger: logger}
}

// SendInviteRequest takes either the recipient's id or the email typed into
// the invite form; exactly one must be set.
type SendInviteRequest struct {
	TeamID      uint   `json:"team_id" validate:"required"`
	RecipientID uint   `json:"recipient_id"`
	Email       string `json:"email"`
}

func (ic *InviteController) SendInvite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req SendInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if (req.RecipientID == 0) == (req.Email == "") {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Provide either recipient_id or email", nil)
	}

	recipientID := req.RecipientID
	if recipientID == 0 {
		if err := checkmail.ValidateFormat(req.Email); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
		}
		recipient, err := ic.invites.FindRecipient(c.Context(), user.InstituteID, req.Email)
		if err != nil {
			return serviceError(c, ic.logger, err)
		}
		recipientID = recipient.ID
	}

	invite, err := ic.invites.Send(c.Context(), user, req.TeamID, recipientID)
	if err != nil {
		return serviceError(c, ic.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(invite))
}

func (ic *InviteController) AcceptInvite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	inviteID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid invitation id", nil)
	}

	team, err := ic.invites.Accept(c.Context(), user, inviteID)
	if err != nil {
		return serviceError(c, ic.logger, err)
	}

	return c.JSON(utils.SuccessResponse(team))
}

func (ic *InviteController) DeclineInvite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	inviteID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid invitation id", nil)
	}

	if err := ic.invites.Decline(c.Context(), user, inviteID); err != nil {
		return serviceError(c, ic.logger, err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"declined": inviteID}))
}

func (ic *InviteController) GetMyInvites(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	invites, err := ic.invites.ListForUser(c.Context(), user.ID)
	if err != nil {
		return serviceError(c, ic.logger, err)
	}

	return c.JSON(utils.SuccessResponse(invites))
}

func (ic *InviteController) GetTeamInvites(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}

	invites, err := ic.invites.ListForTeam(c.Context(), user, teamID)
	if err != nil {
		return serviceError(c, ic.logger, err)
	}

	return c.JSON(utils.SuccessResponse(invites))
}
