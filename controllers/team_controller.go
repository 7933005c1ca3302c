package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"hackforge/models"
	"hackforge/services"
	"hackforge/utils"
)

type TeamController struct {
	teams  *services.TeamService
	logger *log.Logger
}

func NewTeamController(teams *services.TeamService, logger *log.Logger) *TeamController {
	return &TeamController{teams: teams, logger: logger}
}

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,min=3,max=64"`
}

type UpdateProgressRequest struct {
	ProgressPct int `json:"progress_pct" validate:"min=0,max=100"`
}

type SelectProblemRequest struct {
	ProblemID uint `json:"problem_id" validate:"required"`
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	team, err := tc.teams.Create(c.Context(), user, req.Name)
	if err != nil {
		return serviceError(c, tc.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) GetMyTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, err := tc.teams.MyTeam(c.Context(), user.ID)
	if err != nil {
		return serviceError(c, tc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) GetAvailableTeams(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teams, err := tc.teams.AvailableTeams(c.Context(), user.InstituteID)
	if err != nil {
		return serviceError(c, tc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(teams))
}

func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}
	memberID, err := utils.ParseUint(c.Params("userId"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", nil)
	}

	if err := tc.teams.RemoveMember(c.Context(), user, teamID, memberID); err != nil {
		return serviceError(c, tc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"removed": memberID}))
}

func (tc *TeamController) LeaveTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}

	if err := tc.teams.Leave(c.Context(), user, teamID); err != nil {
		return serviceError(c, tc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"left": teamID}))
}

func (tc *TeamController) SelectProblem(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}

	var req SelectProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	team, err := tc.teams.SelectProblem(c.Context(), user, teamID, req.ProblemID)
	if err != nil {
		return serviceError(c, tc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) UpdateProgress(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	teamID, err := utils.ParseUint(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid team id", nil)
	}

	var req UpdateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	team, err := tc.teams.UpdateProgress(c.Context(), user, teamID, req.ProgressPct)
	if err != nil {
		return serviceError(c, tc.logger, err)
	}

	return c.JSON(utils.SuccessResponse(team))
}
