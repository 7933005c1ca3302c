package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hackforge/config"
	controller "hackforge/controllers"
	"hackforge/middleware"
	"hackforge/models"
	"hackforge/services"
	"hackforge/utils"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, notifier utils.Notifier, serviceLogger *logrus.Logger) {
	maxTeamSize := config.AppConfig.MaxTeamSize

	teamService := services.NewTeamService(db, notifier, serviceLogger, maxTeamSize)
	inviteService := services.NewInviteService(db, notifier, serviceLogger, maxTeamSize)
	joinRequestService := services.NewJoinRequestService(db, notifier, serviceLogger, maxTeamSize)
	approvalService := services.NewApprovalService(db, notifier, serviceLogger)

	teamController := controller.NewTeamController(teamService, log.New(os.Stdout, "TEAM: ", log.LstdFlags))
	inviteController := controller.NewInviteController(inviteService, log.New(os.Stdout, "INVITE: ", log.LstdFlags))
	joinRequestController := controller.NewJoinRequestController(joinRequestService, log.New(os.Stdout, "JOINREQ: ", log.LstdFlags))
	approvalController := controller.NewApprovalController(approvalService, log.New(os.Stdout, "APPROVAL: ", log.LstdFlags))
	notificationController := controller.NewNotificationController(db, log.New(os.Stdout, "NOTIFY: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Team formation is a student-only surface; coordinators get their own
	// decision group below.
	team := api.Group("/teams", middleware.RequireRole(models.RoleStudent))
	team.Post("/", teamController.CreateTeam)
	team.Get("/my", teamController.GetMyTeam)
	team.Get("/available", teamController.GetAvailableTeams)
	team.Delete("/:id/members/:userId", teamController.RemoveMember)
	team.Post("/:id/leave", teamController.LeaveTeam)
	team.Put("/:id/problem", teamController.SelectProblem)
	team.Put("/:id/progress", teamController.UpdateProgress)

	// Invitation ledger
	invite := api.Group("/invites", middleware.RequireRole(models.RoleStudent))
	invite.Post("/", inviteController.SendInvite)
	invite.Get("/", inviteController.GetMyInvites)
	invite.Post("/:id/accept", inviteController.AcceptInvite)
	invite.Post("/:id/decline", inviteController.DeclineInvite)
	team.Get("/:id/invites", inviteController.GetTeamInvites)

	// Join-request ledger
	joinRequest := api.Group("/join-requests", middleware.RequireRole(models.RoleStudent))
	joinRequest.Post("/", joinRequestController.SendJoinRequest)
	joinRequest.Get("/", joinRequestController.GetMyJoinRequests)
	joinRequest.Post("/:id/accept", joinRequestController.AcceptJoinRequest)
	joinRequest.Post("/:id/reject", joinRequestController.RejectJoinRequest)
	team.Get("/:id/join-requests", joinRequestController.GetTeamJoinRequests)

	// Approval workflow: leader requests, institute coordinator decides
	team.Post("/:id/request-approval", approvalController.RequestApproval)

	spoc := api.Group("/spoc", middleware.RequireRole(models.RoleSPOC))
	spoc.Post("/teams/:id/approve", approvalController.ApproveTeam)
	spoc.Post("/teams/:id/reject", approvalController.RejectTeam)

	// Notifications (poll + mark read)
	notifications := api.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Put("/:id/read", notificationController.MarkRead)
}
