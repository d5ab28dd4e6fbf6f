package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Tickets       *handlers.TicketsHandler
	StaffTickets  *handlers.StaffTicketsHandler
	Staff         *handlers.StaffHandler
	Notifications *handlers.NotificationsHandler
	Knowledge     *handlers.KnowledgeHandler
	Triage        *handlers.TriageHandler
}

// RegisterRoutes mounts all endpoints.
func RegisterRoutes(app *fiber.App, tokens *auth.TokenManager, h Handlers) {
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/health/stats", h.Health.Stats)

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/staff/login", h.Auth.StaffLogin)
	authGroup.Post("/password-reset", h.Auth.RequestPasswordReset)
	authGroup.Post("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
	authGroup.Post("/password", auth.RequireAuth(tokens), h.Auth.ChangePassword)

	// customer endpoints
	tickets := v1.Group("/tickets", auth.RequireAuth(tokens), auth.RequireSubject(domain.SubjectTypeUser))
	tickets.Post("/", h.Tickets.Create)
	tickets.Get("/", h.Tickets.List)
	tickets.Get("/:id", h.Tickets.Get)
	tickets.Get("/:id/messages", h.Tickets.Messages)
	tickets.Post("/:id/messages", h.Tickets.AddMessage)
	tickets.Post("/:id/close", h.Tickets.Close)

	// staff endpoints
	staff := v1.Group("/staff", auth.RequireAuth(tokens), auth.RequireSubject(domain.SubjectTypeStaff))

	staffTickets := staff.Group("/tickets")
	staffTickets.Get("/", h.StaffTickets.List)
	staffTickets.Get("/:id", h.StaffTickets.Get)
	staffTickets.Get("/:id/messages", h.StaffTickets.Messages)
	staffTickets.Post("/:id/messages", h.StaffTickets.AddMessage)
	staffTickets.Post("/:id/messages/read", h.StaffTickets.MarkMessagesRead)
	staffTickets.Patch("/:id/status", h.StaffTickets.UpdateStatus)
	staffTickets.Patch("/:id/priority", h.StaffTickets.UpdatePriority)
	staffTickets.Post("/:id/assign",
		auth.RequireRole(domain.StaffRoleTeamLead, domain.StaffRoleAdmin), h.StaffTickets.Assign)
	staffTickets.Get("/:id/history", h.StaffTickets.History)

	notifications := staff.Group("/notifications")
	notifications.Get("/", h.Notifications.List)
	notifications.Post("/:id/read", h.Notifications.MarkRead)

	knowledge := staff.Group("/knowledge")
	knowledge.Post("/", auth.RequireRole(domain.StaffRoleTeamLead, domain.StaffRoleAdmin), h.Knowledge.Ingest)
	knowledge.Get("/", h.Knowledge.List)
	knowledge.Post("/search", h.Knowledge.Search)

	staff.Get("/triage/jobs/:messageID", h.Triage.JobForMessage)

	members := staff.Group("/members", auth.RequireRole(domain.StaffRoleAdmin))
	members.Post("/", h.Staff.Create)
	members.Get("/", h.Staff.List)
	members.Post("/:id/deactivate", h.Staff.Deactivate)

	teams := staff.Group("/teams")
	teams.Post("/", auth.RequireRole(domain.StaffRoleAdmin), h.Staff.CreateTeam)
	teams.Get("/", h.Staff.ListTeams)

	orgs := v1.Group("/organizations", auth.RequireAuth(tokens))
	orgs.Post("/",
		auth.RequireSubject(domain.SubjectTypeStaff), auth.RequireRole(domain.StaffRoleAdmin),
		h.Staff.CreateOrganization)
	orgs.Get("/", h.Staff.ListOrganizations)
}
