package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Tickets        *handlers.TicketsHandler
	RequestTypes   *handlers.RequestTypesHandler
	Seen           *handlers.SeenHandler
	Notifications  *handlers.NotificationsHandler
	Board          *handlers.BoardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Accounts.Register)
	app.Post("/auth/login", cfg.Accounts.Login)

	authed := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())
	authed.Get("/me", cfg.Accounts.Me)
	authed.Put("/me", cfg.Accounts.UpdateMe)
	authed.Post("/me/password", cfg.Accounts.ChangePassword)

	authed.Get("/request-types", cfg.RequestTypes.List)
	authed.Get("/request-types/:id", cfg.RequestTypes.Get)

	authed.Post("/tickets", cfg.Tickets.CreateTicket)
	authed.Get("/tickets", cfg.Tickets.ListTickets)
	authed.Get("/tickets/sections", cfg.Tickets.SectionCounts)
	authed.Get("/tickets/:id", cfg.Tickets.GetTicket)
	authed.Post("/tickets/:id/messages", cfg.Tickets.PostMessage)

	authed.Get("/seen/sections", cfg.Seen.UnreadSections)
	authed.Post("/seen/sections/:section", cfg.Seen.MarkSection)
	authed.Post("/seen/tickets", cfg.Seen.MarkTickets)
	authed.Get("/seen/tickets/new-messages", cfg.Seen.NewMessages)

	authed.Get("/notifications", cfg.Notifications.List)
	authed.Get("/notifications/count", cfg.Notifications.Count)
	authed.Delete("/notifications/:id", cfg.Notifications.MarkRead)
	authed.Post("/notifications/opt-out", cfg.Notifications.OptOut)

	authed.Get("/cost-centers", cfg.Board.ListCostCenters)
	authed.Post("/cost-centers", cfg.Board.CreateCostCenter)
	authed.Post("/cost-centers/:id/members", cfg.Board.AddMember)
	authed.Post("/cost-centers/:id/projects", cfg.Board.CreateProject)
	authed.Post("/cost-centers/:id/tasks", cfg.Board.CreateTask)
	authed.Get("/cost-centers/:id/board", cfg.Board.Board)
	authed.Post("/tasks/:id/move", cfg.Board.MoveTask)

	privileged := app.Group("/ops", cfg.AuthMiddleware.Handle, auth.RequirePrivileged())
	privileged.Post("/tickets/:id/actions", cfg.Tickets.ApplyAction)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequirePrivileged())
	admin.Put("/users/:id", cfg.Accounts.UpdateUser)
	admin.Post("/users/password", cfg.Accounts.SetTemporaryPassword)

	// Taxonomy authoring is reserved for superusers.
	taxonomy := app.Group("/admin/request-types", cfg.AuthMiddleware.Handle, auth.RequireSuperuser())
	taxonomy.Post("", cfg.RequestTypes.Create)
	taxonomy.Put("/:id", cfg.RequestTypes.Update)
}
