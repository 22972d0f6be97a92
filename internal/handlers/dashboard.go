package handlers

import (
	"net/http"

	"github.com/benvon/quizmify/internal/models"
	"github.com/benvon/quizmify/internal/request"
	"go.uber.org/zap"
)

// DashboardHandler serves the signed-in area
type DashboardHandler struct {
	log *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{log: logger}
}

type dashboardView struct {
	Title string
	User  *models.SessionUser
}

// Render shows the dashboard. Routes must be wrapped with middleware.RequireSession.
func (h *DashboardHandler) Render(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	renderPage(w, h.log, "dashboard", dashboardView{Title: "Dashboard | Quizmify", User: user})
}
