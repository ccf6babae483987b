package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"careerpath-backend/internal/middleware"
	"careerpath-backend/internal/models"
)

type dashboardStore interface {
	Stats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
}

type DashboardHandler struct {
	stats dashboardStore
}

func NewDashboardHandler(stats dashboardStore) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if stats.RecentSessions == nil {
		stats.RecentSessions = []*models.ChatSession{}
	}
	writeJSON(w, http.StatusOK, stats)
}
