package handlers

import (
	"net/http"

	"careerpath-backend/internal/middleware"
)

type UserHandler struct {
	authService authService
}

func NewUserHandler(authService authService) *UserHandler {
	return &UserHandler{authService: authService}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"created_at": user.CreatedAt,
	})
}
