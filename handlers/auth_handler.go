package handlers

import (
	"net/http"

	"github.com/Dosada05/speech-ballots/middleware"
	"github.com/Dosada05/speech-ballots/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type loginInput struct {
	Password string `json:"password"`
}

// Login godoc
// @Summary Вход администратора
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginInput true "Пароль"
// @Success 200 {object} map[string]interface{} "success, sessionId, expiresAt"
// @Failure 401 {object} map[string]string "Неверный пароль"
// @Failure 429 {object} map[string]string "Слишком много попыток"
// @Router /admin/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, err := h.authService.Login(r.Context(), input.Password)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":   true,
		"sessionId": session.SessionID,
		"expiresAt": session.ExpiresAt,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Logout godoc
// @Summary Выход администратора
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "success"
// @Security AdminSession
// @Router /admin/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := middleware.SessionIDFromRequest(r); sessionID != "" {
		h.authService.Logout(r.Context(), sessionID)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
