package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/utils"
	"github.com/securefms/securefms/models"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	user, err := h.services.Admin.CreateUser(ctx, actor, req)
	if err != nil {
		h.writeError(w, r, err, "user provisioning failed")
		return
	}

	utils.WriteJSON(w, user.Summary(), http.StatusCreated)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	userID, err := userIDFromURL(r)
	if err != nil {
		log.Err(err).Msg("invalid user id")
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	user, err := h.services.Admin.UpdateUser(ctx, actor, userID, req)
	if err != nil {
		h.writeError(w, r, err, "user update failed")
		return
	}

	utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	userID, err := userIDFromURL(r)
	if err != nil {
		log.Err(err).Msg("invalid user id")
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.services.Admin.DeleteUser(ctx, actor, userID); err != nil {
		h.writeError(w, r, err, "user deletion failed")
		return
	}

	utils.WriteJSON(w, models.MessageResponse{Message: "user deleted"}, http.StatusOK)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	users, err := h.services.Admin.ListUsers(ctx, actor)
	if err != nil {
		h.writeError(w, r, err, "user listing failed")
		return
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, user.Summary())
	}
	utils.WriteJSON(w, summaries, http.StatusOK)
}

func userIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
