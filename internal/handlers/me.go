package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seoulmarket/api/internal/platform/auth"
	"github.com/seoulmarket/api/internal/services"
)

// MeHandlers exposes the authenticated user's profile endpoints.
type MeHandlers struct {
	authn *auth.Authenticator
	users services.UserService
}

// NewMeHandlers constructs handlers for the current user's profile.
func NewMeHandlers(authn *auth.Authenticator, users services.UserService) *MeHandlers {
	return &MeHandlers{authn: authn, users: users}
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.getProfile)
	r.Patch("/", h.updateProfile)
	r.Put("/password", h.changePassword)
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(ctx, actor, actor.ID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildUserPayload(user))
}

type updateProfileRequest struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	Language    *string `json:"language"`
	PhoneNumber *string `json:"phoneNumber"`
	Address     *string `json:"address"`
	Bio         *string `json:"bio"`
	UserImg     *string `json:"userImg"`
}

func (h *MeHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.UpdateProfile(ctx, services.UpdateProfileCommand{
		Actor:       actor,
		UserID:      actor.ID,
		Email:       req.Email,
		Username:    req.Username,
		Language:    req.Language,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Bio:         req.Bio,
		UserImg:     req.UserImg,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildUserPayload(user))
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *MeHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if err := h.users.ChangePassword(ctx, services.ChangePasswordCommand{
		Actor:       actor,
		UserID:      actor.ID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
