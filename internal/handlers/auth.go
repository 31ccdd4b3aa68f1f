package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/services"
)

// AuthHandlers exposes the public account endpoints.
type AuthHandlers struct {
	users services.UserService
}

// NewAuthHandlers constructs the signup and login handlers.
func NewAuthHandlers(users services.UserService) *AuthHandlers {
	return &AuthHandlers{users: users}
}

// Routes wires the /auth endpoints onto the provided router.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/signup", h.signUp)
	r.Post("/login", h.logIn)
}

type signUpRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Language    string `json:"language"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	Language    string `json:"language,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
	Bio         string `json:"bio,omitempty"`
	UserImg     string `json:"userImg,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func buildUserPayload(user domain.User) userPayload {
	return userPayload{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Role:        string(user.Role),
		Language:    user.Language,
		PhoneNumber: user.PhoneNumber,
		Address:     user.Address,
		Bio:         user.Bio,
		UserImg:     user.UserImg,
		CreatedAt:   formatTime(user.CreatedAt),
		UpdatedAt:   formatTime(user.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (h *AuthHandlers) signUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signUpRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.SignUp(ctx, services.SignUpCommand{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		Role:        domain.Role(req.Role),
		Language:    req.Language,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeObjectResponse(w, http.StatusCreated, buildUserPayload(user))
}

type logInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logInPayload struct {
	User  userPayload `json:"user"`
	Token string      `json:"token"`
}

func (h *AuthHandlers) logIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req logInRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	result, err := h.users.LogIn(ctx, services.LogInCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeObjectResponse(w, http.StatusOK, logInPayload{
		User:  buildUserPayload(result.User),
		Token: result.Token,
	})
}
