package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/repositories"
)

const minPasswordLength = 8

// UserServiceDeps wires the user service dependencies.
type UserServiceDeps struct {
	Users  repositories.UserRepository
	Likes  repositories.LikeRepository
	Tokens TokenIssuer
	Clock  func() time.Time
	IDGen  func() string
	Logger *zap.Logger
}

type userService struct {
	users  repositories.UserRepository
	likes  repositories.LikeRepository
	tokens TokenIssuer
	clock  func() time.Time
	idGen  func() string
	logger *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service requires user repository")
	}
	if deps.Likes == nil {
		return nil, errors.New("user service requires like repository")
	}
	if deps.Tokens == nil {
		return nil, errors.New("user service requires token issuer")
	}
	svc := &userService{
		users:  deps.Users,
		likes:  deps.Likes,
		tokens: deps.Tokens,
		clock:  deps.Clock,
		idGen:  deps.IDGen,
		logger: deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.idGen == nil {
		svc.idGen = defaultIDGenerator
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

// SignUp creates an account together with its empty liked-products document.
func (s *userService) SignUp(ctx context.Context, cmd SignUpCommand) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	username := strings.TrimSpace(cmd.Username)

	if !isValidEmail(email) {
		return domain.User{}, fmt.Errorf("%w: invalid email address", ErrInvalidRequest)
	}
	if username == "" {
		return domain.User{}, fmt.Errorf("%w: username is required", ErrInvalidRequest)
	}
	if err := validatePassword(cmd.Password); err != nil {
		return domain.User{}, err
	}
	if _, ok := domain.ParseRole(string(cmd.Role)); !ok {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, cmd.Role)
	}
	if cmd.PhoneNumber != "" && !isValidPhoneNumber(cmd.PhoneNumber) {
		return domain.User{}, fmt.Errorf("%w: invalid phone number", ErrInvalidRequest)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return domain.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if mapped := mapRepositoryError(err); !errors.Is(mapped, ErrNotFound) {
		return domain.User{}, mapped
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return domain.User{}, fmt.Errorf("%w: username already taken", ErrConflict)
	} else if mapped := mapRepositoryError(err); !errors.Is(mapped, ErrNotFound) {
		return domain.User{}, mapped
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: hash password: %v", ErrStorage, err)
	}

	now := s.clock().UTC()
	user := domain.User{
		ID:           userIDPrefix + s.idGen(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         cmd.Role,
		Language:     cmd.Language,
		PhoneNumber:  cmd.PhoneNumber,
		Address:      cmd.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return domain.User{}, mapRepositoryError(err)
	}

	// Every account starts with an empty liked-products set.
	if err := s.likes.Save(ctx, domain.Like{UserID: user.ID, ProductIDs: []string{}, UpdatedAt: now}); err != nil {
		contextLogger(ctx, s.logger).Warn("initial like document write failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) LogIn(ctx context.Context, cmd LogInCommand) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || cmd.Password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", ErrInvalidRequest)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(mapRepositoryError(err), ErrNotFound) {
			return LoginResult{}, fmt.Errorf("%w: unknown email or wrong password", ErrInvalidCredentials)
		}
		return LoginResult{}, mapRepositoryError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		return LoginResult{}, fmt.Errorf("%w: unknown email or wrong password", ErrInvalidCredentials)
	}

	token, err := s.tokens.IssueToken(user.ID, user.Role, user.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: issue token: %v", ErrStorage, err)
	}

	user.PasswordHash = ""
	return LoginResult{User: user, Token: token}, nil
}

func (s *userService) GetProfile(ctx context.Context, actor Actor, userID string) (domain.User, error) {
	if actor.Role != domain.RoleAdmin && actor.ID != userID {
		return domain.User{}, fmt.Errorf("%w: profile belongs to another user", ErrForbidden)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, mapRepositoryError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (domain.User, error) {
	if cmd.Actor.Role != domain.RoleAdmin && cmd.Actor.ID != cmd.UserID {
		return domain.User{}, fmt.Errorf("%w: profile belongs to another user", ErrForbidden)
	}
	user, err := s.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return domain.User{}, mapRepositoryError(err)
	}

	if cmd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*cmd.Email))
		if !isValidEmail(email) {
			return domain.User{}, fmt.Errorf("%w: invalid email address", ErrInvalidRequest)
		}
		if email != user.Email {
			if _, err := s.users.FindByEmail(ctx, email); err == nil {
				return domain.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
			} else if mapped := mapRepositoryError(err); !errors.Is(mapped, ErrNotFound) {
				return domain.User{}, mapped
			}
			user.Email = email
		}
	}
	if cmd.Username != nil {
		username := strings.TrimSpace(*cmd.Username)
		if username == "" {
			return domain.User{}, fmt.Errorf("%w: username is required", ErrInvalidRequest)
		}
		if username != user.Username {
			if _, err := s.users.FindByUsername(ctx, username); err == nil {
				return domain.User{}, fmt.Errorf("%w: username already taken", ErrConflict)
			} else if mapped := mapRepositoryError(err); !errors.Is(mapped, ErrNotFound) {
				return domain.User{}, mapped
			}
			user.Username = username
		}
	}
	if cmd.Language != nil {
		user.Language = *cmd.Language
	}
	if cmd.PhoneNumber != nil {
		if *cmd.PhoneNumber != "" && !isValidPhoneNumber(*cmd.PhoneNumber) {
			return domain.User{}, fmt.Errorf("%w: invalid phone number", ErrInvalidRequest)
		}
		user.PhoneNumber = *cmd.PhoneNumber
	}
	if cmd.Address != nil {
		user.Address = *cmd.Address
	}
	if cmd.Bio != nil {
		user.Bio = *cmd.Bio
	}
	if cmd.UserImg != nil {
		user.UserImg = *cmd.UserImg
	}
	user.UpdatedAt = s.clock().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, mapRepositoryError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	if cmd.Actor.ID != cmd.UserID {
		return fmt.Errorf("%w: password belongs to another user", ErrForbidden)
	}
	if err := validatePassword(cmd.NewPassword); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.OldPassword)); err != nil {
		return fmt.Errorf("%w: wrong current password", ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", ErrStorage, err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = s.clock().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRequest, minPasswordLength)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: password must mix letters and digits", ErrInvalidRequest)
	}
	return nil
}

func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domainPart := email[at+1:]
	return strings.Contains(domainPart, ".") && !strings.ContainsAny(email, " \t")
}

func isValidPhoneNumber(phone string) bool {
	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '-' || r == '+' || r == ' ':
		default:
			return false
		}
	}
	return digits >= 9 && digits <= 15
}
