package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/seoulmarket/api/internal/domain"
	pfirestore "github.com/seoulmarket/api/internal/platform/firestore"
)

const usersCollection = "users"

type userDocument struct {
	Email        string    `firestore:"email"`
	Username     string    `firestore:"username"`
	PasswordHash string    `firestore:"passwordHash"`
	Role         string    `firestore:"role"`
	Language     string    `firestore:"language,omitempty"`
	PhoneNumber  string    `firestore:"phoneNumber,omitempty"`
	Address      string    `firestore:"address,omitempty"`
	Bio          string    `firestore:"bio,omitempty"`
	UserImg      string    `firestore:"userImg,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// UserRepository persists account profiles in Firestore.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	return &UserRepository{
		base: pfirestore.NewBaseRepository[userDocument](provider, usersCollection, nil),
	}, nil
}

// Insert creates the user document, failing when the ID already exists.
func (r *UserRepository) Insert(ctx context.Context, user domain.User) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	if strings.TrimSpace(user.ID) == "" {
		return errors.New("user id is required")
	}

	ref, err := r.base.DocumentRef(ctx, user.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fromDomainUser(user)); err != nil {
		return pfirestore.WrapError("users.insert", err)
	}
	return nil
}

// Update replaces the user document.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	if strings.TrimSpace(user.ID) == "" {
		return errors.New("user id is required")
	}
	return r.base.Set(ctx, user.ID, fromDomainUser(user))
}

// FindByID loads the user by ID.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(doc.ID, doc.Data), nil
}

// FindByEmail looks up a user by exact email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOneBy(ctx, "email", strings.TrimSpace(strings.ToLower(email)))
}

// FindByUsername looks up a user by exact username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findOneBy(ctx, "username", strings.TrimSpace(username))
}

func (r *UserRepository) findOneBy(ctx context.Context, field, value string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if value == "" {
		return domain.User{}, errors.New("lookup value is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).Limit(1)
	})
	if err != nil {
		return domain.User{}, err
	}
	if len(docs) == 0 {
		return domain.User{}, notFoundError("users." + field)
	}
	return toDomainUser(docs[0].ID, docs[0].Data), nil
}

func fromDomainUser(user domain.User) userDocument {
	return userDocument{
		Email:        strings.TrimSpace(strings.ToLower(user.Email)),
		Username:     strings.TrimSpace(user.Username),
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Language:     user.Language,
		PhoneNumber:  user.PhoneNumber,
		Address:      user.Address,
		Bio:          user.Bio,
		UserImg:      user.UserImg,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toDomainUser(id string, doc userDocument) domain.User {
	role, _ := domain.ParseRole(doc.Role)
	return domain.User{
		ID:           id,
		Email:        doc.Email,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		Role:         role,
		Language:     doc.Language,
		PhoneNumber:  doc.PhoneNumber,
		Address:      doc.Address,
		Bio:          doc.Bio,
		UserImg:      doc.UserImg,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}
