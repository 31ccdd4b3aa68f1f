package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/repositories"
)

// CategoryServiceDeps wires the category service dependencies.
type CategoryServiceDeps struct {
	Categories repositories.CategoryRepository
	Clock      func() time.Time
	IDGen      func() string
	Logger     *zap.Logger
}

type categoryService struct {
	categories repositories.CategoryRepository
	clock      func() time.Time
	idGen      func() string
	logger     *zap.Logger
}

// NewCategoryService constructs the category service.
func NewCategoryService(deps CategoryServiceDeps) (CategoryService, error) {
	if deps.Categories == nil {
		return nil, errors.New("category service requires category repository")
	}
	svc := &categoryService{
		categories: deps.Categories,
		clock:      deps.Clock,
		idGen:      deps.IDGen,
		logger:     deps.Logger,
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

func (s *categoryService) CreateCategory(ctx context.Context, cmd CategoryCommand) (domain.Category, error) {
	if cmd.Actor.Role != domain.RoleAdmin {
		return domain.Category{}, fmt.Errorf("%w: only admins manage categories", ErrForbidden)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: category name is required", ErrInvalidRequest)
	}
	slug := Slugify(name)
	if slug == "" {
		return domain.Category{}, fmt.Errorf("%w: category name yields an empty slug", ErrInvalidRequest)
	}

	if _, err := s.categories.FindBySlug(ctx, slug); err == nil {
		return domain.Category{}, fmt.Errorf("%w: category %q already exists", ErrConflict, slug)
	} else if mapped := mapRepositoryError(err); !errors.Is(mapped, ErrNotFound) {
		return domain.Category{}, mapped
	}

	now := s.clock().UTC()
	category := domain.Category{
		ID:        categoryIDPrefix + s.idGen(),
		Name:      name,
		Slug:      slug,
		CoverImg:  cmd.CoverImg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.categories.Insert(ctx, category); err != nil {
		return domain.Category{}, mapRepositoryError(err)
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, actor Actor, categoryID string, cmd CategoryCommand) (domain.Category, error) {
	if actor.Role != domain.RoleAdmin {
		return domain.Category{}, fmt.Errorf("%w: only admins manage categories", ErrForbidden)
	}
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return domain.Category{}, mapRepositoryError(err)
	}

	if name := strings.TrimSpace(cmd.Name); name != "" && name != category.Name {
		slug := Slugify(name)
		if slug == "" {
			return domain.Category{}, fmt.Errorf("%w: category name yields an empty slug", ErrInvalidRequest)
		}
		if slug != category.Slug {
			if _, err := s.categories.FindBySlug(ctx, slug); err == nil {
				return domain.Category{}, fmt.Errorf("%w: category %q already exists", ErrConflict, slug)
			} else if mapped := mapRepositoryError(err); !errors.Is(mapped, ErrNotFound) {
				return domain.Category{}, mapped
			}
		}
		category.Name = name
		category.Slug = slug
	}
	if cmd.CoverImg != "" {
		category.CoverImg = cmd.CoverImg
	}
	category.UpdatedAt = s.clock().UTC()

	if err := s.categories.Update(ctx, category); err != nil {
		return domain.Category{}, mapRepositoryError(err)
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, actor Actor, categoryID string) error {
	if actor.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins manage categories", ErrForbidden)
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

func (s *categoryService) FindCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Category{}, mapRepositoryError(err)
	}
	return category, nil
}

// Slugify derives a URL-safe slug from a display name: NFKC normalisation,
// lowercasing, and hyphens for separator runs. Letters outside ASCII survive,
// so Korean category names keep their characters.
func Slugify(name string) string {
	normalised := norm.NFKC.String(strings.TrimSpace(name))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range normalised {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
