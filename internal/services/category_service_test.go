package services

import (
	"context"
	"errors"
	"testing"

	"github.com/seoulmarket/api/internal/domain"
)

func newTestCategoryService(t *testing.T, deps CategoryServiceDeps) CategoryService {
	t.Helper()
	if deps.Categories == nil {
		deps.Categories = &stubCategoryRepository{}
	}
	if deps.Clock == nil {
		deps.Clock = testClock
	}
	if deps.IDGen == nil {
		deps.IDGen = sequentialIDs()
	}
	svc, err := NewCategoryService(deps)
	if err != nil {
		t.Fatalf("NewCategoryService: %v", err)
	}
	return svc
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kitchen & Dining", "kitchen-dining"},
		{"  Hand-made Ceramics  ", "hand-made-ceramics"},
		{"ＣＯＦＦＥＥ", "coffee"},
		{"전통 공예", "전통-공예"},
		{"!!!", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateCategoryAdminOnly(t *testing.T) {
	svc := newTestCategoryService(t, CategoryServiceDeps{})

	for _, role := range []domain.Role{domain.RoleConsumer, domain.RoleProvider} {
		if _, err := svc.CreateCategory(context.Background(), CategoryCommand{
			Actor: Actor{ID: "usr_x", Role: role},
			Name:  "Ceramics",
		}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("role %s create error = %v, want ErrForbidden", role, err)
		}
	}
}

func TestCreateCategory(t *testing.T) {
	var inserted domain.Category
	categories := &stubCategoryRepository{
		insertFn: func(ctx context.Context, category domain.Category) error {
			inserted = category
			return nil
		},
	}
	svc := newTestCategoryService(t, CategoryServiceDeps{Categories: categories})

	category, err := svc.CreateCategory(context.Background(), CategoryCommand{
		Actor: Actor{ID: "usr_admin", Role: domain.RoleAdmin},
		Name:  "Kitchen & Dining",
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if category.Slug != "kitchen-dining" {
		t.Fatalf("slug = %q, want kitchen-dining", category.Slug)
	}
	if inserted.ID == "" || inserted.Name != "Kitchen & Dining" {
		t.Fatalf("inserted = %+v", inserted)
	}
}

func TestCreateCategoryDuplicateSlug(t *testing.T) {
	categories := &stubCategoryRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Category, error) {
			if slug == "ceramics" {
				return domain.Category{ID: "cat_existing", Slug: slug}, nil
			}
			return domain.Category{}, errStubNotFound
		},
	}
	svc := newTestCategoryService(t, CategoryServiceDeps{Categories: categories})

	if _, err := svc.CreateCategory(context.Background(), CategoryCommand{
		Actor: Actor{ID: "usr_admin", Role: domain.RoleAdmin},
		Name:  "Ceramics",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate slug error = %v, want ErrConflict", err)
	}
}

func TestListCategoriesNeverNil(t *testing.T) {
	svc := newTestCategoryService(t, CategoryServiceDeps{})

	categories, err := svc.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if categories == nil {
		t.Fatal("categories must be an empty slice, not nil")
	}
}
