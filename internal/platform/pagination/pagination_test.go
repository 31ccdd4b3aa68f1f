package pagination

import "testing"

func intPtr(v int) *int { return &v }

func TestCompute(t *testing.T) {
	cases := []struct {
		name     string
		page     int
		pageSize int
		total    int64
		want     Result
	}{
		{
			name:     "middle page",
			page:     2,
			pageSize: 10,
			total:    25,
			want: Result{
				TotalPages: 3,
				HasNext:    true,
				NextPage:   intPtr(3),
				HasPrev:    true,
				PrevPage:   intPtr(1),
				ShownCount: 20,
			},
		},
		{
			name:     "first page",
			page:     1,
			pageSize: 10,
			total:    25,
			want: Result{
				TotalPages: 3,
				HasNext:    true,
				NextPage:   intPtr(2),
				HasPrev:    false,
				ShownCount: 10,
			},
		},
		{
			name:     "last page partial",
			page:     3,
			pageSize: 10,
			total:    25,
			want: Result{
				TotalPages: 3,
				HasNext:    false,
				HasPrev:    true,
				PrevPage:   intPtr(2),
				ShownCount: 25,
			},
		},
		{
			name:     "exact multiple",
			page:     2,
			pageSize: 10,
			total:    20,
			want: Result{
				TotalPages: 2,
				HasNext:    false,
				HasPrev:    true,
				PrevPage:   intPtr(1),
				ShownCount: 20,
			},
		},
		{
			name:     "empty result set",
			page:     1,
			pageSize: 10,
			total:    0,
			want: Result{
				TotalPages: 0,
				HasNext:    false,
				HasPrev:    false,
				ShownCount: 0,
			},
		},
		{
			name:     "single short page",
			page:     1,
			pageSize: 8,
			total:    5,
			want: Result{
				TotalPages: 1,
				HasNext:    false,
				HasPrev:    false,
				ShownCount: 5,
			},
		},
		{
			name:     "page beyond range",
			page:     5,
			pageSize: 10,
			total:    25,
			want: Result{
				TotalPages: 3,
				HasNext:    false,
				HasPrev:    true,
				PrevPage:   intPtr(4),
				ShownCount: 25,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.page, tc.pageSize, tc.total)
			if got.TotalPages != tc.want.TotalPages {
				t.Fatalf("TotalPages = %d, want %d", got.TotalPages, tc.want.TotalPages)
			}
			if got.HasNext != tc.want.HasNext {
				t.Fatalf("HasNext = %v, want %v", got.HasNext, tc.want.HasNext)
			}
			if got.HasPrev != tc.want.HasPrev {
				t.Fatalf("HasPrev = %v, want %v", got.HasPrev, tc.want.HasPrev)
			}
			if !equalIntPtr(got.NextPage, tc.want.NextPage) {
				t.Fatalf("NextPage = %v, want %v", fmtIntPtr(got.NextPage), fmtIntPtr(tc.want.NextPage))
			}
			if !equalIntPtr(got.PrevPage, tc.want.PrevPage) {
				t.Fatalf("PrevPage = %v, want %v", fmtIntPtr(got.PrevPage), fmtIntPtr(tc.want.PrevPage))
			}
			if got.ShownCount != tc.want.ShownCount {
				t.Fatalf("ShownCount = %d, want %d", got.ShownCount, tc.want.ShownCount)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 10); got != 0 {
		t.Fatalf("Offset(1, 10) = %d, want 0", got)
	}
	if got := Offset(3, 10); got != 20 {
		t.Fatalf("Offset(3, 10) = %d, want 20", got)
	}
	if got := Offset(0, 10); got != 0 {
		t.Fatalf("Offset(0, 10) = %d, want 0", got)
	}
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtIntPtr(v *int) any {
	if v == nil {
		return "<nil>"
	}
	return *v
}
