package portal

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterWidgetsDropsDisallowedDanglingAndDuplicates(t *testing.T) {
	catalog := NewCatalog()
	access := AccessOverrides{RoleStaff: {"tasks": false}}
	in := []WidgetInstance{
		{ID: "payslip", Order: 5, Size: SizeSmall, Visible: true},
		{ID: "tasks", Order: 1, Size: SizeLarge, Visible: true},
		{ID: "invoices", Order: 2, Size: SizeLarge, Visible: true},
		{ID: "gone", Order: 3, Size: SizeSmall, Visible: true},
		{ID: "quick-stats", Order: 0, Size: "huge", Visible: false},
		{ID: "payslip", Order: 9, Size: SizeLarge, Visible: true},
	}
	got := FilterWidgets(catalog, RoleStaff, access, in)
	want := []WidgetInstance{
		{ID: "quick-stats", Order: 0, Size: SizeFull, Visible: false},
		{ID: "payslip", Order: 1, Size: SizeSmall, Visible: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected filter result (-want +got):\n%s", diff)
	}
}

func TestFilterWidgetsIdempotent(t *testing.T) {
	catalog := NewCatalog()
	metas := catalog.Widgets()
	sizes := []WidgetSize{SizeSmall, SizeMedium, SizeLarge, SizeFull, "bogus"}
	rng := rand.New(rand.NewPCG(7, 11))

	for iter := 0; iter < 200; iter++ {
		role := allRoles[rng.IntN(len(allRoles))]
		access := AccessOverrides{}
		for _, r := range allRoles {
			access[r] = map[string]bool{}
			for _, meta := range metas {
				if rng.IntN(5) == 0 {
					access[r][meta.ID] = rng.IntN(2) == 0
				}
			}
		}
		n := rng.IntN(20)
		widgets := make([]WidgetInstance, n)
		for i := range widgets {
			id := "missing"
			if rng.IntN(6) != 0 {
				id = metas[rng.IntN(len(metas))].ID
			}
			widgets[i] = WidgetInstance{
				ID:      id,
				Order:   rng.IntN(10) - 2,
				Size:    sizes[rng.IntN(len(sizes))],
				Visible: rng.IntN(2) == 0,
			}
		}
		once := FilterWidgets(catalog, role, access, widgets)
		twice := FilterWidgets(catalog, role, access, once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("filter not idempotent for %s (-once +twice):\n%s", role, diff)
		}
		for i, w := range once {
			if w.Order != i {
				t.Fatalf("expected dense orders, got %v", once)
			}
			if !access.IsEnabled(w.ID, role) {
				t.Fatalf("restricted widget %s survived filter for %s", w.ID, role)
			}
		}
	}
}

func TestSpliceMove(t *testing.T) {
	widgets := []WidgetInstance{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	cases := []struct {
		name  string
		src   string
		dst   string
		want  []string
		moved bool
	}{
		{name: "forward", src: "a", dst: "c", want: []string{"b", "c", "a", "d"}, moved: true},
		{name: "backward", src: "d", dst: "b", want: []string{"a", "d", "b", "c"}, moved: true},
		{name: "adjacent", src: "b", dst: "c", want: []string{"a", "c", "b", "d"}, moved: true},
		{name: "same", src: "b", dst: "b", want: []string{"a", "b", "c", "d"}},
		{name: "unknown", src: "x", dst: "b", want: []string{"a", "b", "c", "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, moved := spliceMove(widgets, tc.src, tc.dst)
			if moved != tc.moved {
				t.Fatalf("expected moved=%v, got %v", tc.moved, moved)
			}
			if diff := cmp.Diff(tc.want, ids(got)); diff != "" {
				t.Fatalf("unexpected order (-want +got):\n%s", diff)
			}
		})
	}
	if ids(widgets)[0] != "a" {
		t.Fatalf("spliceMove mutated its input: %v", ids(widgets))
	}
}
