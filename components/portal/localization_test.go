package portal

import "testing"

func TestResolveLocalizedValue(t *testing.T) {
	values := normalizeLocaleMap(map[string]string{"es": "Tareas", "pt_BR": "Tarefas", "default": "Tasks*"})
	cases := []struct {
		locale string
		want   string
	}{
		{"es", "Tareas"},
		{"es-MX", "Tareas"},
		{"pt-br", "Tarefas"},
		{"PT_BR", "Tarefas"},
		{"fr", "Tasks*"},
		{"", "Tasks*"},
	}
	for _, tc := range cases {
		if got := ResolveLocalizedValue(values, tc.locale, "Tasks"); got != tc.want {
			t.Fatalf("locale %q: expected %q, got %q", tc.locale, tc.want, got)
		}
	}
	if got := ResolveLocalizedValue(nil, "es", "Tasks"); got != "Tasks" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
