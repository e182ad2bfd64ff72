package portal

import "strings"

// ResolveLocalizedValue selects the best translation for locale. Keys match
// case-insensitively and a region locale (`es-mx`) falls back to its base
// language (`es`), then to a "default" entry, then to fallback.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		if value, ok := values[candidate]; ok && value != "" {
			return value
		}
	}
	return fallback
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if base, _, found := strings.Cut(locale, "-"); found && base != "" {
		candidates = append(candidates, base)
	}
	return append(candidates, "default")
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(locale)), "_", "-")
}
