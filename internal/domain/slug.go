package domain

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Slugify lowercases the name and collapses anything that is not a letter or
// digit into single dashes. Callers truncate via UniqueSlug's base.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// UniqueSlug probes base, base-1, base-2, ... until exists reports a free
// slug. Slugs are generated once at creation and never regenerated on rename.
func UniqueSlug(ctx context.Context, name string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := Slugify(name)
	if len(base) > 200 {
		base = base[:200]
	}
	if base == "" {
		base = "item"
	}
	slug := base
	for n := 1; ; n++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}
