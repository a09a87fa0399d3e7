// Package names reduces player display names to a comparable canonical
// form. Every identity-matching step goes through it: two names are match
// candidates iff their normalized forms are equal (exact) or one contains
// the other (fuzzy).
package names

import "strings"

var suffixes = map[string]bool{
	"jr":  true,
	"sr":  true,
	"ii":  true,
	"iii": true,
}

// Normalize lower-cases name, strips everything outside [a-z ], drops a
// trailing generational suffix (Jr., Sr., II, III) and trims. It is pure,
// total and idempotent.
func Normalize(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || r == ' ' {
			b.WriteRune(r)
		}
	}

	fields := strings.Fields(b.String())
	if n := len(fields); n > 1 && suffixes[fields[n-1]] {
		fields = fields[:n-1]
	}
	return strings.Join(fields, " ")
}

// ExactMatch reports whether two names normalize to the same form.
func ExactMatch(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// FuzzyMatch reports whether one normalized name contains the other.
// Equal names also match; callers that care run ExactMatch first.
func FuzzyMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
