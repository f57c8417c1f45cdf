// Package slug builds URL-safe slugs for organizations and animals.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// idSuffixLen is how many characters of the entity ID's random portion are
// appended to keep slugs unique without making them unwieldy.
const idSuffixLen = 8

// stripper removes diacritics: NFD decomposition, drop combining marks, NFC recomposition.
var stripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make normalizes the given parts into a single URL-safe slug.
// Diacritics are stripped, everything non-alphanumeric collapses to hyphens.
func Make(parts ...string) string {
	var b strings.Builder

	for _, part := range parts {
		if part == "" {
			continue
		}
		normalized, _, err := transform.String(stripper, part)
		if err != nil {
			normalized = part
		}
		for _, r := range strings.ToLower(normalized) {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				b.WriteRune(r)
			default:
				b.WriteByte('-')
			}
		}
		b.WriteByte('-')
	}

	// Collapse runs of hyphens and trim the edges.
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}

// ForOrganization builds a slug from an organization name and its ID.
func ForOrganization(name, orgID string) string {
	return Make(name, idSuffix(orgID))
}

// ForAnimal builds a slug from an animal's name, breed, and ID.
func ForAnimal(name, breed, animalID string) string {
	return Make(name, breed, idSuffix(animalID))
}

// idSuffix extracts a short unique tail from a prefixed nanoid
// (e.g. "animal-V1StGXR8_Z5jdHi6B-myT" -> "v1stgxr8").
func idSuffix(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 && i+1 < len(id) {
		id = id[i+1:]
	}
	if len(id) > idSuffixLen {
		id = id[:idSuffixLen]
	}
	return id
}
