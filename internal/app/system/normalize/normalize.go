// Package normalize trims and case-folds user-entered values before they are
// stored or compared.
package normalize

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status trims and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// ObjectID parses a hex id. "" and "all" (any case) yield (NilObjectID, false).
func ObjectID(s string) (primitive.ObjectID, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// Slug folds s to a URL-safe slug ("Acme Print Co." -> "acme-print-co").
// fallback is returned when nothing usable remains.
func Slug(s, fallback string) string {
	out := strings.Trim(nonSlug.ReplaceAllString(text.Fold(s), "-"), "-")
	if out == "" {
		return fallback
	}
	return out
}
