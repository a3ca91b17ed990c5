package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/memodeck/memodeck/internal/domain"
)

// Canonical returns the card's content in canonical form: each field
// lowercased with every whitespace run collapsed to a single space,
// the three fields joined by newlines. Two cards that differ only in
// casing, indentation or line endings canonicalize identically.
func Canonical(card domain.Card) string {
	parts := []string{
		canonicalPart(card.Question),
		canonicalPart(card.Answer),
		canonicalPart(card.Context),
	}
	return strings.Join(parts, "\n")
}

func canonicalPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fingerprint returns the hex SHA-256 of the card's canonical content.
// It is the card's identity across syncs: re-importing an unchanged
// card maps to the same fingerprint, an edit produces a new one.
func Fingerprint(card domain.Card) string {
	sum := sha256.Sum256([]byte(Canonical(card)))
	return hex.EncodeToString(sum[:])
}
