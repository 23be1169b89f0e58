// Package keyword owns the keyword entity and its many-to-many relationships
// to users and indexes. Keywords are never hard-deleted: membership is
// reference counted and the deleted flag derives from it.
package keyword

import (
	"github.com/google/uuid"
)

// SupportedLanguages is the fixed set of languages a keyword may be tracked
// in. Extending it is a data-model change, not configuration.
var SupportedLanguages = []string{"zh", "en", "fr", "de", "it", "ja", "ko", "pt", "es"}

// IsSupportedLanguage reports whether language is in the supported set.
func IsSupportedLanguage(language string) bool {
	for _, l := range SupportedLanguages {
		if l == language {
			return true
		}
	}
	return false
}

// Keyword is a tracked keyword together with its memberships.
//
// Deleted is a cached flag: true iff both membership sets are empty. It is
// recomputed and persisted on every membership change, not maintained
// transactionally with it.
type Keyword struct {
	ID            uuid.UUID   `json:"id"`
	KeywordString string      `json:"keyword_string"`
	Language      string      `json:"language"`
	Users         []string    `json:"users"`
	Indexes       []uuid.UUID `json:"indexes"`
	Deleted       bool        `json:"deleted"`
}
