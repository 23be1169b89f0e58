// Package index owns the index entity: a named, typed basket of keywords
// shared between users, modeled after stock-market indexes. Membership uses
// the same reference-counted soft-delete discipline as keywords, keyed on
// users only.
package index

import (
	"github.com/google/uuid"
)

// Type classifies an index.
type Type string

const (
	TypeCompany     Type = "COMPANY"
	TypeCompetition Type = "COMPETITION"
	TypeBranch      Type = "BRANCH"
	TypeMarket      Type = "MARKET"
)

// Types is the fixed enumeration of index types.
var Types = []Type{TypeCompany, TypeCompetition, TypeBranch, TypeMarket}

// Valid reports whether t is in the fixed enumeration.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Index is a named basket of keywords with its user memberships.
type Index struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Type    Type      `json:"index_type"`
	Users   []string  `json:"users"`
	Deleted bool      `json:"deleted"`
}
