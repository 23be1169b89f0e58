// Package identity normalizes externally-supplied identifiers into the
// canonical uuid.UUID type. Parsing happens once, at the boundary of each
// public operation, so everything past it works with typed IDs only.
package identity

import (
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/alex1431999/keyword-monitor/pkg/errors"
)

// Parse converts the string serialization of an entity ID into its canonical
// form. It fails with ErrInvalidIdentifier when the input is not a valid
// serialization.
func Parse(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Newf(
			apperrors.ErrInvalidIdentifier,
			http.StatusBadRequest,
			"%q is not a valid identifier", raw,
		)
	}
	return id, nil
}

// ParseAll resolves every element of raws, failing on the first invalid one.
// Boundaries that accept multiple ID parameters resolve them in one call.
func ParseAll(raws ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raws))
	for _, raw := range raws {
		id, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// New returns a fresh random ID for a newly created entity.
func New() uuid.UUID {
	return uuid.New()
}
