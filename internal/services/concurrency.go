package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
)

// CheckToken compares a caller-supplied concurrency token against the
// record's stored token. An empty supplied token skips the check: the etag
// is best-effort protection against lost updates, not a mandatory header.
func CheckToken(rec *models.Presentation, supplied string) error {
	if supplied == "" {
		return nil
	}
	if supplied != rec.ConcurrencyToken {
		return fault.PreconditionFailed("concurrency token mismatch")
	}
	return nil
}

// NextToken derives the record's concurrency token after a mutation. The
// version strictly increases per mutation, so the token can never repeat for
// the same record.
func NextToken(rec *models.Presentation) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", rec.ID, rec.Version, rec.UpdatedAt.UnixNano())))
	return hex.EncodeToString(sum[:])[:32]
}
