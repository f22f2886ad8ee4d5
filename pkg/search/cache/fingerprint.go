package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"material-search-be/pkg/store"

	"github.com/google/uuid"
)

// Fingerprint is the stable request key: identical (workspace, normalized
// query, mode, filters, maxResults) tuples always hash to the same value.
// Encoding the workspace id makes invalidation tenant-scoped by construction.
func Fingerprint(workspaceId uuid.UUID, normalizedQuery string, mode store.Mode, filters store.Filters, maxResults int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d", workspaceId, normalizedQuery, mode, filters.Canonical(), maxResults)
	return hex.EncodeToString(h.Sum(nil))
}
