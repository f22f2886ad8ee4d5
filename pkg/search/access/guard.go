package access

import (
	"errors"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/store"

	"github.com/google/uuid"
)

// ErrPermissionDenied is returned when the verified claims do not satisfy the
// permission set required by the requested mode. The check runs before any
// backend dispatch; a denied request does no partial work.
var ErrPermissionDenied = errors.New("permission denied for requested mode")

// Permission names as they appear in the verified claim bundle.
const (
	PermissionRead     = "read"
	PermissionGenerate = "generate"
)

// Claims is the already-verified claim bundle produced by the JWT layer.
// Signature verification happens outside the engine.
type Claims struct {
	WorkspaceId uuid.UUID
	Role        string
	Permissions []string
}

// WorkspaceContext is the tenant scope for one request. It is immutable for
// the request lifetime.
type WorkspaceContext struct {
	WorkspaceId uuid.UUID
	Role        string
	permissions map[string]bool
}

// Has reports whether the context carries the given permission.
func (w WorkspaceContext) Has(permission string) bool {
	return w.permissions[permission]
}

// Guard resolves workspace scope from claims and enforces mode permissions.
type Guard struct {
	required map[store.Mode][]string
	logger   logger.ILogger
}

func NewGuard(log logger.ILogger) *Guard {
	return &Guard{
		// quick is read-only; detailed and hybrid invoke the generation
		// collaborator and therefore also need "generate".
		required: map[store.Mode][]string{
			store.ModeQuick:    {PermissionRead},
			store.ModeDetailed: {PermissionRead, PermissionGenerate},
			store.ModeHybrid:   {PermissionRead, PermissionGenerate},
		},
		logger: log,
	}
}

// Authorize maps the requested mode to its minimum permission set and fails
// fast when the claims fall short.
func (g *Guard) Authorize(claims Claims, mode store.Mode) (WorkspaceContext, error) {
	perms := make(map[string]bool, len(claims.Permissions))
	for _, p := range claims.Permissions {
		perms[p] = true
	}

	ws := WorkspaceContext{
		WorkspaceId: claims.WorkspaceId,
		Role:        claims.Role,
		permissions: perms,
	}

	for _, need := range g.required[mode] {
		if !perms[need] {
			g.logger.Warn("access", "Mode permission check failed", map[string]interface{}{
				"workspace_id": claims.WorkspaceId.String(),
				"mode":         string(mode),
				"missing":      need,
			})
			return WorkspaceContext{}, ErrPermissionDenied
		}
	}

	return ws, nil
}

// FilterForeign drops any result whose workspace does not match the
// requester's. Storage-level isolation should make this a no-op; the engine
// still checks every result re-entering the pipeline and logs mismatches
// instead of propagating them.
func (g *Guard) FilterForeign(ws WorkspaceContext, bySource map[store.Backend][]store.RetrievalResult) map[store.Backend][]store.RetrievalResult {
	filtered := make(map[store.Backend][]store.RetrievalResult, len(bySource))
	for backend, results := range bySource {
		kept := make([]store.RetrievalResult, 0, len(results))
		for _, res := range results {
			if res.WorkspaceId != ws.WorkspaceId {
				g.logger.Warn("access", "Dropped result from foreign workspace", map[string]interface{}{
					"backend":          string(backend),
					"result_id":        res.Id,
					"result_workspace": res.WorkspaceId.String(),
					"workspace_id":     ws.WorkspaceId.String(),
				})
				continue
			}
			kept = append(kept, res)
		}
		filtered[backend] = kept
	}
	return filtered
}
