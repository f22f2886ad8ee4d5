package access

import (
	"errors"
	"testing"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/store"

	"github.com/google/uuid"
)

func TestAuthorize(t *testing.T) {
	guard := NewGuard(logger.NewNopLogger())
	wsId := uuid.New()

	tests := []struct {
		name        string
		permissions []string
		mode        store.Mode
		wantErr     bool
	}{
		{name: "quick with read", permissions: []string{"read"}, mode: store.ModeQuick, wantErr: false},
		{name: "quick without read", permissions: nil, mode: store.ModeQuick, wantErr: true},
		{name: "detailed needs generate", permissions: []string{"read"}, mode: store.ModeDetailed, wantErr: true},
		{name: "detailed with both", permissions: []string{"read", "generate"}, mode: store.ModeDetailed, wantErr: false},
		{name: "hybrid needs generate", permissions: []string{"read"}, mode: store.ModeHybrid, wantErr: true},
		{name: "hybrid with both", permissions: []string{"generate", "read"}, mode: store.ModeHybrid, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := guard.Authorize(Claims{
				WorkspaceId: wsId,
				Role:        "member",
				Permissions: tt.permissions,
			}, tt.mode)

			if tt.wantErr {
				if !errors.Is(err, ErrPermissionDenied) {
					t.Fatalf("expected ErrPermissionDenied, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ws.WorkspaceId != wsId {
				t.Errorf("workspace id = %s, want %s", ws.WorkspaceId, wsId)
			}
			for _, p := range tt.permissions {
				if !ws.Has(p) {
					t.Errorf("expected context to carry permission %q", p)
				}
			}
		})
	}
}

func TestFilterForeign(t *testing.T) {
	guard := NewGuard(logger.NewNopLogger())
	mine := uuid.New()
	other := uuid.New()

	ws, err := guard.Authorize(Claims{WorkspaceId: mine, Permissions: []string{"read"}}, store.ModeQuick)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}

	bySource := map[store.Backend][]store.RetrievalResult{
		store.BackendChunk: {
			{Id: "a", Backend: store.BackendChunk, WorkspaceId: mine},
			{Id: "b", Backend: store.BackendChunk, WorkspaceId: other},
			{Id: "c", Backend: store.BackendChunk, WorkspaceId: mine},
		},
		store.BackendKeyword: {
			{Id: "d", Backend: store.BackendKeyword, WorkspaceId: other},
		},
	}

	filtered := guard.FilterForeign(ws, bySource)

	if got := len(filtered[store.BackendChunk]); got != 2 {
		t.Errorf("chunk results = %d, want 2", got)
	}
	for _, res := range filtered[store.BackendChunk] {
		if res.WorkspaceId != mine {
			t.Errorf("foreign result %s survived filtering", res.Id)
		}
	}
	if got := len(filtered[store.BackendKeyword]); got != 0 {
		t.Errorf("keyword results = %d, want 0", got)
	}
}
