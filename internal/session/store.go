package session

import (
	"context"

	"github.com/playrps/rpsroom/internal/model"
)

// Scope separates the two persistence lifetimes the client keeps.
type Scope string

const (
	// ScopeTab holds state that lives only as long as the client session:
	// the room binding, the current code allocation, opponent names.
	ScopeTab Scope = "tab"
	// ScopeDurable holds state that survives across sessions until
	// explicitly cleared: display name, accent preference, score.
	ScopeDurable Scope = "durable"
)

// Store is the persistence boundary for per-client session state. Values
// are opaque blobs keyed by (identity, scope, key).
type Store interface {
	Get(ctx context.Context, id model.ClientID, scope Scope, key string) (string, error)
	Set(ctx context.Context, id model.ClientID, scope Scope, key, value string) error
	Delete(ctx context.Context, id model.ClientID, scope Scope, key string) error
	// ClearScope drops every key in one scope for the identity
	ClearScope(ctx context.Context, id model.ClientID, scope Scope) error
}
