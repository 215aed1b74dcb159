package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/playrps/rpsroom/internal/dependencies/random"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/services/roomcode"
)

// Session keys within each scope
const (
	keyContext     = "context"     // tab: serialized ClientContext
	keyAllocation  = "allocation"  // tab: current room code allocation
	keyDisplayName = "display_name" // durable
	keyAccent      = "accent"      // durable: theme preference
	keyScore       = "score"       // durable: serialized Score blob
)

// Manager binds a local client identity to its session state: display
// name, room/role binding, code allocation, score and preferences. All
// room-binding state is tab-scoped so it does not outlive the session;
// score and preferences are durable.
type Manager struct {
	store  Store
	random random.Random
	logger *slog.Logger
}

// NewManager creates a new session Manager
func NewManager(store Store, random random.Random, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		random: random,
		logger: logger.With(slog.String("component", "session")),
	}
}

// StartSession mints a fresh client identity with a generated display
// name. Called once per client at first load.
func (m *Manager) StartSession(ctx context.Context) (*model.ClientContext, error) {
	cctx := &model.ClientContext{
		Identity:    model.ClientID(uuid.NewString()),
		DisplayName: fmt.Sprintf("Guest-%d", m.random.Intn(1000)),
	}
	if err := m.Save(ctx, cctx); err != nil {
		return nil, err
	}
	if err := m.store.Set(ctx, cctx.Identity, ScopeDurable, keyDisplayName, cctx.DisplayName); err != nil {
		return nil, err
	}
	m.logger.Info("session started", slog.String("identity", string(cctx.Identity)))
	return cctx, nil
}

// Load returns the client context for an identity. A missing tab-scope
// context (fresh tab, expired session) is rebuilt from durable state
// rather than treated as an error, so a reload resumes cleanly.
func (m *Manager) Load(ctx context.Context, id model.ClientID) (*model.ClientContext, error) {
	if id == "" {
		return nil, model.ErrNotAuthenticated
	}

	raw, err := m.store.Get(ctx, id, ScopeTab, keyContext)
	if err == nil {
		var cctx model.ClientContext
		if jsonErr := json.Unmarshal([]byte(raw), &cctx); jsonErr == nil {
			return &cctx, nil
		}
		// Fall through and rebuild on a corrupt blob
	} else if !errors.Is(err, model.ErrSessionNotFound) {
		return nil, err
	}

	cctx := &model.ClientContext{Identity: id}
	if name, err := m.store.Get(ctx, id, ScopeDurable, keyDisplayName); err == nil {
		cctx.DisplayName = name
	} else {
		cctx.DisplayName = fmt.Sprintf("Guest-%d", m.random.Intn(1000))
	}
	return cctx, nil
}

// Save persists the context into the tab scope
func (m *Manager) Save(ctx context.Context, cctx *model.ClientContext) error {
	data, err := json.Marshal(cctx)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, cctx.Identity, ScopeTab, keyContext, string(data))
}

// BindRoom records the room/slot the client occupies and persists it, so a
// reload re-enters the same room rather than re-joining
func (m *Manager) BindRoom(ctx context.Context, cctx *model.ClientContext, code model.RoomCode, role model.Slot, opponent string) error {
	cctx.RoomCode = code
	cctx.Role = role
	cctx.OpponentName = opponent
	return m.Save(ctx, cctx)
}

// ClearRoomBinding drops the room binding, keeping identity and name
func (m *Manager) ClearRoomBinding(ctx context.Context, cctx *model.ClientContext) error {
	cctx.RoomCode = ""
	cctx.Role = ""
	cctx.OpponentName = ""
	return m.Save(ctx, cctx)
}

// EndSession clears all tab-scoped state for the identity. Durable state
// (display name, score, preferences) survives.
func (m *Manager) EndSession(ctx context.Context, id model.ClientID) error {
	return m.store.ClearScope(ctx, id, ScopeTab)
}

// Code allocation persistence

// LoadAllocation returns the client's current code allocation, or nil when
// none is stored
func (m *Manager) LoadAllocation(ctx context.Context, id model.ClientID) (*roomcode.Allocation, error) {
	raw, err := m.store.Get(ctx, id, ScopeTab, keyAllocation)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var alloc roomcode.Allocation
	if err := json.Unmarshal([]byte(raw), &alloc); err != nil {
		return nil, nil
	}
	return &alloc, nil
}

// SaveAllocation persists the client's code allocation
func (m *Manager) SaveAllocation(ctx context.Context, id model.ClientID, alloc roomcode.Allocation) error {
	data, err := json.Marshal(alloc)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, id, ScopeTab, keyAllocation, string(data))
}

// Display name and preferences

// SetDisplayName updates the durable display name
func (m *Manager) SetDisplayName(ctx context.Context, cctx *model.ClientContext, name string) error {
	cctx.DisplayName = name
	if err := m.store.Set(ctx, cctx.Identity, ScopeDurable, keyDisplayName, name); err != nil {
		return err
	}
	return m.Save(ctx, cctx)
}

// SetAccent stores the durable theme/accent preference
func (m *Manager) SetAccent(ctx context.Context, id model.ClientID, accent string) error {
	return m.store.Set(ctx, id, ScopeDurable, keyAccent, accent)
}

// Accent returns the stored accent preference, or empty when unset
func (m *Manager) Accent(ctx context.Context, id model.ClientID) (string, error) {
	accent, err := m.store.Get(ctx, id, ScopeDurable, keyAccent)
	if errors.Is(err, model.ErrSessionNotFound) {
		return "", nil
	}
	return accent, err
}

// Score

// Score returns the client's running tally. A missing blob is a zero score.
func (m *Manager) Score(ctx context.Context, id model.ClientID) (model.Score, error) {
	raw, err := m.store.Get(ctx, id, ScopeDurable, keyScore)
	if errors.Is(err, model.ErrSessionNotFound) {
		return model.Score{}, nil
	}
	if err != nil {
		return model.Score{}, err
	}
	var score model.Score
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		return model.Score{}, nil
	}
	return score, nil
}

// RecordResult counts one round result into the durable score and returns
// the updated tally
func (m *Manager) RecordResult(ctx context.Context, id model.ClientID, result model.RoundResult) (model.Score, error) {
	score, err := m.Score(ctx, id)
	if err != nil {
		return model.Score{}, err
	}
	score.Record(result)
	data, err := json.Marshal(score)
	if err != nil {
		return model.Score{}, err
	}
	if err := m.store.Set(ctx, id, ScopeDurable, keyScore, string(data)); err != nil {
		return model.Score{}, err
	}
	return score, nil
}

// ResetScore clears the tally on explicit user action
func (m *Manager) ResetScore(ctx context.Context, id model.ClientID) error {
	return m.store.Delete(ctx, id, ScopeDurable, keyScore)
}
