package redis

import (
	"fmt"

	"github.com/playrps/rpsroom/internal/model"
)

// Key prefix for all room-related data
const keyPrefix = "rpsroom"

// roomKey returns the Redis key for a room hash
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// roomChannel returns the pub/sub channel carrying change notifications
// for a room
func roomChannel(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s:changes", keyPrefix, code)
}

// viewerKey returns the Redis key for a live-viewer presence entry
func viewerKey(id model.ClientID) string {
	return fmt.Sprintf("%s:viewer:%s", keyPrefix, id)
}

// viewerPattern matches all live-viewer presence entries
func viewerPattern() string {
	return keyPrefix + ":viewer:*"
}

// Hash field names within a room key. Each field is written independently,
// which is what gives the store its field-granular last-write-wins
// semantics.
const (
	fieldCode      = "code"
	fieldStatus    = "status"
	fieldEpoch     = "epoch"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// playerField returns the hash field holding a slot occupant
func playerField(slot model.Slot) string {
	return "player:" + string(slot)
}

// moveField returns the hash field holding a slot's move
func moveField(slot model.Slot) string {
	return "move:" + string(slot)
}
