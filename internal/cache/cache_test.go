package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPutAndGet(t *testing.T) {
	c := New(5 * time.Minute)
	key := Key{ConversationID: uuid.New(), Kind: "vehicle_info"}

	c.Put(key, "cached result")

	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "cached result", got)
}

func TestGetMissing(t *testing.T) {
	c := New(5 * time.Minute)

	_, ok := c.Get(Key{ConversationID: uuid.New(), Kind: "symptoms"})
	assert.False(t, ok)
}

func TestExpiredEntryIsEvicted(t *testing.T) {
	c := New(time.Nanosecond)
	key := Key{ConversationID: uuid.New(), Kind: "vehicle_info"}

	c.Put(key, "stale")
	time.Sleep(time.Millisecond)

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestKeysAreIndependentPerKind(t *testing.T) {
	c := New(5 * time.Minute)
	convID := uuid.New()

	c.Put(Key{ConversationID: convID, Kind: "vehicle_info"}, "vehicle")
	c.Put(Key{ConversationID: convID, Kind: "symptoms"}, "symptoms")

	got, ok := c.Get(Key{ConversationID: convID, Kind: "vehicle_info"})
	assert.True(t, ok)
	assert.Equal(t, "vehicle", got)

	got, ok = c.Get(Key{ConversationID: convID, Kind: "symptoms"})
	assert.True(t, ok)
	assert.Equal(t, "symptoms", got)
}

func TestInvalidateClearsConversation(t *testing.T) {
	c := New(5 * time.Minute)
	convID := uuid.New()
	otherID := uuid.New()

	c.Put(Key{ConversationID: convID, Kind: "vehicle_info"}, "vehicle")
	c.Put(Key{ConversationID: convID, Kind: "symptoms"}, "symptoms")
	c.Put(Key{ConversationID: otherID, Kind: "vehicle_info"}, "other")

	c.Invalidate(convID)

	_, ok := c.Get(Key{ConversationID: convID, Kind: "vehicle_info"})
	assert.False(t, ok)
	_, ok = c.Get(Key{ConversationID: convID, Kind: "symptoms"})
	assert.False(t, ok)
	_, ok = c.Get(Key{ConversationID: otherID, Kind: "vehicle_info"})
	assert.True(t, ok)
}
