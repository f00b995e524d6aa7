package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/emberfall/internal/model"
)

func TestJournal_EnqueueNeverBlocks(t *testing.T) {
	j := &Journal{events: make(chan event, 2)}

	// Fill the buffer, then overflow; the extra events are dropped, not
	// blocked on.
	for i := 0; i < 5; i++ {
		j.RequestSave("enemy-death")
	}

	assert.Len(t, j.events, 2)
}

func TestJournal_RecordKillCarriesIdentity(t *testing.T) {
	j := &Journal{events: make(chan event, 8)}

	e := &model.Enemy{
		Actor:   model.Actor{ID: 0x20000001},
		Type:    "alpha_wolf",
		PackID:  3,
		IsAlpha: true,
	}
	j.RecordKill(e, 1)

	ev := <-j.events
	assert.Equal(t, eventKill, ev.kind)
	assert.Equal(t, "alpha_wolf", ev.enemyType)
	assert.Equal(t, uint32(0x20000001), ev.enemyID)
	assert.Equal(t, uint32(1), ev.killerID)
	assert.Equal(t, int32(3), ev.packID)
	assert.True(t, ev.alpha)
	assert.False(t, ev.boss)
}
