package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotsEnumeration(t *testing.T) {
	slots := Slots()
	assert.Len(t, slots, 11)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "14:00", slots[len(slots)-1])

	// Lunch break is not bookable.
	assert.NotContains(t, slots, "12:00")
	assert.NotContains(t, slots, "12:30")
}

func TestSlotsReturnsCopy(t *testing.T) {
	slots := Slots()
	slots[0] = "07:00"
	assert.Equal(t, "08:00", Slots()[0])
}

func TestValidSlot(t *testing.T) {
	for _, s := range Slots() {
		assert.True(t, ValidSlot(s), s)
	}
	assert.False(t, ValidSlot("12:00"))
	assert.False(t, ValidSlot("09:15"))
	assert.False(t, ValidSlot(""))
	assert.False(t, ValidSlot("8:00"))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusConfirmed, StatusCompleted))
	assert.True(t, CanTransition(StatusConfirmed, StatusCancelled))

	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusConfirmed))
	assert.False(t, CanTransition(StatusConfirmed, StatusPending))
}

func TestStatusActive(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusConfirmed.Active())
	assert.False(t, StatusCompleted.Active())
	assert.False(t, StatusCancelled.Active())
}
