package booking

// daySlots is the fixed per-day enumeration of reservation start times:
// half-hour marks through the morning block and the early afternoon block.
// A doctor's working calendar may offer fewer, but uniqueness is enforced
// against this full set.
var daySlots = []string{
	"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"13:00", "13:30", "14:00",
}

// Slots returns the full slot enumeration for any calendar day.
func Slots() []string {
	out := make([]string, len(daySlots))
	copy(out, daySlots)
	return out
}

// ValidSlot reports whether s is one of the bookable start times.
func ValidSlot(s string) bool {
	for _, slot := range daySlots {
		if slot == s {
			return true
		}
	}
	return false
}
