package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds valid minute offsets; "24:00" is not a valid wall-clock time.
const MinutesPerDay = 24 * 60

// ToMinutes parses a zero-padded 24-hour "HH:MM" string into a minute offset
// from midnight in [0, 1439].
func ToMinutes(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", hhmm, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", hhmm, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q out of range", hhmm)
	}
	return hours*60 + minutes, nil
}

// FromMinutes renders a minute offset back into "HH:MM".
func FromMinutes(offset int) string {
	return fmt.Sprintf("%02d:%02d", offset/60, offset%60)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Used for lesson-vs-lesson conflicts and for
// slot-vs-slot checks at registration time: two bookings that merely touch
// (one ends exactly when the other starts) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// Contains reports whether [itemStart, itemEnd] fits entirely inside
// [slotStart, slotEnd] with closed boundaries. Used when checking whether a
// lesson fits inside a declared availability window; this is intentionally
// stricter than Overlaps and the two must not be conflated.
func Contains(slotStart, slotEnd, itemStart, itemEnd int) bool {
	return itemStart >= slotStart && itemEnd <= slotEnd
}
