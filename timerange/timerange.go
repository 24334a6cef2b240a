package timerange

import (
	"errors"
	"fmt"
)

const MinutesPerDay = 24 * 60

var ErrInvalidTimeOfDay = errors.New("time of day must be in 24-hour HH:MM format")

// ToMinutes converts a wall-clock "HH:MM" string into minutes since midnight.
func ToMinutes(timeOfDay string) (int, error) {
	if len(timeOfDay) != 5 || timeOfDay[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, timeOfDay)
	}

	hours, hoursOk := twoDigits(timeOfDay[0], timeOfDay[1])
	minutes, minutesOk := twoDigits(timeOfDay[3], timeOfDay[4])
	if !hoursOk || !minutesOk || hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, timeOfDay)
	}

	return hours*60 + minutes, nil
}

// FromMinutes is the inverse of ToMinutes. Values are clamped to a single day.
func FromMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes >= MinutesPerDay {
		minutes = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
// Ranges that only touch at an endpoint do not overlap.
func Overlaps(startA, endA, startB, endB int) bool {
	return !(endA <= startB || startA >= endB)
}

func twoDigits(tens, ones byte) (int, bool) {
	if tens < '0' || tens > '9' || ones < '0' || ones > '9' {
		return 0, false
	}
	return int(tens-'0')*10 + int(ones-'0'), true
}
