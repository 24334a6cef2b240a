package scheduling

import (
	"aula-booking/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindConflict(t *testing.T) {
	existing := []model.Booking{
		{Id: "a", Start: "08:00", End: "09:00"},
		{Id: "b", Start: "09:00", End: "11:00"},
		{Id: "c", Start: "13:00", End: "15:00"},
	}

	tests := []struct {
		description string
		start, end  int
		expectedId  string
	}{
		{description: "overlaps the middle booking", start: 600, end: 720, expectedId: "b"},
		{description: "first overlap wins", start: 510, end: 570, expectedId: "a"},
		{description: "touches end of b and start of c", start: 660, end: 780, expectedId: ""},
		{description: "inside c", start: 800, end: 810, expectedId: "c"},
		{description: "evening is free", start: 1080, end: 1200, expectedId: ""},
	}

	for _, test := range tests {
		conflicting, found := FindConflict(existing, test.start, test.end)
		if test.expectedId == "" {
			assert.Falsef(t, found, test.description)
			assert.Falsef(t, HasConflict(existing, test.start, test.end), test.description)
			continue
		}
		assert.Truef(t, found, test.description)
		assert.Equalf(t, test.expectedId, conflicting.Id, test.description)
		assert.Truef(t, HasConflict(existing, test.start, test.end), test.description)
	}
}

func TestFindConflictSkipsUnparsableTimes(t *testing.T) {
	existing := []model.Booking{{Id: "broken", Start: "9am", End: "11am"}}
	assert.False(t, HasConflict(existing, 540, 660))
}

func TestConflictErrorNamesRange(t *testing.T) {
	err := &ConflictError{Booking: model.Booking{Start: "09:00", End: "11:00"}}
	assert.Contains(t, err.Error(), "09:00 - 11:00")
	assert.ErrorIs(t, err, ErrScheduleConflict)
}
