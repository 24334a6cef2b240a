package scheduling

import (
	"aula-booking/database"
	"aula-booking/events"
	"aula-booking/model"
	"aula-booking/timerange"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "bookings_test"

type toggleStore struct {
	*database.MemoryStore
	failPuts bool
}

func (s *toggleStore) Put(ctx context.Context, key string, blob []byte) error {
	if s.failPuts {
		return errors.New("store unavailable")
	}
	return s.MemoryStore.Put(ctx, key, blob)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("b-%d", next)
	}
}

type fixture struct {
	svc       *Service
	repo      *database.Repository
	store     *toggleStore
	publisher *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := &toggleStore{MemoryStore: database.NewMemoryStore()}
	repo := database.NewRepository(store, testKey)
	publisher := &recordingPublisher{}
	now := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	svc := NewService(repo,
		WithIDGenerator(sequentialIDs()),
		WithPublisher(publisher),
		WithClock(func() time.Time { return now }),
	)
	return fixture{svc: svc, repo: repo, store: store, publisher: publisher}
}

func input(hallId, date, start, end string) CreateBookingInput {
	return CreateBookingInput{
		HallId:  hallId,
		Date:    date,
		Start:   start,
		End:     end,
		Purpose: "Rapat",
		Contact: "081234567890",
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), CreateBookingInput{
		HallId:  "sibayak",
		Date:    "2024-05-01",
		Start:   "09:00",
		End:     "11:00",
		Purpose: "  Pelatihan  ",
		Contact: "0812",
		Note:    "bawa proyektor",
	})
	require.NoError(t, err)

	assert.Equal(t, "b-1", booking.Id)
	assert.Equal(t, "Pelatihan", booking.Purpose)
	assert.Equal(t, []model.Booking{booking}, f.repo.All())

	persisted := database.NewRepository(f.store, testKey).Load(context.Background())
	assert.Equal(t, []model.Booking{booking}, persisted)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.BookingCreated, f.publisher.events[0].Type)
	assert.Equal(t, booking, f.publisher.events[0].Booking)
}

func TestCreateTouchingBoundaryIsNotAConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "10:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "11:00", "12:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "09:00", "10:00"))
	require.NoError(t, err)

	assert.Len(t, f.repo.ByHallAndDate("sibayak", "2024-05-01"), 3)
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t)

	existing, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "09:00", "11:00"))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "10:00", "12:00"))
	require.ErrorIs(t, err, ErrScheduleConflict)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, existing, conflict.Booking)
	assert.Contains(t, err.Error(), "09:00 - 11:00")

	assert.Equal(t, 1, f.repo.Len())
	assert.Len(t, f.publisher.events, 1)
}

func TestCreateSameSlotOtherHallOrDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "09:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), input("sinabung", "2024-05-01", "09:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), input("sibayak", "2024-05-02", "09:00", "11:00"))
	require.NoError(t, err)

	assert.Equal(t, 3, f.repo.Len())
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		description string
		in          CreateBookingInput
		expectedErr error
	}{
		{"end before start", input("sibayak", "2024-05-01", "11:00", "09:00"), ErrInvalidTimeRange},
		{"zero length", input("sibayak", "2024-05-01", "09:00", "09:00"), ErrInvalidTimeRange},
		{"hour out of range", input("sibayak", "2024-05-01", "09:00", "25:00"), ErrInvalidTimeRange},
		{"malformed start", input("sibayak", "2024-05-01", "9", "10:00"), timerange.ErrInvalidTimeOfDay},
		{"unknown hall", input("toba", "2024-05-01", "09:00", "10:00"), ErrUnknownHall},
		{"bad date", input("sibayak", "01/05/2024", "09:00", "10:00"), ErrInvalidDate},
		{"impossible date", input("sibayak", "2024-02-30", "09:00", "10:00"), ErrInvalidDate},
		{"blank purpose", CreateBookingInput{HallId: "sibayak", Date: "2024-05-01", Start: "09:00", End: "10:00", Purpose: "   ", Contact: "0812"}, ErrMissingRequiredField},
		{"missing contact", CreateBookingInput{HallId: "sibayak", Date: "2024-05-01", Start: "09:00", End: "10:00", Purpose: "Rapat"}, ErrMissingRequiredField},
		{"missing fields are reported before bad times", CreateBookingInput{HallId: "sibayak", Date: "2024-05-01", Start: "11:00", End: "09:00"}, ErrMissingRequiredField},
	}

	for _, test := range tests {
		f := newFixture(t)
		_, err := f.svc.Create(context.Background(), test.in)
		assert.ErrorIsf(t, err, test.expectedErr, test.description)
		assert.Equalf(t, 0, f.repo.Len(), test.description)
		assert.Emptyf(t, f.repo.ByHallAndDate(test.in.HallId, test.in.Date), test.description)
		assert.Emptyf(t, f.publisher.events, test.description)
	}
}

func TestCreateRollsBackWhenPersistenceFails(t *testing.T) {
	f := newFixture(t)
	f.store.failPuts = true

	_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "09:00", "11:00"))
	require.Error(t, err)
	assert.Equal(t, 0, f.repo.Len())
	assert.Empty(t, f.publisher.events)

	f.store.failPuts = false
	_, err = f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "09:00", "11:00"))
	assert.NoError(t, err)
}

func TestCreateSkipsIdsAlreadyInUse(t *testing.T) {
	store := database.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), testKey,
		[]byte(`[{"id":"b-1","aulaId":"sibayak","date":"2024-05-01","start":"08:00","end":"09:00","purpose":"Rapat","pic":"0812","note":""}]`)))
	repo := database.NewRepository(store, testKey)
	repo.Load(context.Background())

	svc := NewService(repo, WithIDGenerator(sequentialIDs()))
	booking, err := svc.Create(context.Background(), input("sibayak", "2024-05-01", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, "b-2", booking.Id)
}

func TestCreateFailsWhenNoIdCanBeAllocated(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, WithIDGenerator(func() string { return "" }))

	_, err := svc.Create(context.Background(), input("sibayak", "2024-05-01", "09:00", "10:00"))
	assert.Error(t, err)
	assert.Equal(t, 0, f.repo.Len())
}

func TestDefaultIdsAreUnique(t *testing.T) {
	store := database.NewMemoryStore()
	repo := database.NewRepository(store, testKey)
	svc := NewService(repo)

	seen := map[string]bool{}
	for hour := 0; hour < 20; hour++ {
		booking, err := svc.Create(context.Background(),
			input("sibolangit", "2024-05-01", timerange.FromMinutes(hour*60), timerange.FromMinutes(hour*60+30)))
		require.NoError(t, err)
		assert.False(t, seen[booking.Id])
		seen[booking.Id] = true
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	created := []model.Booking{}
	for _, slot := range [][2]string{{"08:00", "09:00"}, {"09:00", "10:00"}, {"10:00", "11:00"}} {
		booking, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", slot[0], slot[1]))
		require.NoError(t, err)
		created = append(created, booking)
	}

	require.NoError(t, f.svc.Cancel(context.Background(), created[1].Id))

	assert.Equal(t, []model.Booking{created[0], created[2]}, f.repo.All())
	_, err := f.svc.Get(created[1].Id)
	assert.ErrorIs(t, err, ErrNotFound)

	persisted := database.NewRepository(f.store, testKey).Load(context.Background())
	assert.Equal(t, []model.Booking{created[0], created[2]}, persisted)

	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, events.BookingCancelled, last.Type)
	assert.Equal(t, created[1], last.Booking)
}

func TestCancelUnknownId(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "08:00", "09:00"))
	require.NoError(t, err)

	err = f.svc.Cancel(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, f.repo.Len())
}

func TestCancelRollsBackWhenPersistenceFails(t *testing.T) {
	f := newFixture(t)
	booking, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "08:00", "09:00"))
	require.NoError(t, err)

	f.store.failPuts = true
	require.Error(t, f.svc.Cancel(context.Background(), booking.Id))

	found, err := f.svc.Get(booking.Id)
	require.NoError(t, err)
	assert.Equal(t, booking, found)
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "08:00", "09:00"))
	assert.NoError(t, err)
	assert.Equal(t, 1, f.repo.Len())
}

func TestOrderingAfterMixedOperations(t *testing.T) {
	f := newFixture(t)
	slots := []struct{ date, start, end string }{
		{"2024-05-03", "13:00", "14:00"},
		{"2024-05-01", "15:00", "16:00"},
		{"2024-05-02", "08:00", "09:00"},
		{"2024-05-01", "07:00", "08:00"},
		{"2024-05-03", "09:00", "10:00"},
	}
	for _, slot := range slots {
		_, err := f.svc.Create(context.Background(), input("sibuatan", slot.date, slot.start, slot.end))
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Cancel(context.Background(), "b-3"))

	hallBookings := f.repo.ByHall("sibuatan")
	keys := []string{}
	for _, booking := range hallBookings {
		keys = append(keys, booking.Date+" "+booking.Start)
	}
	assert.Equal(t, []string{"2024-05-01 07:00", "2024-05-01 15:00", "2024-05-03 09:00", "2024-05-03 13:00"}, keys)
	assert.Equal(t, hallBookings, f.repo.ByHall("sibuatan"))
}

func TestConcurrentCreatesNeverOverlap(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "09:00", "11:00"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrScheduleConflict)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.repo.Len())
}

func TestNoOverlapInvariant(t *testing.T) {
	f := newFixture(t)
	for start := 0; start < 24*60-30; start += 25 {
		_, _ = f.svc.Create(context.Background(),
			input("sinabung", "2024-05-01", timerange.FromMinutes(start), timerange.FromMinutes(start+70)))
	}

	bookings := f.repo.ByHallAndDate("sinabung", "2024-05-01")
	require.NotEmpty(t, bookings)
	for i, a := range bookings {
		for _, b := range bookings[i+1:] {
			aStart, _ := timerange.ToMinutes(a.Start)
			aEnd, _ := timerange.ToMinutes(a.End)
			bStart, _ := timerange.ToMinutes(b.Start)
			bEnd, _ := timerange.ToMinutes(b.End)
			assert.Falsef(t, timerange.Overlaps(aStart, aEnd, bStart, bEnd), "%s-%s overlaps %s-%s", a.Start, a.End, b.Start, b.End)
		}
	}
}

func TestExportImport(t *testing.T) {
	f := newFixture(t)
	for _, slot := range [][2]string{{"08:00", "09:00"}, {"09:00", "10:00"}} {
		_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", slot[0], slot[1]))
		require.NoError(t, err)
	}

	exported, err := f.svc.Export()
	require.NoError(t, err)

	other := newFixture(t)
	count, err := other.svc.Import(context.Background(), exported)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, f.repo.All(), other.repo.All())

	persisted := database.NewRepository(other.store, testKey).Load(context.Background())
	assert.Equal(t, f.repo.All(), persisted)
}

func TestImportReplacesInsteadOfMerging(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "08:00", "09:00"))
	require.NoError(t, err)

	count, err := f.svc.Import(context.Background(), []byte(
		`[{"id":"x","aulaId":"sinabung","date":"2024-06-01","start":"10:00","end":"12:00","purpose":"Acara","pic":"0813"},`+
			`{"aulaId":"sinabung","date":"2024-06-01","start":"08:00","end":"10:00","purpose":"Rapat","pic":"0814"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all := f.repo.All()
	require.Len(t, all, 2)
	assert.Equal(t, "08:00", all[0].Start)
	assert.NotEmpty(t, all[0].Id)
	assert.NotEqual(t, "x", all[0].Id)
	assert.Equal(t, "x", all[1].Id)
}

func TestImportRejectsBadInput(t *testing.T) {
	tests := []struct {
		description string
		data        string
	}{
		{"not json", `not json at all`},
		{"object instead of array", `{"id":"1"}`},
		{"null", `null`},
		{"wrong field types", `[{"id": 1}]`},
		{"unknown hall", `[{"id":"1","aulaId":"toba","date":"2024-05-01","start":"08:00","end":"09:00","purpose":"a","pic":"b"}]`},
		{"inverted range", `[{"id":"1","aulaId":"sibayak","date":"2024-05-01","start":"10:00","end":"09:00","purpose":"a","pic":"b"}]`},
		{"duplicate ids", `[{"id":"1","aulaId":"sibayak","date":"2024-05-01","start":"08:00","end":"09:00","purpose":"a","pic":"b"},` +
			`{"id":"1","aulaId":"sibayak","date":"2024-05-02","start":"08:00","end":"09:00","purpose":"a","pic":"b"}]`},
		{"overlapping bookings", `[{"id":"1","aulaId":"sibayak","date":"2024-05-01","start":"08:00","end":"10:00","purpose":"a","pic":"b"},` +
			`{"id":"2","aulaId":"sibayak","date":"2024-05-01","start":"09:00","end":"11:00","purpose":"a","pic":"b"}]`},
	}

	for _, test := range tests {
		f := newFixture(t)
		existing, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "08:00", "09:00"))
		require.NoError(t, err)

		_, err = f.svc.Import(context.Background(), []byte(test.data))
		assert.ErrorIsf(t, err, ErrImportParse, test.description)
		assert.Equalf(t, []model.Booking{existing}, f.repo.All(), test.description)
	}
}

func TestImportEmptyArrayClearsCollection(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "08:00", "09:00"))
	require.NoError(t, err)

	count, err := f.svc.Import(context.Background(), []byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, f.repo.Len())
}

func TestImportRollsBackWhenPersistenceFails(t *testing.T) {
	f := newFixture(t)
	existing, err := f.svc.Create(context.Background(), input("sibayak", "2024-05-01", "08:00", "09:00"))
	require.NoError(t, err)

	f.store.failPuts = true
	_, err = f.svc.Import(context.Background(), []byte(`[]`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrImportParse)
	assert.Equal(t, []model.Booking{existing}, f.repo.All())
}
