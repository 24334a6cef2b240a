package database

import (
	"aula-booking/model"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotArray      = errors.New("bookings data is not a JSON array")
	ErrMalformedJSON = errors.New("bookings data is not valid JSON")
)

// Repository owns the booking collection. The collection is kept sorted by
// (date, start) after every mutation and callers only ever get copies.
//
// Mutations never persist by themselves; the caller decides when to Save.
type Repository struct {
	mu       sync.RWMutex
	store    BlobStore
	key      string
	bookings []model.Booking
}

func NewRepository(store BlobStore, key string) *Repository {
	return &Repository{
		store:    store,
		key:      key,
		bookings: []model.Booking{},
	}
}

// Load replaces the in-memory collection with the persisted one. Missing or
// malformed data is logged and discarded, leaving an empty collection.
func (r *Repository) Load(ctx context.Context) []model.Booking {
	bookings := []model.Booking{}

	blob, err := r.store.Get(ctx, r.key)
	switch {
	case errors.Is(err, ErrBlobNotFound):
	case err != nil:
		log.Warn().Err(err).Str("key", r.key).Msg("Failed to read bookings, starting empty")
	default:
		decoded, decodeErr := Decode(blob)
		if decodeErr != nil {
			log.Warn().Err(decodeErr).Str("key", r.key).Msg("Discarding malformed bookings data")
		} else {
			bookings = decoded
		}
	}

	r.mu.Lock()
	r.bookings = bookings
	r.mu.Unlock()

	log.Info().Str("key", r.key).Int("bookings", len(bookings)).Msg("Bookings loaded")
	return copyBookings(bookings)
}

// Save writes the whole collection, unconditionally.
func (r *Repository) Save(ctx context.Context) error {
	r.mu.RLock()
	blob, err := Encode(r.bookings)
	r.mu.RUnlock()
	if err != nil {
		return err
	}

	return r.store.Put(ctx, r.key, blob)
}

func (r *Repository) All() []model.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyBookings(r.bookings)
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bookings)
}

func (r *Repository) Find(id string) (model.Booking, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, booking := range r.bookings {
		if booking.Id == id {
			return booking, true
		}
	}
	return model.Booking{}, false
}

// ByHall returns the bookings of a hall in collection order.
func (r *Repository) ByHall(hallId string) []model.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []model.Booking{}
	for _, booking := range r.bookings {
		if booking.HallId == hallId {
			result = append(result, booking)
		}
	}
	return result
}

// ByHallAndDate returns the bookings of a hall on one date, by start time.
func (r *Repository) ByHallAndDate(hallId, date string) []model.Booking {
	r.mu.RLock()
	result := []model.Booking{}
	for _, booking := range r.bookings {
		if booking.HallId == hallId && booking.Date == date {
			result = append(result, booking)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Start < result[j].Start
	})
	return result
}

func (r *Repository) Insert(booking model.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings = append(r.bookings, booking)
	SortBookings(r.bookings)
}

// Remove deletes the booking with the given id and returns it.
func (r *Repository) Remove(id string) (model.Booking, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, booking := range r.bookings {
		if booking.Id == id {
			r.bookings = append(r.bookings[:i:i], r.bookings[i+1:]...)
			return booking, true
		}
	}
	return model.Booking{}, false
}

// Replace swaps the whole collection and returns the previous one.
func (r *Repository) Replace(bookings []model.Booking) []model.Booking {
	next := copyBookings(bookings)
	SortBookings(next)

	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.bookings
	r.bookings = next
	return previous
}

// SortBookings orders bookings by (date, start) ascending, keeping the
// relative order of equal keys.
func SortBookings(bookings []model.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].SortKey() < bookings[j].SortKey()
	})
}

// Encode serializes bookings as a compact JSON array.
func Encode(bookings []model.Booking) ([]byte, error) {
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return json.Marshal(bookings)
}

// Decode parses a JSON array of bookings. Anything that is not an array,
// including null, is rejected with ErrNotArray.
func Decode(blob []byte) ([]model.Booking, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return nil, ErrMalformedJSON
		}
		return nil, ErrNotArray
	}

	bookings := []model.Booking{}
	if err := json.Unmarshal(trimmed, &bookings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return bookings, nil
}

func copyBookings(bookings []model.Booking) []model.Booking {
	result := make([]model.Booking, len(bookings))
	copy(result, bookings)
	return result
}
