package scheduling

import (
	"aula-booking/database"
	"aula-booking/events"
	"aula-booking/model"
	"aula-booking/timerange"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const maxIDAttempts = 10

// Publisher receives booking events after they have been persisted.
type Publisher interface {
	Publish(ctx context.Context, event events.BookingEvent) error
}

// Service is the booking lifecycle manager. Every mutation runs
// validate, conflict-check, mutate and persist under one lock, so two
// requests can never both pass the conflict check against the same
// snapshot.
type Service struct {
	mu        sync.Mutex
	repo      *database.Repository
	newID     IDGenerator
	publisher Publisher
	now       func() time.Time
}

type ServiceOption func(*Service)

func WithIDGenerator(gen IDGenerator) ServiceOption {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func WithPublisher(publisher Publisher) ServiceOption {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo *database.Repository, opts ...ServiceOption) *Service {
	svc := &Service{
		repo:      repo,
		newID:     NewUUID,
		publisher: events.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateBookingInput struct {
	HallId  string `json:"aulaId"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Purpose string `json:"purpose"`
	Contact string `json:"pic"`
	Note    string `json:"note"`
}

// Create validates the candidate, rejects it when it overlaps an existing
// booking of the same hall and date, and otherwise stores and persists it.
// Nothing is changed when an error is returned.
func (s *Service) Create(ctx context.Context, in CreateBookingInput) (model.Booking, error) {
	booking := model.Booking{
		HallId:  strings.TrimSpace(in.HallId),
		Date:    strings.TrimSpace(in.Date),
		Start:   strings.TrimSpace(in.Start),
		End:     strings.TrimSpace(in.End),
		Purpose: strings.TrimSpace(in.Purpose),
		Contact: strings.TrimSpace(in.Contact),
		Note:    strings.TrimSpace(in.Note),
	}

	start, end, err := validateBooking(booking)
	if err != nil {
		return model.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.repo.ByHallAndDate(booking.HallId, booking.Date)
	if conflicting, found := FindConflict(existing, start, end); found {
		log.Debug().
			Str("hall_id", booking.HallId).
			Str("date", booking.Date).
			Str("conflicting_id", conflicting.Id).
			Msg("Booking rejected: schedule conflict")
		return model.Booking{}, &ConflictError{Booking: conflicting}
	}

	booking.Id, err = s.freshID(nil)
	if err != nil {
		return model.Booking{}, err
	}

	s.repo.Insert(booking)
	if err := s.repo.Save(ctx); err != nil {
		s.repo.Remove(booking.Id)
		return model.Booking{}, fmt.Errorf("failed to persist booking: %w", err)
	}

	log.Info().
		Str("booking_id", booking.Id).
		Str("hall_id", booking.HallId).
		Str("date", booking.Date).
		Str("start", booking.Start).
		Str("end", booking.End).
		Msg("Booking created")
	s.publish(ctx, events.BookingCreated, booking)

	return booking, nil
}

// Cancel removes the booking with the given id and persists the result.
// The caller must have confirmed the cancellation with the user already.
func (s *Service) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, ok := s.repo.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %v", ErrNotFound, id)
	}

	if err := s.repo.Save(ctx); err != nil {
		s.repo.Insert(removed)
		return fmt.Errorf("failed to persist cancellation: %w", err)
	}

	log.Info().Str("booking_id", id).Str("hall_id", removed.HallId).Str("date", removed.Date).Msg("Booking cancelled")
	s.publish(ctx, events.BookingCancelled, removed)

	return nil
}

func (s *Service) Get(id string) (model.Booking, error) {
	booking, ok := s.repo.Find(id)
	if !ok {
		return model.Booking{}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	return booking, nil
}

// Export returns the whole collection as compact JSON.
func (s *Service) Export() ([]byte, error) {
	return database.Encode(s.repo.All())
}

// Import replaces the whole collection with the bookings in data. On any
// error the existing collection is left untouched.
func (s *Service) Import(ctx context.Context, data []byte) (int, error) {
	bookings, err := database.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrImportParse, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prepareImport(bookings); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrImportParse, err)
	}

	previous := s.repo.Replace(bookings)
	if err := s.repo.Save(ctx); err != nil {
		s.repo.Replace(previous)
		return 0, fmt.Errorf("failed to persist imported bookings: %w", err)
	}

	log.Info().Int("bookings", len(bookings)).Int("replaced", len(previous)).Msg("Bookings imported")
	return len(bookings), nil
}

// prepareImport validates every record, assigns ids to records without one
// and rejects duplicate ids and overlapping bookings.
func (s *Service) prepareImport(bookings []model.Booking) error {
	type slot struct{ hallId, date string }

	seen := map[string]bool{}
	for _, booking := range bookings {
		if booking.Id == "" {
			continue
		}
		if seen[booking.Id] {
			return fmt.Errorf("duplicate booking id %v", booking.Id)
		}
		seen[booking.Id] = true
	}

	accepted := map[slot][]model.Booking{}
	for i := range bookings {
		booking := &bookings[i]
		start, end, err := validateBooking(*booking)
		if err != nil {
			return fmt.Errorf("booking %d: %w", i, err)
		}

		key := slot{booking.HallId, booking.Date}
		if conflicting, found := FindConflict(accepted[key], start, end); found {
			return fmt.Errorf("booking %d: %w", i, &ConflictError{Booking: conflicting})
		}

		if booking.Id == "" {
			booking.Id, err = s.freshID(seen)
			if err != nil {
				return err
			}
			seen[booking.Id] = true
		}
		accepted[key] = append(accepted[key], *booking)
	}

	return nil
}

// freshID draws ids until one is unused. With a nil reserved set the live
// collection is checked, otherwise only reserved is.
func (s *Service) freshID(reserved map[string]bool) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		if id == "" {
			continue
		}
		if reserved != nil {
			if !reserved[id] {
				return id, nil
			}
			continue
		}
		if _, exists := s.repo.Find(id); !exists {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique booking id")
}

func (s *Service) publish(ctx context.Context, eventType events.EventType, booking model.Booking) {
	event := events.BookingEvent{
		Type:       eventType,
		Booking:    booking,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", string(eventType)).Str("booking_id", booking.Id).Msg("Failed to publish booking event")
	}
}

func validateBooking(booking model.Booking) (int, int, error) {
	if _, ok := model.FindHall(booking.HallId); !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownHall, booking.HallId)
	}
	if _, err := time.Parse(model.DateLayout, booking.Date); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDate, booking.Date)
	}
	if strings.TrimSpace(booking.Purpose) == "" || strings.TrimSpace(booking.Contact) == "" {
		return 0, 0, ErrMissingRequiredField
	}

	start, err := timerange.ToMinutes(booking.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidTimeRange, err)
	}
	end, err := timerange.ToMinutes(booking.End)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidTimeRange, err)
	}
	if end <= start {
		return 0, 0, ErrInvalidTimeRange
	}

	return start, end, nil
}
