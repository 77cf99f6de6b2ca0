package booking

import (
	"context"
	"errors"

	"peregovorka/internal/availability"
	"peregovorka/internal/domain"
	"peregovorka/internal/events"
	"peregovorka/internal/models"
	"peregovorka/internal/planner"

	"github.com/rs/zerolog"
)

// Policy holds the configurable conflict rules. Both switches exist because
// the right answer depends on the deployment, not the engine.
type Policy struct {
	// OwnerInConflictScan includes the owner's own id in the participant
	// conflict scan on create. The new booking cannot conflict with
	// itself, but the owner may be committed elsewhere.
	OwnerInConflictScan bool

	// RevalidateOnUpdate re-runs the room and participant checks when an
	// update changes the interval or the room. Off by default: updates
	// replace fields verbatim, which matches what callers have relied on
	// even though it can introduce a conflict.
	RevalidateOnUpdate bool

	// WorkdayStart/WorkdayEnd bound the free-slot hint attached to
	// RoomUnavailableError.
	WorkdayStart models.TimeOfDay
	WorkdayEnd   models.TimeOfDay

	// HintIntervalMinutes is the slot length used for that hint.
	HintIntervalMinutes int
}

func DefaultPolicy() Policy {
	return Policy{
		OwnerInConflictScan: true,
		WorkdayStart:        models.NewTimeOfDay(9, 0),
		WorkdayEnd:          models.NewTimeOfDay(18, 0),
		HintIntervalMinutes: models.DefaultIntervalMinutes,
	}
}

// Service is the booking manager: it validates availability for the room and
// every participant, derives the unique id, persists the record, and serves
// lookups. All writes run inside the store's per-date critical section so
// the check and the write are one atomic step.
type Service struct {
	store   domain.Store
	checker *availability.Checker
	bus     domain.EventPublisher
	policy  Policy
	logger  *zerolog.Logger
}

func NewService(store domain.Store, checker *availability.Checker, bus domain.EventPublisher, policy Policy, logger *zerolog.Logger) *Service {
	if policy.HintIntervalMinutes <= 0 {
		policy.HintIntervalMinutes = models.DefaultIntervalMinutes
	}
	return &Service{
		store:   store,
		checker: checker,
		bus:     bus,
		policy:  policy,
		logger:  logger,
	}
}

type CreateRequest struct {
	Date           models.Date
	RoomID         string
	Start          models.TimeOfDay
	End            models.TimeOfDay
	OwnerID        string
	ParticipantIDs []string
	Comment        string
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	if req.Start >= req.End {
		return nil, availability.ErrInvalidInterval
	}

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	ownerUser, ok := users[req.OwnerID]
	if !ok {
		return nil, ErrUnknownOwner
	}
	owner := models.Participant{ID: req.OwnerID, Name: ownerUser.Name}

	requested := models.TimeSlot{Start: req.Start, End: req.End}

	var created *models.Booking
	err = s.store.UpdateBookings(ctx, req.Date, func(day []models.Booking) ([]models.Booking, error) {
		if !availability.RoomFreeIn(day, req.RoomID, requested) {
			return nil, &RoomUnavailableError{
				RoomID:    req.RoomID,
				Date:      req.Date,
				FreeSlots: s.freeSlotHint(day, req.RoomID),
			}
		}

		for _, id := range s.conflictScanIDs(req) {
			if availability.ParticipantBusyIn(day, id, requested) {
				return nil, &ParticipantConflictError{ParticipantID: id, Date: req.Date}
			}
		}

		participants, guests := resolveParticipants(req.ParticipantIDs, users)
		if len(participants) == 0 && len(guests) == 0 {
			return nil, ErrNoParticipants
		}

		id := models.BookingID(req.RoomID, req.Date, req.Start)
		for _, b := range day {
			if b.ID == id {
				// Unreachable after the room check; kept as an
				// integrity guard.
				return nil, ErrDuplicateBooking
			}
		}

		booking := models.Booking{
			ID:           id,
			Date:         req.Date,
			Start:        req.Start,
			End:          req.End,
			RoomID:       req.RoomID,
			BookedBy:     owner,
			Participants: participants,
			Guests:       guests,
			Status:       models.StatusConfirmed,
			Comment:      req.Comment,
		}
		created = &booking
		return append(day, booking), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", created.ID).
		Str("room_id", created.RoomID).
		Str("date", created.Date.Key()).
		Msg("booking created")
	s.publish(events.EventBookingCreated, *created)
	return created, nil
}

// conflictScanIDs returns the deduplicated participant ids subject to the
// busy scan, with the owner appended per policy.
func (s *Service) conflictScanIDs(req CreateRequest) []string {
	seen := make(map[string]struct{}, len(req.ParticipantIDs)+1)
	ids := make([]string, 0, len(req.ParticipantIDs)+1)
	for _, id := range req.ParticipantIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if s.policy.OwnerInConflictScan {
		if _, ok := seen[req.OwnerID]; !ok {
			ids = append(ids, req.OwnerID)
		}
	}
	return ids
}

func (s *Service) freeSlotHint(day []models.Booking, roomID string) []models.TimeSlot {
	slots, err := planner.PartitionWindow(s.policy.WorkdayStart, s.policy.WorkdayEnd, s.policy.HintIntervalMinutes)
	if err != nil {
		return nil
	}
	return availability.FreeSlotsIn(day, roomID, slots)
}

// resolveParticipants splits references into directory-known participants and
// free-text guests. Unknown ids keep the legacy label form.
func resolveParticipants(refs []string, users map[string]models.User) ([]models.Participant, []string) {
	var participants []models.Participant
	var guests []string
	for _, ref := range refs {
		if u, ok := users[ref]; ok {
			participants = append(participants, models.Participant{ID: ref, Name: u.Name})
			continue
		}
		guests = append(guests, ref)
	}
	return participants, guests
}

func (s *Service) Get(ctx context.Context, date models.Date, id string) (*models.Booking, error) {
	bookings, err := s.store.LoadBookings(ctx, date)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].ID == id {
			return &bookings[i], nil
		}
	}
	return nil, ErrNotFound
}

// UpdateRequest carries partial field replacements; nil fields are left
// untouched. The booking id itself is derived at creation and never changes.
type UpdateRequest struct {
	Start          *models.TimeOfDay
	End            *models.TimeOfDay
	RoomID         *string
	ParticipantIDs *[]string
	Comment        *string
	Status         *string
}

func (s *Service) Update(ctx context.Context, date models.Date, id string, req UpdateRequest) (*models.Booking, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.Booking
	err = s.store.UpdateBookings(ctx, date, func(day []models.Booking) ([]models.Booking, error) {
		idx := -1
		for i := range day {
			if day[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrNotFound
		}

		b := day[idx]
		if req.Start != nil {
			b.Start = *req.Start
		}
		if req.End != nil {
			b.End = *req.End
		}
		if req.RoomID != nil {
			b.RoomID = *req.RoomID
		}
		if req.ParticipantIDs != nil {
			b.Participants, b.Guests = resolveParticipants(*req.ParticipantIDs, users)
		}
		if req.Comment != nil {
			b.Comment = *req.Comment
		}
		if req.Status != nil {
			b.Status = *req.Status
		}
		if b.Start >= b.End {
			return nil, availability.ErrInvalidInterval
		}

		if s.policy.RevalidateOnUpdate && (req.Start != nil || req.End != nil || req.RoomID != nil) {
			rest := make([]models.Booking, 0, len(day)-1)
			rest = append(rest, day[:idx]...)
			rest = append(rest, day[idx+1:]...)

			slot := b.Slot()
			if !availability.RoomFreeIn(rest, b.RoomID, slot) {
				return nil, &RoomUnavailableError{
					RoomID:    b.RoomID,
					Date:      date,
					FreeSlots: s.freeSlotHint(rest, b.RoomID),
				}
			}
			for _, p := range b.Participants {
				if availability.ParticipantBusyIn(rest, p.ID, slot) {
					return nil, &ParticipantConflictError{ParticipantID: p.ID, Date: date}
				}
			}
		}

		day[idx] = b
		updated = &b
		return day, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.EventBookingUpdated, *updated)
	return updated, nil
}

// errNothingRemoved aborts the delete write when the id is absent; it never
// escapes Delete.
var errNothingRemoved = errors.New("nothing removed")

// Delete removes the booking and reports whether it existed. A missing id is
// not an error.
func (s *Service) Delete(ctx context.Context, date models.Date, id string) (bool, error) {
	var removed models.Booking
	err := s.store.UpdateBookings(ctx, date, func(day []models.Booking) ([]models.Booking, error) {
		kept := make([]models.Booking, 0, len(day))
		found := false
		for _, b := range day {
			if b.ID == id {
				removed = b
				found = true
				continue
			}
			kept = append(kept, b)
		}
		if !found {
			return nil, errNothingRemoved
		}
		return kept, nil
	})
	if errors.Is(err, errNothingRemoved) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.publish(events.EventBookingDeleted, removed)
	return true, nil
}

// ListByParticipant scans each date in [from, to] inclusive and returns the
// bookings the user owns.
func (s *Service) ListByParticipant(ctx context.Context, userID string, from, to models.Date) ([]models.Booking, error) {
	var result []models.Booking
	for d := from; !d.After(to); d = d.AddDays(1) {
		bookings, err := s.store.LoadBookings(ctx, d)
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			if b.BookedBy.ID == userID {
				result = append(result, b)
			}
		}
	}
	return result, nil
}

// ListByRange returns all stored bookings whose date falls in [from, to],
// optionally restricted to a room set. Zero bounds leave that side open.
// Malformed date keys were already skipped by the store.
func (s *Service) ListByRange(ctx context.Context, from, to models.Date, roomIDs []string) ([]models.Booking, error) {
	dates, err := s.store.ListDates(ctx)
	if err != nil {
		return nil, err
	}

	var roomSet map[string]struct{}
	if len(roomIDs) > 0 {
		roomSet = make(map[string]struct{}, len(roomIDs))
		for _, id := range roomIDs {
			roomSet[id] = struct{}{}
		}
	}

	var result []models.Booking
	for _, d := range dates {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		bookings, err := s.store.LoadBookings(ctx, d)
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			if roomSet != nil {
				if _, ok := roomSet[b.RoomID]; !ok {
					continue
				}
			}
			result = append(result, b)
		}
	}
	return result, nil
}

// CheckAvailability returns the rooms free for the interval, optionally
// filtered by minimum capacity.
func (s *Service) CheckAvailability(ctx context.Context, date models.Date, start, end models.TimeOfDay, minCapacity int) ([]models.Room, error) {
	if start >= end {
		return nil, availability.ErrInvalidInterval
	}

	rooms, err := s.store.LoadRooms(ctx)
	if err != nil {
		return nil, err
	}

	var free []models.Room
	for _, room := range rooms {
		if minCapacity > 0 && room.Capacity < minCapacity {
			continue
		}
		ok, err := s.checker.IsRoomFree(ctx, date, room.ID, start, end)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, room)
		}
	}
	return free, nil
}

func (s *Service) publish(eventType string, b models.Booking) {
	if s.bus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID: b.ID,
		Date:      b.Date,
		RoomID:    b.RoomID,
		OwnerID:   b.BookedBy.ID,
		Start:     b.Start,
		End:       b.End,
		Status:    b.Status,
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", b.ID).Msg("publish event error")
	}
}
