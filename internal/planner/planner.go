package planner

import (
	"context"
	"errors"

	"peregovorka/internal/domain"
	"peregovorka/internal/models"

	"github.com/rs/zerolog"
)

// ErrInvalidWindow rejects a plan request with a non-positive interval or a
// window whose end is not after its start. Raised before any storage I/O.
var ErrInvalidWindow = errors.New("invalid window: positive interval and end after start required")

type Direction string

const (
	DirectionBackward Direction = "backward"
	DirectionForward  Direction = "forward"
)

// Alternative is a whole shifted window offered when no exact slot is free.
type Alternative struct {
	Slot      models.TimeSlot `json:"slot"`
	Direction Direction       `json:"direction"`
}

type PlanResult struct {
	RoomID         string            `json:"room_id"`
	RoomName       string            `json:"room_name"`
	AvailableSlots []models.TimeSlot `json:"available_slots,omitempty"`
	Alternatives   []Alternative     `json:"alternative_slots,omitempty"`
}

// HasOffers reports whether the plan found anything to propose.
func (r PlanResult) HasOffers() bool {
	return len(r.AvailableSlots) > 0 || len(r.Alternatives) > 0
}

// RoomChecker is the slice of the availability checker the planner needs.
type RoomChecker interface {
	IsRoomFree(ctx context.Context, date models.Date, roomID string, start, end models.TimeOfDay) (bool, error)
}

// Planner partitions a working window into candidate slots and, when a room
// offers none, searches nearby shifted windows for alternatives.
type Planner struct {
	checker RoomChecker
	store   domain.Store
	logger  *zerolog.Logger
}

func New(checker RoomChecker, store domain.Store, logger *zerolog.Logger) *Planner {
	return &Planner{checker: checker, store: store, logger: logger}
}

// PartitionWindow cuts [windowStart, windowEnd) into consecutive back-to-back
// slots of exactly intervalMinutes. A final partial slot is dropped. Pure
// function of its inputs.
func PartitionWindow(windowStart, windowEnd models.TimeOfDay, intervalMinutes int) ([]models.TimeSlot, error) {
	if intervalMinutes <= 0 || windowEnd <= windowStart {
		return nil, ErrInvalidWindow
	}

	var slots []models.TimeSlot
	for cur := windowStart; cur.Add(intervalMinutes) <= windowEnd; cur = cur.Add(intervalMinutes) {
		slots = append(slots, models.TimeSlot{Start: cur, End: cur.Add(intervalMinutes)})
	}
	return slots, nil
}

// PlanForRoom returns the room's free slots within the window. When every
// slot is busy it falls back to shifting the entire requested window by
// ±interval×k for k=1..3: the backward direction is exhausted before forward,
// each direction stops at its first free shift, and each contributes at most
// one alternative. Exact small slots are preferred; the wider nearby search
// only runs when none exist.
func (p *Planner) PlanForRoom(ctx context.Context, date models.Date, room models.Room, windowStart, windowEnd models.TimeOfDay, intervalMinutes int) (PlanResult, error) {
	result := PlanResult{RoomID: room.ID, RoomName: room.Name}

	slots, err := PartitionWindow(windowStart, windowEnd, intervalMinutes)
	if err != nil {
		return PlanResult{}, err
	}

	for _, slot := range slots {
		free, err := p.checker.IsRoomFree(ctx, date, room.ID, slot.Start, slot.End)
		if err != nil {
			return PlanResult{}, err
		}
		if free {
			result.AvailableSlots = append(result.AvailableSlots, slot)
		}
	}
	if len(result.AvailableSlots) > 0 {
		return result, nil
	}

	for _, direction := range []Direction{DirectionBackward, DirectionForward} {
		sign := 1
		if direction == DirectionBackward {
			sign = -1
		}
		for k := 1; k <= models.MaxAlternativeShifts; k++ {
			shifted := models.TimeSlot{
				Start: windowStart.Add(sign * k * intervalMinutes),
				End:   windowEnd.Add(sign * k * intervalMinutes),
			}
			if !shifted.Valid() {
				// Off the edge of the day; further shifts in this
				// direction only move further out.
				break
			}
			free, err := p.checker.IsRoomFree(ctx, date, room.ID, shifted.Start, shifted.End)
			if err != nil {
				return PlanResult{}, err
			}
			if free {
				result.Alternatives = append(result.Alternatives, Alternative{Slot: shifted, Direction: direction})
				break
			}
		}
	}

	p.logger.Debug().
		Str("room_id", room.ID).
		Str("date", date.Key()).
		Int("alternatives", len(result.Alternatives)).
		Msg("no exact slots free")
	return result, nil
}

// PlanAll plans every room in the directory, optionally filtered by minimum
// capacity. Rooms with neither free slots nor alternatives are omitted.
func (p *Planner) PlanAll(ctx context.Context, date models.Date, windowStart, windowEnd models.TimeOfDay, intervalMinutes, minCapacity int) ([]PlanResult, error) {
	if intervalMinutes <= 0 || windowEnd <= windowStart {
		return nil, ErrInvalidWindow
	}

	rooms, err := p.store.LoadRooms(ctx)
	if err != nil {
		return nil, err
	}

	var plan []PlanResult
	for _, room := range rooms {
		if minCapacity > 0 && room.Capacity < minCapacity {
			continue
		}
		result, err := p.PlanForRoom(ctx, date, room, windowStart, windowEnd, intervalMinutes)
		if err != nil {
			return nil, err
		}
		if result.HasOffers() {
			plan = append(plan, result)
		}
	}
	return plan, nil
}
