package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"peregovorka/internal/booking"
	"peregovorka/internal/metrics"
	"peregovorka/internal/models"
	"peregovorka/internal/worker"
)

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Date        models.Date      `json:"date"`
		Start       models.TimeOfDay `json:"start_time"`
		End         models.TimeOfDay `json:"end_time"`
		MinCapacity int              `json:"min_capacity"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	rooms, err := s.bookings.CheckAvailability(r.Context(), body.Date, body.Start, body.End, body.MinCapacity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"available_rooms": rooms})
}

func (s *HTTPServer) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Date            models.Date      `json:"date"`
		WindowStart     models.TimeOfDay `json:"window_start"`
		WindowEnd       models.TimeOfDay `json:"window_end"`
		IntervalMinutes int              `json:"interval_minutes"`
		MinCapacity     int              `json:"min_capacity"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	if body.IntervalMinutes == 0 {
		body.IntervalMinutes = models.DefaultIntervalMinutes
	}

	plan, err := s.planner.PlanAll(r.Context(), body.Date, body.WindowStart, body.WindowEnd, body.IntervalMinutes, body.MinCapacity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": plan})
}

func (s *HTTPServer) handleBookingCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Date         models.Date      `json:"date"`
		RoomID       string           `json:"room_id"`
		Start        models.TimeOfDay `json:"start_time"`
		End          models.TimeOfDay `json:"end_time"`
		BookedBy     string           `json:"booked_by"`
		Participants []string         `json:"participants"`
		Comment      string           `json:"comment"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Date.IsZero() || body.RoomID == "" || body.BookedBy == "" {
		writeError(w, http.StatusBadRequest, "date, room_id and booked_by are required")
		return
	}

	created, err := s.bookings.Create(r.Context(), booking.CreateRequest{
		Date:           body.Date,
		RoomID:         body.RoomID,
		Start:          body.Start,
		End:            body.End,
		OwnerID:        body.BookedBy,
		ParticipantIDs: body.Participants,
		Comment:        body.Comment,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.IncBookingCreated()
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleBookingsAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var from, to models.Date
	var err error
	if raw := strings.TrimSpace(r.URL.Query().Get("start_date")); raw != "" {
		if from, err = models.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("end_date")); raw != "" {
		if to, err = models.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	rooms := splitCSV(r.URL.Query().Get("rooms"))

	bookings, err := s.bookings.ListByRange(r.Context(), from, to, rooms)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleBookingsByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		UserID    string      `json:"user_id"`
		StartDate models.Date `json:"start_date"`
		EndDate   models.Date `json:"end_date"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.UserID == "" || body.StartDate.IsZero() || body.EndDate.IsZero() {
		writeError(w, http.StatusBadRequest, "user_id, start_date and end_date are required")
		return
	}

	bookings, err := s.bookings.ListByParticipant(r.Context(), body.UserID, body.StartDate, body.EndDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleBookingByID serves GET {id}, PUT {id}/update and DELETE {id}/delete.
// Every variant requires target_date since records are keyed by day.
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == "" || strings.Count(rest, "/") > 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	rawDate := strings.TrimSpace(r.URL.Query().Get("target_date"))
	if rawDate == "" {
		writeError(w, http.StatusBadRequest, "target_date is required")
		return
	}
	date, err := models.ParseDate(rawDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		b, err := s.bookings.Get(r.Context(), date, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)

	case action == "update" && r.Method == http.MethodPut:
		var body struct {
			Start        *models.TimeOfDay `json:"start_time"`
			End          *models.TimeOfDay `json:"end_time"`
			RoomID       *string           `json:"room_id"`
			Participants *[]string         `json:"participants"`
			Comment      *string           `json:"comment"`
			Status       *string           `json:"status"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		updated, err := s.bookings.Update(r.Context(), date, id, booking.UpdateRequest{
			Start:          body.Start,
			End:            body.End,
			RoomID:         body.RoomID,
			ParticipantIDs: body.Participants,
			Comment:        body.Comment,
			Status:         body.Status,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case action == "delete" && r.Method == http.MethodDelete:
		deleted, err := s.bookings.Delete(r.Context(), date, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rooms, err := s.directory.ListRooms(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if rooms == nil {
			rooms = []models.Room{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})

	case http.MethodPost:
		var room models.Room
		if !decodeBody(w, r, &room) {
			return
		}
		if err := s.directory.AddRoom(r.Context(), room); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, room)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := s.directory.ListUsers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})

	case http.MethodPost:
		var body struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Nickname string `json:"nickname"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.ID == "" || body.Name == "" {
			writeError(w, http.StatusBadRequest, "id and name are required")
			return
		}
		if err := s.directory.RegisterUser(r.Context(), body.ID, body.Name, body.Nickname); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": body.ID, "name": body.Name})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleExport queues a workbook build; the worker writes the file in the
// background and the response only confirms acceptance.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exports == nil {
		writeError(w, http.StatusServiceUnavailable, "export worker is disabled")
		return
	}

	var body struct {
		StartDate models.Date `json:"start_date"`
		EndDate   models.Date `json:"end_date"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.StartDate.IsZero() || body.EndDate.IsZero() || body.EndDate.Before(body.StartDate) {
		writeError(w, http.StatusBadRequest, "start_date and end_date must form a valid range")
		return
	}

	if err := s.exports.Enqueue(worker.ExportJob{From: body.StartDate, To: body.EndDate}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
