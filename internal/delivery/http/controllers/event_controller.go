package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cleanuphub/internal/delivery/http/helpers"
	"cleanuphub/internal/delivery/http/middleware"
	"cleanuphub/internal/domain"
)

// LocationRequest is the location part of CreateEventRequest.
type LocationRequest struct {
	Address string  `json:"address"`
	Label   *string `json:"label"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// CreateEventRequest is the request body for POST /events. Date defaults to now
// and max_participants to the default capacity when omitted.
type CreateEventRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Date            *time.Time      `json:"date"`
	Location        LocationRequest `json:"location"`
	Category        string          `json:"category"`
	MaxParticipants int             `json:"max_participants"`
}

// Validate implements Validator. Content rules (lengths, category set) are
// enforced again by the service; the controller rejects only structural junk.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.Location.Lat < -90 || c.Location.Lat > 90 {
		errs = append(errs, "location.lat must be between -90 and 90")
	}
	if c.Location.Lng < -180 || c.Location.Lng > 180 {
		errs = append(errs, "location.lng must be between -180 and 180")
	}
	if c.MaxParticipants < 0 {
		errs = append(errs, "max_participants must be non-negative")
	}
	return errs
}

// CreateEventSuccessResponse is the success response envelope for POST /events (201).
type CreateEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetEventSuccessResponse is the success response envelope for GET /events/{eventID} (200).
type GetEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsSuccessResponse is the success response envelope for the event listing endpoints (200).
type ListEventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListParticipantsSuccessResponse is the success response envelope for GET /events/{eventID}/participants (200).
type ListParticipantsSuccessResponse struct {
	Data  []*domain.Participant `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// StatusResponse is a generic {status} data payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatusSuccessResponse is the success response envelope for endpoints returning only a status.
type StatusSuccessResponse struct {
	Data  StatusResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger     *slog.Logger
	Service    domain.EventService
	Query      domain.EventQueryService
	Attendance domain.AttendanceService
}

func NewEventController(logger *slog.Logger, svc domain.EventService, query domain.EventQueryService, attendance domain.AttendanceService) *EventController {
	return &EventController{
		Logger:     logger,
		Service:    svc,
		Query:      query,
		Attendance: attendance,
	}
}

func (c *EventController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyJoined):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "already joined")
	case errors.Is(err, domain.ErrEventFull):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "event is full")
	case errors.Is(err, domain.ErrNotParticipant):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "not a participant")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Create a cleanup event. The authenticated user becomes the creator and the first participant. Date defaults to now, max_participants to 10 when omitted.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	now := time.Now()
	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}
	loc := domain.Location{
		Address: req.Location.Address,
		Label:   req.Location.Label,
		Lat:     req.Location.Lat,
		Lng:     req.Location.Lng,
	}
	event := domain.NewEvent(req.Title, req.Description, date, loc, domain.Category(req.Category), req.MaxParticipants, userID, now, now)
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEventByID godoc
// @Summary Get an event by ID
// @Description Returns the event with its participant count.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.GetEventSuccessResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEventByID(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Query.GetEventByID(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Delete an event together with its participants and attendance records. Only the creator can delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, userID); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// JoinEvent godoc
// @Summary Join an event
// @Description Adds the authenticated user to the event's participant set. Fails with 409 when already joined or the event is full.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already joined or event full)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/join [post]
func (c *EventController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.JoinEvent(r.Context(), eventID, userID); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "joined"})
}

// LeaveEvent godoc
// @Summary Leave an event
// @Description Removes the authenticated user from the event's participant set. Fails with 409 when the user is not a participant.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not a participant)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/join [delete]
func (c *EventController) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.LeaveEvent(r.Context(), eventID, userID); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "left"})
}

// ListParticipants godoc
// @Summary List event participants
// @Description Returns the event's participants in join order.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListParticipantsSuccessResponse "data is an array of participants"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [get]
func (c *EventController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	participants, err := c.Service.ListParticipants(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if participants == nil {
		participants = []*domain.Participant{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, participants)
}

// ListClosest godoc
// @Summary List events closest to a point
// @Description Orders events by great-circle distance from (lat, lng), ascending. Each result carries distance_km.
// @Tags events
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset into the ordered result (default 0)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data is an array of events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/closest [get]
func (c *EventController) ListClosest(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "lat must be a number between -90 and 90")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "lng must be a number between -180 and 180")
		return
	}
	events, err := c.Query.ListClosest(r.Context(), lat, lng, helpers.ParseListParams(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeEvents(w, events)
}

// ListNewest godoc
// @Summary List events ordered by date
// @Tags events
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset into the ordered result (default 0)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data is an array of events"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/newest [get]
func (c *EventController) ListNewest(w http.ResponseWriter, r *http.Request) {
	events, err := c.Query.ListNewest(r.Context(), helpers.ParseListParams(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeEvents(w, events)
}

// ListUpcoming godoc
// @Summary List upcoming events ordered by date
// @Tags events
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset into the ordered result (default 0)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data is an array of events"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/upcoming [get]
func (c *EventController) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := c.Query.ListUpcoming(r.Context(), helpers.ParseListParams(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeEvents(w, events)
}

// ListMostPopular godoc
// @Summary List events by participant count, descending
// @Tags events
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset into the ordered result (default 0)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data is an array of events"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/popular [get]
func (c *EventController) ListMostPopular(w http.ResponseWriter, r *http.Request) {
	events, err := c.Query.ListMostPopular(r.Context(), helpers.ParseListParams(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeEvents(w, events)
}

// SearchEvents godoc
// @Summary Search events by title
// @Description Case-insensitive substring match on event titles.
// @Tags events
// @Produce json
// @Param q query string true "Search term"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset into the ordered result (default 0)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data is an array of events"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/search [get]
func (c *EventController) SearchEvents(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	events, err := c.Query.Search(r.Context(), term, helpers.ParseListParams(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeEvents(w, events)
}

func (c *EventController) writeEvents(w http.ResponseWriter, events []*domain.Event) {
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// AttendanceRecordRequest is one entry in SubmitAttendanceRequest.
type AttendanceRecordRequest struct {
	UserID   string `json:"user_id"`
	Attended bool   `json:"attended"`
	Rating   int    `json:"rating"`
}

// SubmitAttendanceRequest is the request body for POST /events/{eventID}/attendance.
// The submitted set replaces any previously stored records for the event.
type SubmitAttendanceRequest struct {
	Records []AttendanceRecordRequest `json:"records"`
}

// Validate implements Validator.
func (s SubmitAttendanceRequest) Validate() []string {
	var errs []string
	if len(s.Records) == 0 {
		errs = append(errs, "records is required")
	}
	for _, rec := range s.Records {
		if strings.TrimSpace(rec.UserID) == "" {
			errs = append(errs, "records[].user_id is required")
			break
		}
	}
	return errs
}

// ListAttendanceSuccessResponse is the success response envelope for GET /events/{eventID}/attendance (200).
type ListAttendanceSuccessResponse struct {
	Data  []*domain.AttendanceRecord `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// SubmitAttendance godoc
// @Summary Submit attendance and ratings for an event
// @Description Replaces the event's attendance records with the submitted set. Only the event creator can submit. Ratings must be between 0 and 5.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body SubmitAttendanceRequest true "Attendance records"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (rating out of range, duplicate user)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendance [post]
func (c *EventController) SubmitAttendance(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req SubmitAttendanceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	records := make([]*domain.AttendanceRecord, 0, len(req.Records))
	for _, rec := range req.Records {
		records = append(records, &domain.AttendanceRecord{
			EventID:  eventID,
			UserID:   rec.UserID,
			Attended: rec.Attended,
			Rating:   rec.Rating,
		})
	}
	if err := c.Attendance.SubmitAttendance(r.Context(), eventID, userID, records); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "recorded"})
}

// ListAttendance godoc
// @Summary List attendance records for an event
// @Description Returns the event's attendance records. Only the event creator can list.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListAttendanceSuccessResponse "data is an array of attendance records"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendance [get]
func (c *EventController) ListAttendance(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	records, err := c.Attendance.ListEventAttendance(r.Context(), eventID, userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*domain.AttendanceRecord{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, records)
}

// ListUserEvents godoc
// @Summary List a user's upcoming joined events
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID (UUID)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/events [get]
func (c *EventController) ListUserEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	events, err := c.Service.ListUserEvents(r.Context(), userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeEvents(w, events)
}

// ListUserEventHistory godoc
// @Summary List a user's past joined events
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID (UUID)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/events/history [get]
func (c *EventController) ListUserEventHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	events, err := c.Service.ListUserEventHistory(r.Context(), userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeEvents(w, events)
}
