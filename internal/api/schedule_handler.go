package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitbook/gym-app/internal/domain"
	"fitbook/gym-app/internal/repository"
	"fitbook/gym-app/internal/scheduling"
	"fitbook/gym-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleHandler holds the schedule service dependency.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// --- DTOs ---

// RecurrenceRequest is the wire form of a recurrence selection.
type RecurrenceRequest struct {
	Kind       string   `json:"kind" binding:"required,oneof=single weekly custom"`
	DaysOfWeek []int    `json:"daysOfWeek" binding:"omitempty,dive,gte=0,lte=6"`
	Dates      []string `json:"dates" binding:"omitempty,dive,datetime=2006-01-02"`
}

func (r RecurrenceRequest) toSelection() (scheduling.RecurrenceSelection, error) {
	sel := scheduling.RecurrenceSelection{Kind: scheduling.RecurrenceKind(r.Kind)}
	for _, d := range r.DaysOfWeek {
		sel.DaysOfWeek = append(sel.DaysOfWeek, time.Weekday(d))
	}
	for _, s := range r.Dates {
		d, err := domain.ParseDate(s)
		if err != nil {
			return scheduling.RecurrenceSelection{}, fmt.Errorf("invalid date %q", s)
		}
		sel.Dates = append(sel.Dates, d)
	}
	return sel, nil
}

// CheckConflictsRequest is a candidate slot to evaluate.
type CheckConflictsRequest struct {
	Date      string          `json:"date" binding:"required,datetime=2006-01-02"`
	Time      string          `json:"time" binding:"required"`
	Location  domain.Location `json:"location" binding:"required,oneof=gym park"`
	TrainerID string          `json:"trainerId" binding:"required"`
}

// ConflictResponse is the wire form of a detected conflict.
type ConflictResponse struct {
	Kind        string   `json:"kind"`
	Message     string   `json:"message"`
	ScheduleIDs []string `json:"scheduleIds,omitempty"`
}

// PreviewRecurrenceRequest asks for the dates a selection would cover.
type PreviewRecurrenceRequest struct {
	Date       string            `json:"date" binding:"required,datetime=2006-01-02"`
	Recurrence RecurrenceRequest `json:"recurrence" binding:"required"`
}

// PreviewRecurrenceResponse is a bounded date list plus a remainder count.
type PreviewRecurrenceResponse struct {
	Dates []string `json:"dates"`
	More  int      `json:"more"`
	Total int      `json:"total"`
}

// CommitScheduleRequest is the completed workflow draft.
type CommitScheduleRequest struct {
	ClassID     string            `json:"classId" binding:"required"`
	TrainerID   string            `json:"trainerId" binding:"required"`
	Date        string            `json:"date" binding:"required,datetime=2006-01-02"`
	Time        string            `json:"time" binding:"required"`
	Location    domain.Location   `json:"location" binding:"required,oneof=gym park"`
	Difficulty  domain.Difficulty `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced all_levels"`
	MaxBookings int               `json:"maxBookings" binding:"omitempty,gt=0"`
	Recurrence  RecurrenceRequest `json:"recurrence" binding:"required"`
}

// DateOutcomeResponse reports the result of one schedule creation.
type DateOutcomeResponse struct {
	Date       string `json:"date"`
	ScheduleID string `json:"scheduleId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CommitScheduleResponse reports per-date outcomes; Conflicts is set instead
// when the commit was blocked at the conflict gate.
type CommitScheduleResponse struct {
	Created   int                   `json:"created"`
	Failed    int                   `json:"failed"`
	Outcomes  []DateOutcomeResponse `json:"outcomes,omitempty"`
	Conflicts []ConflictResponse    `json:"conflicts,omitempty"`
}

// ScheduleResponse is the DTO for returning a scheduled class.
type ScheduleResponse struct {
	ID              string                `json:"id"`
	ClassID         string                `json:"classId"`
	TrainerID       string                `json:"trainerId"`
	ClassName       string                `json:"className"`
	ScheduledDate   string                `json:"scheduledDate"`
	ScheduledTime   string                `json:"scheduledTime"`
	Difficulty      domain.Difficulty     `json:"difficulty"`
	Location        domain.Location       `json:"location"`
	MaxBookings     int                   `json:"maxBookings"`
	CurrentBookings int                   `json:"currentBookings"`
	Status          domain.ScheduleStatus `json:"status"`
}

// UpdateStatusRequest transitions a schedule's lifecycle status.
type UpdateStatusRequest struct {
	Status domain.ScheduleStatus `json:"status" binding:"required,oneof=active ongoing completed cancelled"`
}

func mapConflicts(conflicts []scheduling.Conflict) []ConflictResponse {
	out := make([]ConflictResponse, len(conflicts))
	for i, conflict := range conflicts {
		resp := ConflictResponse{Kind: string(conflict.Kind), Message: conflict.Message}
		for _, id := range conflict.ScheduleIDs {
			resp.ScheduleIDs = append(resp.ScheduleIDs, id.Hex())
		}
		out[i] = resp
	}
	return out
}

// MapScheduleToResponse converts a domain.ScheduledClass to its DTO. The
// display name falls back when the denormalized join is missing.
func MapScheduleToResponse(s *domain.ScheduledClass) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:              s.ID.Hex(),
		ClassID:         s.ClassID.Hex(),
		TrainerID:       s.TrainerID.Hex(),
		ClassName:       s.DisplayName(),
		ScheduledDate:   s.ScheduledDate,
		ScheduledTime:   s.ScheduledTime,
		Difficulty:      s.Difficulty,
		Location:        s.Location,
		MaxBookings:     s.MaxBookings,
		CurrentBookings: s.CurrentBookings,
		Status:          s.Status,
	}
}

func scheduleIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid schedule ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Handler Methods ---

// ListSchedules returns schedules in the ?from=...&to=... date range.
// Defaults to the coming week when the range is omitted.
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	now := time.Now()
	from, to := domain.DateOnly(now), domain.DateOnly(now).AddDate(0, 0, 7)

	if raw := c.Query("from"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'from' date.")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'to' date.")
			return
		}
		to = parsed
	}

	schedules, err := h.scheduleService.ListSchedules(c.Request.Context(), from, to)
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "Failed to retrieve schedules.")
		return
	}

	responses := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		responses[i] = MapScheduleToResponse(&s)
	}
	c.JSON(http.StatusOK, responses)
}

// CheckConflicts evaluates a candidate slot against the live snapshot.
// Conflicts are a normal result, not an error status.
func (h *ScheduleHandler) CheckConflicts(c *gin.Context) {
	var req CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	date, _ := domain.ParseDate(req.Date) // Format guaranteed by binding
	timeOfDay, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid time; expected HH:MM.")
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainer ID format.")
		return
	}

	conflicts, err := h.scheduleService.CheckCandidate(c.Request.Context(), scheduling.Candidate{
		Date:      date,
		Time:      timeOfDay,
		Location:  req.Location,
		TrainerID: trainerID,
	})
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "Failed to check conflicts; please retry.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": mapConflicts(conflicts), "clear": len(conflicts) == 0})
}

// PreviewRecurrence expands a recurrence selection for display.
func (h *ScheduleHandler) PreviewRecurrence(c *gin.Context) {
	var req PreviewRecurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	date, _ := domain.ParseDate(req.Date)
	selection, err := req.Recurrence.toSelection()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	preview := h.scheduleService.PreviewRecurrence(date, selection)
	resp := PreviewRecurrenceResponse{More: preview.More, Total: preview.Total, Dates: []string{}}
	for _, d := range preview.Dates {
		resp.Dates = append(resp.Dates, domain.FormatDate(d))
	}
	c.JSON(http.StatusOK, resp)
}

// CommitSchedule runs the scheduling workflow for a completed draft. Admin only.
func (h *ScheduleHandler) CommitSchedule(c *gin.Context) {
	var req CommitScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	classID, err := primitive.ObjectIDFromHex(req.ClassID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid class ID format.")
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainer ID format.")
		return
	}
	date, _ := domain.ParseDate(req.Date)
	timeOfDay, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid time; expected HH:MM.")
		return
	}
	selection, err := req.Recurrence.toSelection()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, conflicts, err := h.scheduleService.CommitDraft(c.Request.Context(), service.ScheduleDraft{
		ClassID:     classID,
		TrainerID:   trainerID,
		Date:        date,
		Time:        timeOfDay,
		Location:    req.Location,
		Difficulty:  req.Difficulty,
		MaxBookings: req.MaxBookings,
		Recurrence:  selection,
	})

	switch {
	case len(conflicts) > 0:
		c.JSON(http.StatusConflict, CommitScheduleResponse{Conflicts: mapConflicts(conflicts)})
		return
	case err != nil:
		switch {
		case errors.Is(err, service.ErrClassNotFound), errors.Is(err, service.ErrTrainerNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotATrainer), errors.Is(err, scheduling.ErrNoDatesToSchedule):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			// Nothing (or nothing at all) was persisted; the draft can be
			// resubmitted as-is.
			abortWithError(c, http.StatusServiceUnavailable, "Schedule store unavailable; please retry.")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to commit schedule.")
		}
		return
	}

	resp := CommitScheduleResponse{Created: result.CreatedCount(), Failed: result.FailedCount()}
	for _, o := range result.Outcomes {
		out := DateOutcomeResponse{Date: domain.FormatDate(o.Date)}
		if o.Err != nil {
			out.Error = o.Err.Error()
		} else {
			out.ScheduleID = o.ScheduleID.Hex()
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateStatus transitions a schedule's lifecycle status. Admin only.
func (h *ScheduleHandler) UpdateStatus(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.scheduleService.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrScheduleNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidStatus):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusServiceUnavailable, "Failed to update status.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteSchedule removes a scheduled class. Admin only.
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	if err := h.scheduleService.DeleteSchedule(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusServiceUnavailable, "Failed to delete schedule.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Book reserves a spot on a scheduled class.
func (h *ScheduleHandler) Book(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	if err := h.scheduleService.BookClass(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrScheduleNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, repository.ErrClassFull):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusServiceUnavailable, "Failed to book class.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelBooking releases a previously booked spot.
func (h *ScheduleHandler) CancelBooking(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	if err := h.scheduleService.CancelBooking(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusServiceUnavailable, "Failed to cancel booking.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}
