package handlers

import (
	"errors"
	"net/http"
	"time"

	"staffsync/middleware"
	"staffsync/models"
	"staffsync/store"
	"staffsync/timesheet"
)

type ClockHandler struct {
	store store.Store
	now   func() time.Time
}

func NewClockHandler(st store.Store) *ClockHandler {
	return &ClockHandler{store: st, now: time.Now}
}

type clockInResponse struct {
	Entry *models.ClockEntry `json:"entry"`
}

// In opens a clock session. Only approved staff may clock in, and only one
// session may be open at a time; the store serializes concurrent attempts.
func (h *ClockHandler) In(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if !user.IsApprovedStaff() {
		writeError(w, http.StatusConflict, codeNotApproved, "membership not approved")
		return
	}

	entry, err := h.store.OpenClockEntry(r.Context(), user.ID, h.now())
	if err != nil {
		if errors.Is(err, store.ErrOpenEntry) {
			writeError(w, http.StatusConflict, codeAlreadyClockedIn, "already clocked in")
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, clockInResponse{Entry: entry})
}

// Out closes the open session; the entry becomes immutable history.
func (h *ClockHandler) Out(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if _, err := h.store.CloseClockEntry(r.Context(), user.ID, h.now()); err != nil {
		if errors.Is(err, store.ErrNoOpenEntry) {
			writeError(w, http.StatusConflict, codeNotClockedIn, "not clocked in")
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

type clockStatusResponse struct {
	User         *models.User        `json:"user"`
	Company      *models.Company     `json:"company,omitempty"`
	Active       *models.ClockEntry  `json:"active,omitempty"`
	TodayEntries []models.ClockEntry `json:"todayEntries"`
}

// Status returns the authoritative snapshot the client reconciles against:
// the fresh user record, the bound company, the open session if any, and
// today's entries in chronological order. It performs no state transition.
func (h *ClockHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	resp := clockStatusResponse{User: user}

	if user.IsOwner() {
		if company, err := h.store.CompanyByOwner(r.Context(), user.ID); err == nil {
			resp.Company = company
		}
	} else if user.CompanyID != nil {
		if company, err := h.store.CompanyByID(r.Context(), *user.CompanyID); err == nil {
			resp.Company = company
		}
	}

	active, err := h.store.ActiveEntry(r.Context(), user.ID)
	if err != nil {
		internalError(w)
		return
	}
	resp.Active = active

	dayStart, dayEnd := timesheet.Bounds(timesheet.PeriodDay, h.now())
	today, err := h.store.EntriesBetween(r.Context(), user.ID, dayStart, dayEnd)
	if err != nil {
		internalError(w)
		return
	}
	if today == nil {
		today = []models.ClockEntry{}
	}
	resp.TodayEntries = today

	writeJSON(w, http.StatusOK, resp)
}
