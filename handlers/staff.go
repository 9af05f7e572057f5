package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"staffsync/middleware"
	"staffsync/models"
	"staffsync/store"
	"staffsync/timesheet"
)

// StaffHandler serves the derived views: per-user hours summaries, the
// owner's live staff list and the salary report. Everything here is
// recomputed from clock entries on demand.
type StaffHandler struct {
	store store.Store
	now   func() time.Time
}

func NewStaffHandler(st store.Store) *StaffHandler {
	return &StaffHandler{store: st, now: time.Now}
}

const historyLimit = 50

type bucketTotals struct {
	Ms       int64   `json:"ms"`
	Earnings float64 `json:"earnings"`
}

type hoursResponse struct {
	Today      bucketTotals        `json:"today"`
	Week       bucketTotals        `json:"week"`
	Month      bucketTotals        `json:"month"`
	HourlyRate float64             `json:"hourlyRate"`
	History    []models.ClockEntry `json:"history"`
}

// Hours returns the caller's worked-time and earnings buckets for the
// current day, week and month, plus recent closed entries.
func (h *StaffHandler) Hours(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	now := h.now()

	var rate float64
	if user.CompanyID != nil {
		company, err := h.store.CompanyByID(r.Context(), *user.CompanyID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			internalError(w)
			return
		}
		if err == nil {
			rate = company.HourlyRate
		}
	}

	// One fetch covering the widest bucket; the week may straddle a month
	// boundary on either side.
	weekStart, weekEnd := timesheet.Bounds(timesheet.PeriodWeek, now)
	monthStart, monthEnd := timesheet.Bounds(timesheet.PeriodMonth, now)
	from, to := weekStart, weekEnd
	if monthStart.Before(from) {
		from = monthStart
	}
	if monthEnd.After(to) {
		to = monthEnd
	}

	entries, err := h.store.EntriesBetween(r.Context(), user.ID, from, to)
	if err != nil {
		internalError(w)
		return
	}

	resp := hoursResponse{
		Today:      totalsFor(entries, timesheet.PeriodDay, now, rate),
		Week:       totalsFor(entries, timesheet.PeriodWeek, now, rate),
		Month:      totalsFor(entries, timesheet.PeriodMonth, now, rate),
		HourlyRate: rate,
	}

	history, err := h.store.ClosedEntries(r.Context(), user.ID, historyLimit)
	if err != nil {
		internalError(w)
		return
	}
	if history == nil {
		history = []models.ClockEntry{}
	}
	resp.History = history

	writeJSON(w, http.StatusOK, resp)
}

func totalsFor(entries []models.ClockEntry, p timesheet.Period, ref time.Time, rate float64) bucketTotals {
	d := timesheet.Bucket(entries, p, ref)
	return bucketTotals{
		Ms:       d.Milliseconds(),
		Earnings: timesheet.RoundCents(timesheet.Earnings(d, rate)),
	}
}

type staffMember struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	ClockedIn bool   `json:"clockedIn"`
}

type staffListResponse struct {
	Staff []staffMember `json:"staff"`
}

// List returns the owner's approved staff with a live clocked-in flag,
// ordered by name.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	company, err := h.store.CompanyByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "company not found")
		return
	}

	staff, err := h.store.ApprovedStaff(r.Context(), company.ID)
	if err != nil {
		internalError(w)
		return
	}

	members := make([]staffMember, 0, len(staff))
	for _, s := range staff {
		active, err := h.store.ActiveEntry(r.Context(), s.ID)
		if err != nil {
			internalError(w)
			return
		}
		members = append(members, staffMember{
			Name:      s.Name,
			Email:     s.Email,
			ClockedIn: active != nil,
		})
	}
	sortByName(members, func(m staffMember) string { return m.Name })

	writeJSON(w, http.StatusOK, staffListResponse{Staff: members})
}

type salaryRow struct {
	Name     string  `json:"name"`
	HoursMs  int64   `json:"hoursMs"`
	Earnings float64 `json:"earnings"`
}

type salaryReportResponse struct {
	Report        []salaryRow `json:"report"`
	HourlyRate    float64     `json:"hourlyRate"`
	TotalEarnings float64     `json:"totalEarnings"`
}

// SalaryReport aggregates closed entries per staff member over the
// requested period. Rows are ordered by name for determinism; the grand
// total is accumulated unrounded and rounded once.
func (h *StaffHandler) SalaryReport(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	period, err := timesheet.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "period must be daily, weekly or monthly")
		return
	}

	company, err := h.store.CompanyByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "company not found")
		return
	}

	staff, err := h.store.ApprovedStaff(r.Context(), company.ID)
	if err != nil {
		internalError(w)
		return
	}

	start, end := timesheet.Bounds(period, h.now())

	rows := make([]salaryRow, 0, len(staff))
	var total float64
	for _, s := range staff {
		entries, err := h.store.EntriesBetween(r.Context(), s.ID, start, end)
		if err != nil {
			internalError(w)
			return
		}
		worked := timesheet.SumClosed(entries, start, end)
		earnings := timesheet.Earnings(worked, company.HourlyRate)
		total += earnings
		rows = append(rows, salaryRow{
			Name:     s.Name,
			HoursMs:  worked.Milliseconds(),
			Earnings: timesheet.RoundCents(earnings),
		})
	}
	sortByName(rows, func(row salaryRow) string { return row.Name })

	writeJSON(w, http.StatusOK, salaryReportResponse{
		Report:        rows,
		HourlyRate:    company.HourlyRate,
		TotalEarnings: timesheet.RoundCents(total),
	})
}

// sortByName orders report rows case-insensitively by display name.
func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}
