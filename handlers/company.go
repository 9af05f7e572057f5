package handlers

import (
	"errors"
	"net/http"
	"strings"

	"staffsync/middleware"
	"staffsync/models"
	"staffsync/store"
)

type CompanyHandler struct {
	store store.Store
}

func NewCompanyHandler(st store.Store) *CompanyHandler {
	return &CompanyHandler{store: st}
}

type companyRequest struct {
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourlyRate"`
}

type companyResponse struct {
	Company *models.Company `json:"company"`
}

// Create makes the caller the owner of a new company. Users with a pending
// or approved membership cannot create one; rejected users can start over.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if user.HasActiveMembership() {
		writeError(w, http.StatusConflict, codeAlreadyMember, "you already belong to a company")
		return
	}

	var req companyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "company name is required")
		return
	}
	if req.HourlyRate < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "hourly rate must not be negative")
		return
	}

	company := &models.Company{
		Name:       name,
		HourlyRate: req.HourlyRate,
		OwnerID:    user.ID,
	}

	// The store promotes the caller to owner in the same transaction.
	// Regenerate on the rare code collision.
	for attempt := 0; ; attempt++ {
		code, err := models.GenerateJoinCode()
		if err != nil {
			internalError(w)
			return
		}
		company.Code = code

		err = h.store.CreateCompanyWithOwner(r.Context(), company, user)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicate) && attempt < 5 {
			continue
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, companyResponse{Company: company})
}

// UpdateSettings lets the owner rename the company or change its hourly
// rate. The new rate applies to all subsequent report derivations.
func (h *CompanyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	company, err := h.store.CompanyByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "company not found")
		return
	}

	var req companyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "company name is required")
		return
	}
	if req.HourlyRate < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "hourly rate must not be negative")
		return
	}

	company.Name = name
	company.HourlyRate = req.HourlyRate
	if err := h.store.SaveCompany(r.Context(), company); err != nil {
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, companyResponse{Company: company})
}
