package handlers

import (
	"errors"
	"net/http"
	"strings"

	"staffsync/middleware"
	"staffsync/models"
	"staffsync/store"
)

type RequestHandler struct {
	store store.Store
}

func NewRequestHandler(st store.Store) *RequestHandler {
	return &RequestHandler{store: st}
}

type joinRequest struct {
	Code string `json:"code"`
}

type joinResponse struct {
	CompanyName string `json:"companyName"`
}

// Join submits a join code. A rejected user may resubmit; that creates a
// fresh request rather than reviving the resolved one.
func (h *RequestHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if user.HasActiveMembership() {
		writeError(w, http.StatusConflict, codeAlreadyMember, "you already belong to a company")
		return
	}

	var req joinRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	company, err := h.store.CompanyByCode(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusConflict, codeInvalidCode, "no company matches this code")
		return
	}

	join := &models.JoinRequest{
		UserID:    user.ID,
		CompanyID: company.ID,
		Status:    models.StatusPending,
	}
	// The store marks the user PENDING in the same transaction; no company
	// binding happens until the owner approves.
	if err := h.store.CreatePendingRequest(r.Context(), join); err != nil {
		if errors.Is(err, store.ErrPendingRequest) {
			writeError(w, http.StatusConflict, codeAlreadyPending, "a join request is already pending")
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, joinResponse{CompanyName: company.Name})
}

type listRequestsResponse struct {
	Requests []models.JoinRequest `json:"requests"`
}

// List returns the pending requests for the owner's company, oldest first.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	company, err := h.store.CompanyByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "company not found")
		return
	}

	requests, err := h.store.PendingRequestsByCompany(r.Context(), company.ID)
	if err != nil {
		internalError(w)
		return
	}
	if requests == nil {
		requests = []models.JoinRequest{}
	}

	writeJSON(w, http.StatusOK, listRequestsResponse{Requests: requests})
}

type respondRequest struct {
	RequestID uint   `json:"requestId"`
	Action    string `json:"action"`
}

// Respond approves or rejects one pending request. Only the owner of the
// request's target company may resolve it, and each request resolves
// exactly once.
func (h *RequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req respondRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}
	if req.Action != "approve" && req.Action != "reject" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "action must be approve or reject")
		return
	}

	company, err := h.store.CompanyByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "company not found")
		return
	}

	join, err := h.store.JoinRequestByID(r.Context(), req.RequestID)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "request not found")
		return
	}
	if join.CompanyID != company.ID {
		writeError(w, http.StatusForbidden, codeForbidden, "request belongs to another company")
		return
	}

	if _, err := h.store.ResolveRequest(r.Context(), join.ID, req.Action == "approve"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "request not found")
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

type statusResponse struct {
	Status models.MembershipStatus `json:"status"`
}

// Status reports the caller's own join status, derived from their latest
// request so a waiting client can poll for the owner's decision.
func (h *RequestHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	status := user.Status
	if latest, err := h.store.LatestRequestByUser(r.Context(), user.ID); err == nil {
		status = latest.Status
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: status})
}
