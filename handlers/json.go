package handlers

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxBodySize caps request bodies at 1 MB.
const maxBodySize = 1 << 20

// Error codes returned in the error envelope. Conflict-kind codes share
// HTTP 409 so clients can classify without string matching.
const (
	codeInvalidRequest     = "INVALID_REQUEST"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeEmailTaken         = "EMAIL_TAKEN"
	codeInvalidCode        = "INVALID_CODE"
	codeAlreadyPending     = "ALREADY_PENDING"
	codeAlreadyMember      = "ALREADY_MEMBER"
	codeNotApproved        = "NOT_APPROVED"
	codeAlreadyClockedIn   = "ALREADY_CLOCKED_IN"
	codeNotClockedIn       = "NOT_CLOCKED_IN"
	codeNotFound           = "NOT_FOUND"
	codeForbidden          = "FORBIDDEN"
	codeInternal           = "INTERNAL"
)

type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
