// Package response writes the JSON envelopes used by every job API
// endpoint: single objects under "data", collections with paging "meta",
// and errors under "error" with an UPPER_SNAKE code.
package response

import (
	"encoding/json"
	"net/http"
)

const (
	// DefaultPageLimit applies when a list request names no usable limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps how many jobs one page may carry.
	MaxPageLimit = 100
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type collectionEnvelope struct {
	Data any            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type PaginationMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

// NewPaginationMeta derives paging metadata from the requested page/limit
// and the total row count, normalizing out-of-range values the same way the
// store does.
func NewPaginationMeta(page, limit, total int) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	return PaginationMeta{
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasNext: page*limit < total,
	}
}

// JSON writes data in the standard envelope with status 200.
func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dataEnvelope{Data: data})
}

// Created writes data in the standard envelope with status 201.
func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, dataEnvelope{Data: data})
}

// Accepted writes data in the standard envelope with status 202, used for
// job operations that run asynchronously.
func Accepted(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusAccepted, dataEnvelope{Data: data})
}

// Collection writes a paged list with its metadata.
func Collection(w http.ResponseWriter, data any, meta PaginationMeta) {
	writeJSON(w, http.StatusOK, collectionEnvelope{Data: data, Meta: meta})
}

// Error writes the error envelope. details is optional and omitted when nil.
func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
