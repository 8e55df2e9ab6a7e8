// Package api provides common HTTP API utilities: the JSON error
// envelope, stable reason codes, and the mapping from domain errors to
// HTTP responses.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openregistry/registry-go/internal/identity"
	"github.com/openregistry/registry-go/internal/registry"
)

// Deterministic reason codes for stable error classification.
// These codes should remain stable across versions for client compatibility.
const (
	// Authentication and authorization
	ReasonUnauthenticated = "unauthenticated"
	ReasonNotOwner        = "not_owner"

	// Ownership
	ReasonLastOwner          = "last_owner"
	ReasonAlreadyOwner       = "already_owner"
	ReasonOwnerNotFound      = "owner_not_found"
	ReasonInvitationNotFound = "invitation_not_found"

	// Crates and versions
	ReasonNotFound         = "not_found"
	ReasonNamespaceExists  = "namespace_exists"
	ReasonDuplicateVersion = "duplicate_version"

	// Build info
	ReasonMalformedDescriptor = "malformed_rust_version"
	ReasonUnknownChannel      = "unknown_channel"

	// Request validation
	ReasonBadRequest  = "bad_request"
	ReasonRateLimited = "rate_limited"

	// Server errors
	ReasonUpstreamUnavailable = "upstream_unavailable"
	ReasonInternalError       = "internal_error"
)

// ErrorEnvelope is the standard error response format.
// All error responses use this structure for consistency.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code       string `json:"code"`        // HTTP status text (e.g., "forbidden")
	ReasonCode string `json:"reason_code"` // Deterministic reason code
	Message    string `json:"message"`     // Human-readable message
}

// WriteError writes a standardized JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, reasonCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	envelope := ErrorEnvelope{
		Error: ErrorDetail{
			Code:       http.StatusText(statusCode),
			ReasonCode: reasonCode,
			Message:    message,
		},
	}

	json.NewEncoder(w).Encode(envelope)
}

// WriteBadRequest writes a 400 Bad Request error.
func WriteBadRequest(w http.ResponseWriter, reasonCode, message string) {
	WriteError(w, http.StatusBadRequest, reasonCode, message)
}

// WriteUnauthenticated writes a 401 for requests with no resolvable actor.
func WriteUnauthenticated(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ReasonUnauthenticated, message)
}

// WriteNotFound writes a 404 Not Found error.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ReasonNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error.
// Be careful not to leak sensitive information in the message.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ReasonInternalError, message)
}

// WriteDomainError maps a domain error to its stable HTTP shape. Every
// handler funnels service failures through here so a given error always
// renders the same status and reason code.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		notFound  *registry.NotFoundError
		dupVers   *registry.DuplicateVersionError
		malformed *registry.MalformedDescriptorError
		channel   *registry.ChannelError
		noOwner   *registry.OwnerNotFoundError
	)

	switch {
	case errors.Is(err, identity.ErrNoActor), errors.Is(err, identity.ErrUnknownActor):
		WriteError(w, http.StatusUnauthorized, ReasonUnauthenticated, "this action requires authentication")
	case errors.Is(err, registry.ErrInsufficientRights):
		WriteError(w, http.StatusForbidden, ReasonNotOwner, err.Error())
	case errors.Is(err, registry.ErrLastOwner):
		WriteError(w, http.StatusBadRequest, ReasonLastOwner, err.Error())
	case errors.Is(err, registry.ErrAlreadyOwner):
		WriteError(w, http.StatusBadRequest, ReasonAlreadyOwner, err.Error())
	case errors.Is(err, registry.ErrInvitationNotFound):
		WriteError(w, http.StatusNotFound, ReasonInvitationNotFound, err.Error())
	case errors.Is(err, registry.ErrNamespaceExistsChildMissing):
		WriteError(w, http.StatusForbidden, ReasonNamespaceExists, err.Error())
	case errors.As(err, &noOwner):
		WriteError(w, http.StatusNotFound, ReasonOwnerNotFound, err.Error())
	case errors.As(err, &notFound):
		WriteError(w, http.StatusNotFound, ReasonNotFound, err.Error())
	case errors.As(err, &dupVers):
		WriteError(w, http.StatusConflict, ReasonDuplicateVersion, err.Error())
	case errors.As(err, &malformed):
		WriteError(w, http.StatusBadRequest, ReasonMalformedDescriptor, err.Error())
	case errors.As(err, &channel):
		WriteError(w, http.StatusBadRequest, ReasonUnknownChannel, err.Error())
	case registry.Retryable(err):
		WriteError(w, http.StatusServiceUnavailable, ReasonUpstreamUnavailable,
			"a collaborating service is unavailable, please retry")
	default:
		WriteInternalError(w, "internal server error")
	}
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteOK writes the `{"ok": true}` acknowledgement mutations return.
func WriteOK(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
