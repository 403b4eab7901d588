package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nikolayk812/wardrobe/internal/domain"
)

const codeUnauthenticated = "UNAUTHENTICATED"

var codeStatuses = map[domain.Code]int{
	domain.CodeNotFound:          http.StatusNotFound,
	domain.CodeForbidden:         http.StatusForbidden,
	domain.CodeInvalidState:      http.StatusConflict,
	domain.CodeInvalidTransition: http.StatusUnprocessableEntity,
	domain.CodeValidation:        http.StatusBadRequest,
	domain.CodeSelfFollow:        http.StatusBadRequest,
	domain.CodeAlreadyFollowing:  http.StatusConflict,
	domain.CodeConflict:          http.StatusConflict,
	domain.CodeUpstream:          http.StatusBadGateway,
	domain.CodeInternal:          http.StatusInternalServerError,
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithCode(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, errorResponse{Code: code, Message: message})
}

// respondWithError maps err onto the error taxonomy. Unclassified errors are
// logged and answered with a generic message.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := codeStatuses[code]

	if code == domain.CodeInternal {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithCode(w, status, string(code), "internal error")
		return
	}

	if code == domain.CodeUpstream {
		logger.Warn("upstream failure", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithCode(w, status, string(code), domain.ErrUpstream.Error())
		return
	}

	var constraintErr *domain.ConstraintError
	if errors.As(err, &constraintErr) {
		logger.Warn("constraint violated", "method", r.Method, "path", r.URL.Path,
			"constraint", constraintErr.Constraint, "error", err)
	}

	respondWithCode(w, status, string(code), publicMessage(err))
}

// publicMessage strips call-site prefixes, keeping the sentinel and what follows it.
func publicMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrSelfFollow, domain.ErrAlreadyFollowing, domain.ErrInvalidTransition,
		domain.ErrNotFound, domain.ErrForbidden, domain.ErrInvalidState,
		domain.ErrValidation, domain.ErrConflict,
	} {
		if !errors.Is(err, sentinel) {
			continue
		}
		msg := err.Error()
		if i := strings.Index(msg, sentinel.Error()); i >= 0 {
			return msg[i:]
		}
		return sentinel.Error()
	}
	return err.Error()
}
