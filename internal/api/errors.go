package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorKind 是对外错误的分类，决定 HTTP 状态码。
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindAuthentication
	KindAccessDenied
	KindNotFound
	KindUpstream
	KindParse
	KindSignature
)

// apiError 携带分类与用户可见的消息。
type apiError struct {
	kind    ErrorKind
	message string
	cause   error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.cause }

func errValidation(message string) error {
	return &apiError{kind: KindValidation, message: message}
}

func errAuthentication(message string) error {
	return &apiError{kind: KindAuthentication, message: message}
}

func errNotFound(message string) error {
	return &apiError{kind: KindNotFound, message: message}
}

func errAccessDenied(message string) error {
	return &apiError{kind: KindAccessDenied, message: message}
}

func errUpstream(message string, cause error) error {
	return &apiError{kind: KindUpstream, message: message, cause: cause}
}

func errParse(message string, cause error) error {
	return &apiError{kind: KindParse, message: message, cause: cause}
}

func errSignature(message string) error {
	return &apiError{kind: KindSignature, message: message}
}

func statusFor(kind ErrorKind) int {
	switch kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAccessDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusInternalServerError
	case KindParse:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		writeJSON(w, statusFor(apiErr.kind), map[string]string{"error": apiErr.message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
