package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrTokenExpired          = errors.New("access token expired")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("already exists")
	ErrBadRequest            = errors.New("bad request")
	ErrServer                = errors.New("server error")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// APIError is a non-2xx answer from the server. It unwraps to one of the
// sentinels above so callers can use errors.Is.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized && e.Code == "token_expired":
		return ErrTokenExpired
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status == http.StatusBadRequest:
		return ErrBadRequest
	case e.Status >= 500:
		return ErrServer
	}
	return nil
}

func decodeError(resp *http.Response) error {
	e := &APIError{Status: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(b) > 0 {
		_ = json.Unmarshal(b, e)
	}
	return e
}
