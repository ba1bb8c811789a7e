package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Common API errors
var (
	// ErrEmptyAudio indicates the service answered 200 with no payload
	ErrEmptyAudio = errors.New("no audio was generated")

	// ErrUnhealthy indicates the health endpoint did not report healthy
	ErrUnhealthy = errors.New("service is not healthy")
)

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	// KindNetwork covers transport failures and non-success statuses.
	KindNetwork ErrorKind = "NETWORK"

	// KindVoiceUnavailable is a network error whose message points at the
	// selected voice.
	KindVoiceUnavailable ErrorKind = "VOICE_UNAVAILABLE"
)

// Error is returned by every failed Client call.
type Error struct {
	Kind    ErrorKind
	Status  int // 0 when the request never got a response
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsVoiceUnavailable reports whether err is an *Error of KindVoiceUnavailable.
func IsVoiceUnavailable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindVoiceUnavailable
}

// errorBody is the structured failure payload. The synthesis service sends
// detail; the offline worker sends error.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// extractMessage pulls a message out of a failure body, falling back to
// generic when the body is not structured.
func extractMessage(body []byte, generic string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return generic
	}
	if eb.Detail != "" {
		return eb.Detail
	}
	if eb.Error != "" {
		return eb.Error
	}
	return generic
}

// mentionsVoice matches the service's voice-related failures.
func mentionsVoice(msg string) bool {
	return strings.Contains(msg, "No audio") || strings.Contains(msg, "voice")
}

// newStatusError builds the error for a non-success response.
func newStatusError(status int, body []byte, generic, voiceHint string) *Error {
	msg := extractMessage(body, generic)
	if mentionsVoice(msg) {
		return &Error{
			Kind:    KindVoiceUnavailable,
			Status:  status,
			Message: fmt.Sprintf("Voice error: %s. %s", msg, voiceHint),
		}
	}
	return &Error{Kind: KindNetwork, Status: status, Message: msg}
}
