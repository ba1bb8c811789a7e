package controller

import "errors"

// ErrBusy is returned when the same action is already in flight.
var ErrBusy = errors.New("request already in progress")

// User-facing messages.
const (
	MsgEmptyText      = "Please enter some text"
	MsgTextTooLong    = "Text exceeds maximum length of 5000 characters"
	MsgNoVoice        = "Please select a voice"
	MsgNoTestVoice    = "Please select a voice first"
	MsgVoicesLoaded   = "Voices loaded successfully"
	MsgVoicesFailed   = "Failed to load voices. Please check the server connection."
	MsgGenerated      = "Speech generated successfully!"
	MsgHistoryLoaded  = "History item loaded"
	MsgHistoryMemory  = "History could not be saved and will only be kept for this session"
	MsgHistoryUnread  = "Saved history could not be read; starting with an empty history"
	MsgVoiceFiltered  = "Voice is not available for the selected filters"
	MsgNoGenerated    = "Generate speech before downloading"
	genericSynthesis  = "Failed to generate speech"
	genericTest       = "Failed to generate test speech"
	synthesisHint     = "Try selecting a different voice or reload the voice list."
	testHint          = "This voice may not be available. Try reloading the voice list."
	testingStatusForm = "Testing voice: \"%s\""
)

// ValidationError rejects input before any request is made.
type ValidationError struct {
	Field   string // "text" or "voice"
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
