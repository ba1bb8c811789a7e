// Package history keeps the bounded log of past synthesis requests.
package history

import (
	"time"

	"github.com/dgnsrekt/speakr/internal/api"
	"github.com/google/uuid"
)

// Entry records one successful synthesis. JSON names follow the stored
// format so lists written by older clients still load.
type Entry struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	Voice       string      `json:"voice"`
	DisplayName string      `json:"voiceName"`
	Locale      string      `json:"locale"`
	LocaleName  string      `json:"localeName"`
	Params      api.Request `json:"params"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewEntry builds an entry for req with a fresh ID, stamped at now.
func NewEntry(req api.Request, displayName, locale, localeName string, now time.Time) Entry {
	return Entry{
		ID:          uuid.NewString(),
		Text:        req.Text,
		Voice:       req.Voice,
		DisplayName: displayName,
		Locale:      locale,
		LocaleName:  localeName,
		Params:      req,
		Timestamp:   now.UTC().Truncate(time.Millisecond),
	}
}

// Prosody returns the entry's parsed rate, volume and pitch.
func (e Entry) Prosody() api.Prosody {
	return e.Params.Prosody()
}

// Label is the voice line shown under the text, e.g. "Jenny (Female) - English".
func (e Entry) Label() string {
	name := e.DisplayName
	if name == "" {
		name = e.Voice
	}
	if e.LocaleName != "" {
		return name + " - " + e.LocaleName
	}
	return name
}
