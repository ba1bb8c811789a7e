package api

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxTextLength is the longest text the synthesis service accepts, in characters.
const MaxTextLength = 5000

// Prosody ranges offered by the front-ends.
const (
	MinRate   = -100
	MaxRate   = 100
	MinVolume = -100
	MaxVolume = 100
	MinPitch  = -100
	MaxPitch  = 100
)

// Prosody holds the signed speech adjustments. The zero value is neutral.
type Prosody struct {
	Rate   int // percent
	Volume int // percent
	Pitch  int // Hz
}

// RateString formats the rate as the service expects, e.g. "+10%".
func (p Prosody) RateString() string { return fmt.Sprintf("%+d%%", p.Rate) }

// VolumeString formats the volume, e.g. "-5%".
func (p Prosody) VolumeString() string { return fmt.Sprintf("%+d%%", p.Volume) }

// PitchString formats the pitch, e.g. "+0Hz".
func (p Prosody) PitchString() string { return fmt.Sprintf("%+dHz", p.Pitch) }

// Clamp limits every field to the offered ranges.
func (p Prosody) Clamp() Prosody {
	return Prosody{
		Rate:   clamp(p.Rate, MinRate, MaxRate),
		Volume: clamp(p.Volume, MinVolume, MaxVolume),
		Pitch:  clamp(p.Pitch, MinPitch, MaxPitch),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Request is the body of a synthesis call. Field order matches the wire format.
type Request struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Pitch  string `json:"pitch"`
}

// NewRequest builds a request with formatted prosody values.
func NewRequest(text, voice string, p Prosody) Request {
	return Request{
		Text:   text,
		Voice:  voice,
		Rate:   p.RateString(),
		Volume: p.VolumeString(),
		Pitch:  p.PitchString(),
	}
}

// Prosody parses the request's formatted values back into numbers.
func (r Request) Prosody() Prosody {
	return Prosody{
		Rate:   ParseProsodyValue(r.Rate),
		Volume: ParseProsodyValue(r.Volume),
		Pitch:  ParseProsodyValue(r.Pitch),
	}
}

// ParseProsodyValue reads the leading signed integer of values such as
// "+10%" or "-20Hz". Anything unparsable is 0.
func ParseProsodyValue(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for i, r := range s {
		if i == 0 && (r == '+' || r == '-') {
			end = 1
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
