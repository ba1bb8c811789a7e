package api

import "testing"

// TestProsodyFormatting tests signed value formatting.
func TestProsodyFormatting(t *testing.T) {
	tests := []struct {
		p                   Prosody
		rate, volume, pitch string
	}{
		{Prosody{}, "+0%", "+0%", "+0Hz"},
		{Prosody{Rate: 10, Volume: -20, Pitch: 5}, "+10%", "-20%", "+5Hz"},
		{Prosody{Rate: -100, Volume: 100, Pitch: -50}, "-100%", "+100%", "-50Hz"},
	}

	for _, tt := range tests {
		if got := tt.p.RateString(); got != tt.rate {
			t.Errorf("RateString(%d) = %s, want %s", tt.p.Rate, got, tt.rate)
		}
		if got := tt.p.VolumeString(); got != tt.volume {
			t.Errorf("VolumeString(%d) = %s, want %s", tt.p.Volume, got, tt.volume)
		}
		if got := tt.p.PitchString(); got != tt.pitch {
			t.Errorf("PitchString(%d) = %s, want %s", tt.p.Pitch, got, tt.pitch)
		}
	}
}

// TestParseProsodyValue tests leading-integer parsing.
func TestParseProsodyValue(t *testing.T) {
	tests := map[string]int{
		"+10%":  10,
		"-20%":  -20,
		"+0Hz":  0,
		"-5Hz":  -5,
		"15":    15,
		"":      0,
		"+":     0,
		"abc":   0,
		" +7% ": 7,
	}

	for in, want := range tests {
		if got := ParseProsodyValue(in); got != want {
			t.Errorf("ParseProsodyValue(%q) = %d, want %d", in, got, want)
		}
	}
}

// TestRequestProsodyRoundTrip tests that formatted values parse back.
func TestRequestProsodyRoundTrip(t *testing.T) {
	p := Prosody{Rate: -30, Volume: 15, Pitch: -2}
	if got := NewRequest("x", "v", p).Prosody(); got != p {
		t.Errorf("Round trip = %+v, want %+v", got, p)
	}
}

// TestProsodyClamp tests range limiting.
func TestProsodyClamp(t *testing.T) {
	got := Prosody{Rate: 500, Volume: -500, Pitch: 3}.Clamp()
	want := Prosody{Rate: MaxRate, Volume: MinVolume, Pitch: 3}
	if got != want {
		t.Errorf("Clamp = %+v, want %+v", got, want)
	}
}
