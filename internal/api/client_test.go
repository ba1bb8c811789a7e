package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/api", RequestsPerMinute: -1})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

// TestVoicesCacheBuster tests that each catalog load carries a fresh query.
func TestVoicesCacheBuster(t *testing.T) {
	var queries []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/voices" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		queries = append(queries, r.URL.Query().Get("_"))
		_, _ = w.Write([]byte(`[{"Name":"en-US-JennyNeural","Locale":"en-US","LocaleName":"English","LocalName":"Jenny","Gender":"Female"}]`))
	}))

	tick := time.UnixMilli(1000)
	c.now = func() time.Time { tick = tick.Add(time.Millisecond); return tick }

	for i := 0; i < 2; i++ {
		voices, err := c.Voices(context.Background())
		if err != nil {
			t.Fatalf("Voices failed: %v", err)
		}
		if len(voices) != 1 || voices[0].LocalName != "Jenny" {
			t.Fatalf("Unexpected voices: %+v", voices)
		}
	}

	if len(queries) != 2 || queries[0] == "" || queries[0] == queries[1] {
		t.Errorf("Cache busters should differ, got %v", queries)
	}
}

// TestVoicesFailure tests that a failing catalog call is a network error.
func TestVoicesFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Failed to fetch voices: boom"}`, http.StatusInternalServerError)
	}))

	_, err := c.Voices(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if apiErr.Kind != KindNetwork || apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Unexpected error: %+v", apiErr)
	}
}

// TestSynthesizeRequestBody tests the exact wire body of a synthesis call.
func TestSynthesizeRequestBody(t *testing.T) {
	var gotBody string
	var gotMethod, gotType string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))

	req := NewRequest("Hello", "en-US-JennyNeural", Prosody{Rate: 10})
	audio, err := c.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "ID3audio" {
		t.Errorf("Audio = %q", audio)
	}

	want := `{"text":"Hello","voice":"en-US-JennyNeural","rate":"+10%","volume":"+0%","pitch":"+0Hz"}`
	if gotBody != want {
		t.Errorf("Body = %s\nwant   %s", gotBody, want)
	}
	if gotMethod != http.MethodPost || gotType != "application/json" {
		t.Errorf("Method/Content-Type = %s %s", gotMethod, gotType)
	}
}

// TestSynthesizeErrors tests message extraction and voice error rephrasing.
func TestSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name:     "structured detail",
			status:   http.StatusBadRequest,
			body:     `{"detail":"Text cannot be empty"}`,
			wantKind: KindNetwork,
			wantMsg:  "Text cannot be empty",
		},
		{
			name:     "unstructured body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			wantKind: KindNetwork,
			wantMsg:  "Failed to generate speech",
		},
		{
			name:     "worker error field",
			status:   http.StatusServiceUnavailable,
			body:     `{"error":"Network unavailable"}`,
			wantKind: KindNetwork,
			wantMsg:  "Network unavailable",
		},
		{
			name:     "no audio",
			status:   http.StatusBadRequest,
			body:     `{"detail":"No audio was generated. Check your parameters."}`,
			wantKind: KindVoiceUnavailable,
			wantMsg:  "Voice error: No audio was generated. Check your parameters.. Try selecting a different voice or reload the voice list.",
		},
		{
			name:     "invalid voice",
			status:   http.StatusInternalServerError,
			body:     `{"detail":"Invalid voice 'xx'"}`,
			wantKind: KindVoiceUnavailable,
			wantMsg:  "Voice error: Invalid voice 'xx'. Try selecting a different voice or reload the voice list.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.Synthesize(context.Background(), NewRequest("hi", "v", Prosody{}))
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", apiErr.Kind, tt.wantKind)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q\nwant      %q", apiErr.Message, tt.wantMsg)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
		})
	}
}

// TestSynthesizeEmptyAudio tests that an empty 200 is a voice error.
func TestSynthesizeEmptyAudio(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := c.Synthesize(context.Background(), NewRequest("hi", "v", Prosody{}))
	if !IsVoiceUnavailable(err) {
		t.Fatalf("Expected voice unavailable error, got %v", err)
	}
	if !errors.Is(err, ErrEmptyAudio) {
		t.Error("Error should wrap ErrEmptyAudio")
	}
}

// TestTransportFailure tests that an unreachable server is a network error.
func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url, RequestsPerMinute: -1})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = c.Synthesize(context.Background(), NewRequest("hi", "v", Prosody{}))
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNetwork || apiErr.Status != 0 {
		t.Fatalf("Expected transport network error, got %#v", err)
	}
}

// TestHealth tests the health endpoint handling.
func TestHealth(t *testing.T) {
	status := "healthy"
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "service": "edge-tts-api"})
	}))

	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}

	status = "degraded"
	if err := c.Health(context.Background()); !errors.Is(err, ErrUnhealthy) {
		t.Errorf("Expected ErrUnhealthy, got %v", err)
	}
}

// TestNewClientRequiresBaseURL tests configuration validation.
func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil || !strings.Contains(err.Error(), "base URL") {
		t.Errorf("Expected base URL error, got %v", err)
	}
}
