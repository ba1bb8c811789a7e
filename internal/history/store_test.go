package history

import (
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/speakr/internal/storage"
)

// TestStoreRoundTrip tests that a saved list loads back unchanged.
func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(storage.NewMemory())

	want := []Entry{testEntry("second"), testEntry("first")}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Text != want[i].Text || got[i].Params != want[i].Params {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("entry %d timestamp = %v, want %v", i, got[i].Timestamp, want[i].Timestamp)
		}
	}
}

// TestStoreLoadMissing tests that no stored value is an empty history.
func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(storage.NewMemory())

	entries, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

// TestStoreLoadCorrupt tests that unparsable data is reported.
func TestStoreLoadCorrupt(t *testing.T) {
	backend := storage.NewMemory()
	if err := backend.Set(StorageKey, "{not json"); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(backend).Load(); err == nil {
		t.Error("expected an error for corrupt data")
	}
}

// TestUnmarshalLegacy tests loading entries written without IDs.
func TestUnmarshalLegacy(t *testing.T) {
	data := `[{"text":"Hello","voice":"en-US-JennyNeural","voiceName":"Jenny (Female)",` +
		`"locale":"en-US","localeName":"English (United States)",` +
		`"params":{"text":"Hello","voice":"en-US-JennyNeural","rate":"+0%","volume":"+0%","pitch":"+0Hz"},` +
		`"timestamp":"2024-01-02T03:04:05.678Z"}]`

	entries, err := Unmarshal([]byte(data))
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.ID == "" {
		t.Error("expected legacy entry to get an ID")
	}
	if e.DisplayName != "Jenny (Female)" {
		t.Errorf("DisplayName = %q", e.DisplayName)
	}
	want := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	if !e.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", e.Timestamp, want)
	}
}

// TestLegacyIDsStable tests that entries without IDs get the same IDs on
// every load, and distinct IDs when they are otherwise identical.
func TestLegacyIDsStable(t *testing.T) {
	legacy := `{"text":"Hello","voice":"en-US-JennyNeural","timestamp":"2024-01-02T03:04:05.678Z"}`
	backend := storage.NewMemory()
	if err := backend.Set(StorageKey, "["+legacy+","+legacy+"]"); err != nil {
		t.Fatal(err)
	}

	first, err := NewStore(backend).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	second, err := NewStore(backend).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("entry %d: first load id=%s, second load id=%s", i, first[i].ID, second[i].ID)
		}
	}
	if first[0].ID == first[1].ID {
		t.Errorf("identical entries share id %s", first[0].ID)
	}

	// An ID from one load finds the entry in the next.
	hist := NewLog(second)
	if _, err := hist.Get(first[1].ID); err != nil {
		t.Errorf("Get(%s) after reload: %v", first[1].ID, err)
	}
}

// TestMarshalFormat tests the stored JSON layout.
func TestMarshalFormat(t *testing.T) {
	data, err := Marshal(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal(nil) = %s, want []", data)
	}

	data, err = Marshal([]Entry{testEntry("Hello")})
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"voiceName":"Jenny (Female)"`, `"localeName":"English (United States)"`, `"rate":"+10%"`, `"timestamp":"2024-05-01T12:00:00Z"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in %s", field, data)
		}
	}
}

// TestStoreSaveTruncates tests that more than MaxEntries are never stored.
func TestStoreSaveTruncates(t *testing.T) {
	s := NewStore(storage.NewMemory())

	var entries []Entry
	for range MaxEntries + 3 {
		entries = append(entries, testEntry("x"))
	}
	if err := s.Save(entries); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != MaxEntries {
		t.Errorf("loaded %d entries, want %d", len(got), MaxEntries)
	}
}

// TestTimeAgo tests relative timestamps.
func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Just now"},
		{59 * time.Second, "Just now"},
		{60 * time.Second, "1m ago"},
		{59 * time.Minute, "59m ago"},
		{time.Hour, "1h ago"},
		{23 * time.Hour, "23h ago"},
		{24 * time.Hour, "1d ago"},
		{72 * time.Hour, "3d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := TimeAgo(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("TimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}
