package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestResourceRevoke tests that revoking removes the backing file.
func TestResourceRevoke(t *testing.T) {
	r, err := NewResource([]byte("ID3 audio"), t.TempDir())
	if err != nil {
		t.Fatalf("NewResource error: %v", err)
	}
	if r.Size() != 9 {
		t.Errorf("Size() = %d, want 9", r.Size())
	}
	if _, err := os.Stat(r.Path()); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}

	if err := r.Revoke(); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if _, err := os.Stat(r.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file to be removed, stat error: %v", err)
	}
	if err := r.Revoke(); err != nil {
		t.Errorf("second Revoke error: %v", err)
	}
	if _, err := r.Open(); !errors.Is(err, ErrRevoked) {
		t.Errorf("Open after revoke error = %v, want ErrRevoked", err)
	}
}

// TestNewResourceEmpty tests that an empty payload is rejected.
func TestNewResourceEmpty(t *testing.T) {
	if _, err := NewResource(nil, t.TempDir()); !errors.Is(err, ErrNoAudio) {
		t.Errorf("error = %v, want ErrNoAudio", err)
	}
}

// TestSlotReplaceRevokesPrevious tests that a slot keeps one live resource.
func TestSlotReplaceRevokesPrevious(t *testing.T) {
	dir := t.TempDir()
	first, err := NewResource([]byte("one"), dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewResource([]byte("two"), dir)
	if err != nil {
		t.Fatal(err)
	}

	var slot Slot
	slot.Replace(first)
	slot.Replace(second)

	if !first.Revoked() {
		t.Error("expected first resource to be revoked")
	}
	if second.Revoked() {
		t.Error("expected second resource to stay live")
	}
	if slot.Current() != second {
		t.Error("Current() is not the latest resource")
	}

	slot.Replace(second)
	if second.Revoked() {
		t.Error("replacing with the same resource revoked it")
	}

	if err := slot.Release(); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if !second.Revoked() || slot.Current() != nil {
		t.Error("expected Release to revoke and clear")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files left, found %d", len(entries))
	}
}

// TestDownloadName tests file name sanitizing and truncation.
func TestDownloadName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"simple", "Hello", "speakr-Hello-1700000000123.mp3"},
		{"punctuation", "Hello, world!", "speakr-Hello__world_-1700000000123.mp3"},
		{"truncated", strings.Repeat("a", 40), "speakr-" + strings.Repeat("a", 30) + "-1700000000123.mp3"},
		{"unicode", "héllo", "speakr-h_llo-1700000000123.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DownloadName(tt.text, now); got != tt.want {
				t.Errorf("DownloadName(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

// TestDownload tests copying a resource to the download directory.
func TestDownload(t *testing.T) {
	r, err := NewResource([]byte("mp3 bytes"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "downloads")
	now := time.UnixMilli(42)
	path, err := Download(r, dir, "Hi there", now)
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if filepath.Base(path) != "speakr-Hi_there-42.mp3" {
		t.Errorf("unexpected path %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mp3 bytes" {
		t.Errorf("downloaded content = %q", data)
	}

	if _, err := Download(nil, dir, "x", now); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Download(nil) error = %v, want ErrNoAudio", err)
	}
	_ = r.Revoke()
	if _, err := Download(r, dir, "x", now); !errors.Is(err, ErrRevoked) {
		t.Errorf("Download(revoked) error = %v, want ErrRevoked", err)
	}
}

// TestPlayerConfig tests the player configuration validation.
func TestPlayerConfig(t *testing.T) {
	valid := DefaultPlayerConfig()

	tests := []struct {
		name      string
		mutate    func(*PlayerConfig)
		expectErr bool
	}{
		{"default", func(*PlayerConfig) {}, false},
		{"48000Hz stereo", func(c *PlayerConfig) { c.SampleRate = 48000; c.Channels = 2 }, false},
		{"invalid sample rate", func(c *PlayerConfig) { c.SampleRate = 22050 }, true},
		{"invalid channels", func(c *PlayerConfig) { c.Channels = 3 }, true},
		{"zero buffer", func(c *PlayerConfig) { c.BufferSize = 0 }, true},
		{"no ffmpeg", func(c *PlayerConfig) { c.FFmpeg = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewOtoPlayer(cfg)
			if (err != nil) != tt.expectErr {
				t.Errorf("NewOtoPlayer() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

// TestOtoPlayerRejectsRevoked tests that playback never starts for a
// revoked resource.
func TestOtoPlayerRejectsRevoked(t *testing.T) {
	p, err := NewOtoPlayer(DefaultPlayerConfig())
	if err != nil {
		t.Fatal(err)
	}
	p.decode = func(context.Context, string) ([]byte, error) {
		t.Fatal("decode should not be called")
		return nil, nil
	}

	r, err := NewResource([]byte("x"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = r.Revoke()

	if err := p.Play(context.Background(), r); !errors.Is(err, ErrRevoked) {
		t.Errorf("Play error = %v, want ErrRevoked", err)
	}
	if err := p.Play(context.Background(), nil); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Play(nil) error = %v, want ErrNoAudio", err)
	}
}

// TestOtoPlayerDecodeError tests that decode failures are returned.
func TestOtoPlayerDecodeError(t *testing.T) {
	p, err := NewOtoPlayer(DefaultPlayerConfig())
	if err != nil {
		t.Fatal(err)
	}
	want := errors.New("decode failed")
	p.decode = func(context.Context, string) ([]byte, error) { return nil, want }

	r, err := NewResource([]byte("x"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Play(context.Background(), r); !errors.Is(err, want) {
		t.Errorf("Play error = %v, want %v", err, want)
	}
	if p.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", p.State())
	}

	_ = p.Close()
	if err := p.Play(context.Background(), r); err == nil {
		t.Error("expected error playing on a closed player")
	}
}

// TestNopPlayer tests the silent player.
func TestNopPlayer(t *testing.T) {
	var p Player = NopPlayer{}
	r, err := NewResource([]byte("x"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Play(context.Background(), r); err != nil {
		t.Errorf("Play error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Play(ctx, r); !errors.Is(err, context.Canceled) {
		t.Errorf("Play with canceled context error = %v", err)
	}
}
