package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const downloadPrefixLen = 30

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]`)

// DownloadName builds a file name from the first 30 characters of text,
// with anything outside [A-Za-z0-9] replaced by "_", and a millisecond
// timestamp.
func DownloadName(text string, now time.Time) string {
	runes := []rune(text)
	if len(runes) > downloadPrefixLen {
		runes = runes[:downloadPrefixLen]
	}
	slug := unsafeName.ReplaceAllString(string(runes), "_")
	return fmt.Sprintf("speakr-%s-%d.mp3", slug, now.UnixMilli())
}

// Download copies r into dir under DownloadName and returns the new path.
func Download(r *Resource, dir, text string, now time.Time) (string, error) {
	if r == nil {
		return "", ErrNoAudio
	}

	src, err := r.Open()
	if err != nil {
		return "", err
	}
	defer src.Close() //nolint:errcheck

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	dest := filepath.Join(dir, DownloadName(text, now))
	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, nil
}
