package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Player plays audio resources. Play blocks until playback ends, Stop is
// called, or ctx is done.
type Player interface {
	Play(ctx context.Context, r *Resource) error
	Stop() error
	Close() error
}

// PlayerState represents the current state of a player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PlayerConfig contains configuration for the oto player.
type PlayerConfig struct {
	SampleRate    int // 44100 or 48000 Hz only
	Channels      int // 1 = mono, 2 = stereo
	BufferSize    int // bytes
	FFmpeg        string
	DecodeTimeout time.Duration
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate:    44100,
		Channels:      1,
		BufferSize:    4096,
		FFmpeg:        "ffmpeg",
		DecodeTimeout: 15 * time.Second,
	}
}

func validateConfig(config PlayerConfig) error {
	// oto only supports these rates reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	if config.FFmpeg == "" {
		return errors.New("ffmpeg path must not be empty")
	}
	return nil
}

// OtoPlayer decodes resources with ffmpeg and plays them through oto. The
// oto context is created on first use since a process may only hold one.
type OtoPlayer struct {
	config PlayerConfig
	decode func(ctx context.Context, path string) ([]byte, error)

	initOnce sync.Once
	context  *oto.Context
	initErr  error

	mu     sync.Mutex
	player *oto.Player
	pcm    []byte // keeps the buffer alive while oto reads it
	state  atomic.Int32
}

// NewOtoPlayer creates a player. No audio device is opened until Play.
func NewOtoPlayer(config PlayerConfig) (*OtoPlayer, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &OtoPlayer{config: config}
	p.decode = func(ctx context.Context, path string) ([]byte, error) {
		return DecodeMP3(ctx, config, path)
	}
	p.state.Store(int32(StateStopped))
	return p, nil
}

func (p *OtoPlayer) ensureContext() error {
	p.initOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   p.config.SampleRate,
			ChannelCount: p.config.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   time.Duration(p.config.BufferSize) * time.Second / time.Duration(p.config.SampleRate*p.config.Channels*2),
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			p.initErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		p.context = ctx
	})
	return p.initErr
}

// Play decodes r and plays it to completion.
func (p *OtoPlayer) Play(ctx context.Context, r *Resource) error {
	if r == nil {
		return ErrNoAudio
	}
	if p.State() == StateClosed {
		return errors.New("player is closed")
	}
	if r.Revoked() {
		return ErrRevoked
	}

	pcm, err := p.decode(ctx, r.Path())
	if err != nil {
		return err
	}
	if err := p.ensureContext(); err != nil {
		return err
	}

	p.mu.Lock()
	p.stopLocked()
	data := make([]byte, len(pcm))
	copy(data, pcm)
	player := p.context.NewPlayer(bytes.NewReader(data))
	p.player = player
	p.pcm = data
	player.Play()
	p.state.Store(int32(StatePlaying))
	p.mu.Unlock()

	log.Debug("playing audio", "path", r.Path(), "pcm_bytes", len(data))

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.stopIf(player)
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				err := player.Err()
				p.stopIf(player)
				return err
			}
		}
	}
}

// stopIf stops playback only if player is still the active one.
func (p *OtoPlayer) stopIf(player *oto.Player) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == player {
		p.stopLocked()
	}
}

func (p *OtoPlayer) stopLocked() {
	if p.player != nil {
		p.player.Pause()
		if err := p.player.Close(); err != nil {
			log.Debug("failed to close oto player", "error", err)
		}
		p.player = nil
	}
	p.pcm = nil
	if p.State() != StateClosed {
		p.state.Store(int32(StateStopped))
	}
}

// Stop halts playback. A blocked Play returns once it notices.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	return nil
}

// Close stops playback and rejects further Play calls.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.state.Store(int32(StateClosed))
	return nil
}

// State returns the current player state.
func (p *OtoPlayer) State() PlayerState {
	return PlayerState(p.state.Load())
}

// NopPlayer accepts every resource without producing sound.
type NopPlayer struct{}

func (NopPlayer) Play(ctx context.Context, r *Resource) error {
	if r == nil {
		return ErrNoAudio
	}
	return ctx.Err()
}

func (NopPlayer) Stop() error  { return nil }
func (NopPlayer) Close() error { return nil }
