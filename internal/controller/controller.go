// Package controller owns the state behind every front-end: the voice
// catalog and filters, the text and prosody being composed, the audio
// produced so far, and the history log.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speakr/internal/api"
	"github.com/dgnsrekt/speakr/internal/audio"
	"github.com/dgnsrekt/speakr/internal/history"
	"github.com/dgnsrekt/speakr/internal/voice"
)

// Service is the part of the synthesis API the controller uses.
type Service interface {
	Voices(ctx context.Context) ([]voice.Voice, error)
	SynthesizeWith(ctx context.Context, req api.Request, opts api.SynthesizeOptions) ([]byte, error)
	Health(ctx context.Context) error
}

// Deps are the collaborators of a Controller.
type Deps struct {
	API Service

	// History persists the log. Nil keeps history in memory only.
	History *history.Store

	// Player auto-plays tested voices. Nil leaves playback to the caller.
	Player audio.Player

	// AudioDir holds temp audio files (system temp dir when empty).
	AudioDir string

	Now  func() time.Time
	Pick voice.Picker
}

// Result is the outcome of a successful Generate or TestVoice.
type Result struct {
	Audio  *audio.Resource
	Entry  *history.Entry // nil for voice tests
	Sample string         // sample sentence, voice tests only
}

// Controller is the single owner of front-end state. It is safe for
// concurrent use.
type Controller struct {
	api      Service
	store    *history.Store
	player   audio.Player
	audioDir string
	now      func() time.Time
	pick     voice.Picker

	history *history.Log

	mu        sync.Mutex
	catalog   *voice.Catalog
	text      string
	locale    string
	gender    string
	voiceName string
	prosody   api.Prosody
	status    Status
	online    bool
	persist   bool
	lastText  string

	generating atomic.Bool
	testing    atomic.Bool

	generated audio.Slot
	tested    audio.Slot
}

// New creates a controller. Call Init before use.
func New(d Deps) *Controller {
	c := &Controller{
		api:      d.API,
		store:    d.History,
		player:   d.Player,
		audioDir: d.AudioDir,
		now:      d.Now,
		pick:     d.Pick,
		history:  history.NewLog(nil),
		catalog:  voice.NewCatalog(nil),
		persist:  d.History != nil,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.pick == nil {
		c.pick = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)) //nolint:gosec
	}
	return c
}

// Init loads the voice catalog, then the saved history. A catalog failure is
// returned after history has been loaded; the controller stays usable.
func (c *Controller) Init(ctx context.Context) error {
	catalogErr := c.LoadCatalog(ctx)
	if err := c.LoadHistory(); err != nil {
		log.Warn("failed to load history", "error", err)
	}
	return catalogErr
}

// LoadCatalog fetches the voice list. On failure the catalog is left empty.
func (c *Controller) LoadCatalog(ctx context.Context) error {
	voices, err := c.api.Voices(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		log.Error("failed to load voices", "error", err)
		c.catalog = voice.NewCatalog(nil)
		c.setStatus(MsgVoicesFailed, LevelError)
		return err
	}

	c.catalog = voice.NewCatalog(voices)
	c.refilterLocked()
	c.setStatus(MsgVoicesLoaded, LevelSuccess)
	log.Info("voices loaded", "count", c.catalog.Len())
	return nil
}

// LoadHistory replaces the in-memory log with the stored one. It does
// nothing once history has fallen back to memory.
func (c *Controller) LoadHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.persist {
		return nil
	}

	entries, err := c.store.Load()
	if err != nil {
		c.setStatus(MsgHistoryUnread, LevelWarning)
		return err
	}
	c.history.Replace(entries)
	return nil
}

// Catalog returns the loaded voice catalog.
func (c *Controller) Catalog() *voice.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.catalog
}

// Languages lists the locales in the catalog.
func (c *Controller) Languages() []voice.Language {
	return c.Catalog().Languages()
}

// SelectLanguage sets the locale filter and returns the new selection.
func (c *Controller) SelectLanguage(locale string) voice.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.locale = locale
	return c.refilterLocked()
}

// SelectGender sets the gender filter ("" for any).
func (c *Controller) SelectGender(gender string) voice.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gender = gender
	return c.refilterLocked()
}

// Selection returns the voices matching the current filters.
func (c *Controller) Selection() voice.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.catalog.Filter(c.locale, c.gender)
}

// refilterLocked keeps the selected voice if it still matches the filters,
// otherwise selects the first match.
func (c *Controller) refilterLocked() voice.Selection {
	sel := c.catalog.Filter(c.locale, c.gender)
	if !sel.Contains(c.voiceName) {
		c.voiceName = ""
		if !sel.Empty() {
			c.voiceName = sel.Voices[0].Name
		}
	}
	return sel
}

// SelectVoice picks a voice from the current selection.
func (c *Controller) SelectVoice(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.catalog.Filter(c.locale, c.gender).Contains(name) {
		return &ValidationError{Field: "voice", Message: MsgVoiceFiltered}
	}
	c.voiceName = name
	return nil
}

// Locale returns the selected locale.
func (c *Controller) Locale() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locale
}

// Gender returns the gender filter.
func (c *Controller) Gender() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gender
}

// Voice returns the selected voice name.
func (c *Controller) Voice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voiceName
}

// Text returns the text being composed.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// SetText replaces the text being composed.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

// CharCountLevel grades the current text length.
func (c *Controller) CharCountLevel() CharLevel {
	return CharCountLevel(utf8.RuneCountInString(c.Text()))
}

// Prosody returns the current rate, volume and pitch.
func (c *Controller) Prosody() api.Prosody {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prosody
}

// SetProsody sets rate, volume and pitch, clamped to their ranges.
func (c *Controller) SetProsody(p api.Prosody) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prosody = p.Clamp()
}

// ClearForm resets the text and prosody and hides the status.
func (c *Controller) ClearForm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = ""
	c.prosody = api.Prosody{}
	c.status = Status{}
}

// Status returns the current status message.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) setStatus(msg string, level Level) {
	c.status = Status{Message: msg, Level: level}
}

// Generating reports whether a Generate call is in flight.
func (c *Controller) Generating() bool { return c.generating.Load() }

// Testing reports whether a TestVoice call is in flight.
func (c *Controller) Testing() bool { return c.testing.Load() }

// Generate validates the form, synthesizes it, and records the result in
// history. The error is a *ValidationError, an *api.Error, or ErrBusy.
func (c *Controller) Generate(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	text := strings.TrimSpace(c.text)
	voiceName := c.voiceName
	prosody := c.prosody

	if err := validate(text, voiceName); err != nil {
		c.setStatus(err.Message, LevelError)
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	if !c.generating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.generating.Store(false)

	c.mu.Lock()
	c.status = Status{}
	c.mu.Unlock()

	req := api.NewRequest(text, voiceName, prosody)
	res, err := c.synthesize(ctx, req, api.SynthesizeOptions{GenericMessage: genericSynthesis, VoiceHint: synthesisHint})
	if err != nil {
		return nil, err
	}
	c.generated.Replace(res)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastText = text
	displayName, locale, localeName := voiceName, "", ""
	if v, ok := c.catalog.Find(voiceName); ok {
		displayName, locale, localeName = v.Option(), v.Locale, v.LocaleName
	}
	entry := c.history.Add(history.NewEntry(req, displayName, locale, localeName, c.now()))

	c.setStatus(MsgGenerated, LevelSuccess)
	c.saveHistoryLocked()

	log.Info("speech generated", "voice", voiceName, "chars", utf8.RuneCountInString(text), "bytes", res.Size())
	return &Result{Audio: res, Entry: &entry}, nil
}

// TestVoice synthesizes a sample sentence for the selected language. The
// audio is played right away when a Player is configured.
func (c *Controller) TestVoice(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	voiceName := c.voiceName
	locale := c.locale
	prosody := c.prosody

	if voiceName == "" || locale == "" {
		err := &ValidationError{Field: "voice", Message: MsgNoTestVoice}
		c.setStatus(err.Message, LevelError)
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	if !c.testing.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.testing.Store(false)

	sample := voice.SampleSentence(locale, c.pick)
	req := api.NewRequest(sample, voiceName, prosody)
	res, err := c.synthesize(ctx, req, api.SynthesizeOptions{GenericMessage: genericTest, VoiceHint: testHint})
	if err != nil {
		return nil, err
	}
	c.tested.Replace(res)

	if c.player != nil {
		go func() {
			if err := c.player.Play(context.Background(), res); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("failed to play test audio", "error", err)
			}
		}()
	}

	c.mu.Lock()
	c.setStatus(fmt.Sprintf(testingStatusForm, sample), LevelInfo)
	c.mu.Unlock()

	return &Result{Audio: res, Sample: sample}, nil
}

func (c *Controller) synthesize(ctx context.Context, req api.Request, opts api.SynthesizeOptions) (*audio.Resource, error) {
	data, err := c.api.SynthesizeWith(ctx, req, opts)
	if err == nil {
		var res *audio.Resource
		res, err = audio.NewResource(data, c.audioDir)
		if err == nil {
			return res, nil
		}
	}

	log.Error("synthesis failed", "voice", req.Voice, "error", err)
	c.mu.Lock()
	c.setStatus(err.Error(), LevelError)
	c.mu.Unlock()
	return nil, err
}

func validate(text, voiceName string) *ValidationError {
	switch {
	case text == "":
		return &ValidationError{Field: "text", Message: MsgEmptyText}
	case utf8.RuneCountInString(text) > api.MaxTextLength:
		return &ValidationError{Field: "text", Message: MsgTextTooLong}
	case voiceName == "":
		return &ValidationError{Field: "voice", Message: MsgNoVoice}
	}
	return nil
}

// Play plays the last generated audio and blocks until it ends.
func (c *Controller) Play(ctx context.Context) error {
	if c.player == nil {
		return errors.New("no audio player configured")
	}
	res := c.generated.Current()
	if res == nil {
		return audio.ErrNoAudio
	}
	return c.player.Play(ctx, res)
}

// Generated returns the last generated audio, or nil.
func (c *Controller) Generated() *audio.Resource { return c.generated.Current() }

// Tested returns the last test audio, or nil.
func (c *Controller) Tested() *audio.Resource { return c.tested.Current() }

// Download copies the last generated audio into dir. The file is named
// after the text it was generated from.
func (c *Controller) Download(dir string) (string, error) {
	res := c.generated.Current()
	if res == nil {
		return "", &ValidationError{Field: "audio", Message: MsgNoGenerated}
	}

	c.mu.Lock()
	text := c.lastText
	c.mu.Unlock()

	path, err := audio.Download(res, dir, text, c.now())
	if err != nil {
		return "", err
	}
	log.Info("audio downloaded", "path", path)
	return path, nil
}

// CheckOnline pings the service health endpoint and records the result.
func (c *Controller) CheckOnline(ctx context.Context) bool {
	err := c.api.Health(ctx)
	if err != nil {
		log.Debug("health check failed", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.online = err == nil
	return c.online
}

// Online returns the result of the last CheckOnline.
func (c *Controller) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Close revokes all audio resources.
func (c *Controller) Close() error {
	return errors.Join(c.generated.Release(), c.tested.Release())
}
