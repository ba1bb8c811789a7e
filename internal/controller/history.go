package controller

import (
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speakr/internal/history"
)

// History returns the log, newest first.
func (c *Controller) History() []history.Entry {
	return c.history.Entries()
}

// PersistentHistory reports whether history is still being saved.
func (c *Controller) PersistentHistory() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persist
}

// LoadEntry restores the form from a history entry: text, language, voice
// and prosody. The language filter is derived from the entry's voice before
// the voice is selected. A gender filter that would hide the voice is reset.
func (c *Controller) LoadEntry(id string) (history.Entry, error) {
	entry, err := c.history.Get(id)
	if err != nil {
		return history.Entry{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = entry.Text
	if v, ok := c.catalog.Find(entry.Voice); ok {
		c.locale = v.Locale
		if !c.catalog.Filter(c.locale, c.gender).Contains(v.Name) {
			c.gender = ""
		}
		c.voiceName = v.Name
	}
	c.prosody = entry.Prosody().Clamp()
	c.setStatus(MsgHistoryLoaded, LevelInfo)

	return entry, nil
}

// DeleteEntry removes an entry without confirmation.
func (c *Controller) DeleteEntry(id string) error {
	if err := c.history.Delete(id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.saveHistoryLocked()
	return nil
}

// ClearHistory removes every entry.
func (c *Controller) ClearHistory() error {
	c.history.Clear()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.persist {
		return nil
	}
	if err := c.store.Clear(); err != nil {
		c.degradeLocked(err)
		return err
	}
	return nil
}

// saveHistoryLocked writes the log. A failed write switches history to
// memory only and leaves a warning; the action that changed history has
// still succeeded.
func (c *Controller) saveHistoryLocked() {
	if !c.persist {
		return
	}
	if err := c.store.Save(c.history.Entries()); err != nil {
		c.degradeLocked(err)
	}
}

func (c *Controller) degradeLocked(err error) {
	log.Warn("history storage failed, keeping history in memory", "error", err)
	c.persist = false
	c.setStatus(MsgHistoryMemory, LevelWarning)
}
