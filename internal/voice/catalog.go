package voice

import (
	"slices"
	"sort"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Labels for empty selections.
const (
	LabelSelectLanguage = "Select language first"
	LabelNoVoices       = "No voices available for selected filters"
)

// Catalog is the immutable set of voices fetched at startup.
type Catalog struct {
	voices []Voice
	byName map[string]int
}

// NewCatalog copies voices into a catalog.
func NewCatalog(voices []Voice) *Catalog {
	c := &Catalog{
		voices: slices.Clone(voices),
		byName: make(map[string]int, len(voices)),
	}
	for i, v := range c.voices {
		if _, ok := c.byName[v.Name]; !ok {
			c.byName[v.Name] = i
		}
	}
	return c
}

// Len returns the number of voices.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.voices)
}

// Voices returns a copy of every voice in service order.
func (c *Catalog) Voices() []Voice {
	if c == nil {
		return nil
	}
	return slices.Clone(c.voices)
}

// Find returns the voice with the given name.
func (c *Catalog) Find(name string) (Voice, bool) {
	if c == nil {
		return Voice{}, false
	}
	i, ok := c.byName[name]
	if !ok {
		return Voice{}, false
	}
	return c.voices[i], true
}

// Languages returns the distinct locales sorted by code, each named after the
// first voice that carries it.
func (c *Catalog) Languages() []Language {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var langs []Language
	for _, v := range c.voices {
		if seen[v.Locale] {
			continue
		}
		seen[v.Locale] = true
		name := v.LocaleName
		if name == "" {
			name = v.Locale
		}
		langs = append(langs, Language{Locale: v.Locale, Name: name})
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Locale < langs[j].Locale })
	return langs
}

// LanguageName returns the display name for locale, or locale itself.
func (c *Catalog) LanguageName(locale string) string {
	if c != nil {
		for _, v := range c.voices {
			if v.Locale == locale && v.LocaleName != "" {
				return v.LocaleName
			}
		}
	}
	return locale
}

// Selection is the result of filtering the catalog.
type Selection struct {
	Voices []Voice
	// Label explains an empty selection; it is empty when Voices is not.
	Label string
}

// Empty reports whether there is nothing to pick.
func (s Selection) Empty() bool {
	return len(s.Voices) == 0
}

// Contains reports whether a voice named name is in the selection.
func (s Selection) Contains(name string) bool {
	return slices.ContainsFunc(s.Voices, func(v Voice) bool { return v.Name == name })
}

// Filter returns the voices for locale, optionally narrowed by gender, sorted
// by their localized name. No locale yields an empty, labeled selection.
func (c *Catalog) Filter(locale, gender string) Selection {
	if locale == "" {
		return Selection{Label: LabelSelectLanguage}
	}

	var out []Voice
	if c != nil {
		for _, v := range c.voices {
			if v.Locale != locale {
				continue
			}
			if gender != "" && v.Gender != gender {
				continue
			}
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return Selection{Label: LabelNoVoices}
	}

	SortByLocalName(out, locale)
	return Selection{Voices: out}
}

// SortByLocalName sorts voices by LocalName using the collation rules of
// locale, falling back to root collation for unknown tags.
func SortByLocalName(voices []Voice, locale string) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	col := collate.New(tag)
	sort.SliceStable(voices, func(i, j int) bool {
		return col.CompareString(voices[i].LocalName, voices[j].LocalName) < 0
	})
}

// voiceSource adapts a voice slice for fuzzy matching.
type voiceSource []Voice

func (s voiceSource) String(i int) string {
	v := s[i]
	return v.Name + " " + v.LocalName + " " + v.LocaleName
}

func (s voiceSource) Len() int { return len(s) }

// Search fuzzy-matches query against voice names and locales, best first.
func (c *Catalog) Search(query string) []Voice {
	if c == nil || query == "" {
		return nil
	}
	matches := fuzzy.FindFrom(query, voiceSource(c.voices))
	out := make([]Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.voices[m.Index])
	}
	return out
}
