// Package voice holds the voice catalog and the helpers that filter it.
package voice

import "fmt"

// Voice describes one synthesis voice as reported by the service.
type Voice struct {
	Name        string `json:"Name"`
	ShortName   string `json:"ShortName,omitempty"`
	Gender      string `json:"Gender"`
	Locale      string `json:"Locale"`
	LocaleName  string `json:"LocaleName"`
	LocalName   string `json:"LocalName"`
	DisplayName string `json:"DisplayName,omitempty"`
	Status      string `json:"Status,omitempty"`
}

// Option is the label shown for a voice in pickers, e.g. "Jenny (Female)".
func (v Voice) Option() string {
	name := v.LocalName
	if name == "" {
		name = v.Name
	}
	return fmt.Sprintf("%s (%s)", name, v.Gender)
}

// Genders offered by the gender filter. Empty means any.
var Genders = []string{"", "Female", "Male"}

// Language is a distinct locale in the catalog.
type Language struct {
	Locale string
	Name   string
}
