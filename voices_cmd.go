package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgnsrekt/speakr/internal/voice"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	voicesLocale    string
	voicesGender    string
	voicesSearch    string
	voicesLanguages bool

	voicesCmd = &cobra.Command{
		Use:   "voices",
		Short: "List the available voices",
		Long:  paragraph(fmt.Sprintf("\n%s the voices offered by the synthesis service, optionally filtered by language and gender or fuzzy-searched by name.", keyword("List"))),
		Example: paragraph(`speakr voices --locale en-GB
speakr voices --locale ja-JP --gender Female
speakr voices --search jenny
speakr voices --languages`),
		Args: cobra.NoArgs,
		RunE: runVoices,
	}
)

func init() {
	voicesCmd.Flags().StringVarP(&voicesLocale, "locale", "l", "", "only voices for this locale, e.g. en-US")
	voicesCmd.Flags().StringVarP(&voicesGender, "gender", "g", "", "only voices of this gender (Female or Male)")
	voicesCmd.Flags().StringVarP(&voicesSearch, "search", "s", "", "fuzzy search by name or language")
	voicesCmd.Flags().BoolVar(&voicesLanguages, "languages", false, "list languages instead of voices")
}

func runVoices(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	if err := a.ctrl.LoadCatalog(cmd.Context()); err != nil {
		return err
	}
	catalog := a.ctrl.Catalog()

	if voicesLanguages {
		printLanguages(os.Stdout, catalog.Languages())
		return nil
	}

	var voices []voice.Voice
	switch {
	case voicesSearch != "":
		voices = catalog.Search(voicesSearch)
	case voicesLocale != "":
		sel := catalog.Filter(voicesLocale, normalizeGender(voicesGender))
		if sel.Empty() {
			return fmt.Errorf("%s (%s)", sel.Label, voicesLocale)
		}
		voices = sel.Voices
	default:
		voices = catalog.Voices()
	}
	if voicesGender != "" && voicesLocale == "" {
		voices = filterGender(voices, normalizeGender(voicesGender))
	}

	printVoices(os.Stdout, voices, isTerminal())
	return nil
}

// normalizeGender accepts "female", "F", etc.
func normalizeGender(g string) string {
	switch strings.ToLower(g) {
	case "f", "female":
		return "Female"
	case "m", "male":
		return "Male"
	}
	return g
}

func filterGender(voices []voice.Voice, gender string) []voice.Voice {
	out := voices[:0:0]
	for _, v := range voices {
		if v.Gender == gender {
			out = append(out, v)
		}
	}
	return out
}

func printLanguages(w io.Writer, langs []voice.Language) {
	for _, l := range langs {
		fmt.Fprintf(w, "%-12s %s\n", l.Locale, l.Name)
	}
}

// printVoices writes one voice per line. Columns are padded by display
// width on a terminal and tab-separated otherwise.
func printVoices(w io.Writer, voices []voice.Voice, pretty bool) {
	if !pretty {
		for _, v := range voices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Name, v.Gender, v.Locale, v.LocalName)
		}
		return
	}

	nameWidth, localWidth := 0, 0
	for _, v := range voices {
		nameWidth = max(nameWidth, runewidth.StringWidth(v.Name))
		localWidth = max(localWidth, runewidth.StringWidth(v.LocalName))
	}
	for _, v := range voices {
		fmt.Fprintf(w, "%s  %s  %-6s  %s\n",
			keyword(runewidth.FillRight(v.Name, nameWidth)),
			runewidth.FillRight(v.LocalName, localWidth),
			v.Gender,
			subtle(v.LocaleName),
		)
	}
}
