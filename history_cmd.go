package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/speakr/internal/history"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	clearYes bool

	historyCmd = &cobra.Command{
		Use:     "history",
		Aliases: []string{"h"},
		Short:   "Show and manage past synthesis requests",
		Long:    paragraph(fmt.Sprintf("\n%s the last %d synthesis requests. Entries can be shown in full, deleted, or cleared.", keyword("List"), history.MaxEntries)),
		Args:    cobra.NoArgs,
		RunE:    runHistoryList,
	}

	historyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List history entries, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}

	historyShowCmd = &cobra.Command{
		Use:   "show ID",
		Short: "Show one history entry",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}

	historyDeleteCmd = &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete one history entry",
		Args:    cobra.ExactArgs(1),
		RunE:    runHistoryDelete,
	}

	historyClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}
)

func init() {
	historyClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "don't ask for confirmation")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd)
}

func openHistory() (*app, error) {
	a, err := newApp(cfg, false)
	if err != nil {
		return nil, err
	}
	if err := a.ctrl.LoadHistory(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func runHistoryList(*cobra.Command, []string) error {
	a, err := openHistory()
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	entries := a.ctrl.History()
	if len(entries) == 0 {
		fmt.Println(subtle("No history yet."))
		return nil
	}
	printHistory(os.Stdout, entries, time.Now(), terminalWidth())
	return nil
}

func printHistory(w io.Writer, entries []history.Entry, now time.Time, width int) {
	for _, e := range entries {
		head := fmt.Sprintf("%s  %-9s  %s", shortID(e.ID), history.TimeAgo(e.Timestamp, now), e.Label())
		text := strings.Join(strings.Fields(e.Text), " ")
		fmt.Fprintln(w, keyword(truncate.StringWithTail(head, uint(width), "…")))    //nolint:gosec
		fmt.Fprintln(w, "  "+truncate.StringWithTail(text, uint(max(width-2, 1)), "…")) //nolint:gosec
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID finds the entry whose ID starts with prefix. A prefix matching
// more than one entry is an error.
func resolveID(entries []history.Entry, prefix string) (history.Entry, error) {
	var found []history.Entry
	for _, e := range entries {
		if e.ID == prefix {
			return e, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return history.Entry{}, fmt.Errorf("%w: %s", history.ErrEntryNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return history.Entry{}, fmt.Errorf("ID prefix %q is ambiguous", prefix)
	}
}

func runHistoryShow(_ *cobra.Command, args []string) error {
	a, err := openHistory()
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	e, err := resolveID(a.ctrl.History(), args[0])
	if err != nil {
		return err
	}

	style := styles.AutoStyle
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		style = styles.NoTTYStyle
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(min(terminalWidth(), 120)),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(entryMarkdown(e, time.Now()))
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	fmt.Print(out)
	return nil
}

// entryMarkdown describes an entry as a small markdown document.
func entryMarkdown(e history.Entry, now time.Time) string {
	p := e.Prosody()
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Label())
	for _, line := range strings.Split(strings.TrimSpace(e.Text), "\n") {
		fmt.Fprintf(&b, "> %s\n", line)
	}
	b.WriteString("\n| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Voice | `%s` |\n", e.Voice)
	if e.Locale != "" {
		fmt.Fprintf(&b, "| Language | %s (`%s`) |\n", e.LocaleName, e.Locale)
	}
	fmt.Fprintf(&b, "| Rate | %s |\n", p.RateString())
	fmt.Fprintf(&b, "| Volume | %s |\n", p.VolumeString())
	fmt.Fprintf(&b, "| Pitch | %s |\n", p.PitchString())
	fmt.Fprintf(&b, "| Created | %s (%s) |\n", e.Timestamp.Local().Format(time.DateTime), history.TimeAgo(e.Timestamp, now))
	fmt.Fprintf(&b, "| ID | `%s` |\n", e.ID)
	return b.String()
}

func runHistoryDelete(_ *cobra.Command, args []string) error {
	a, err := openHistory()
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	e, err := resolveID(a.ctrl.History(), args[0])
	if err != nil {
		return err
	}
	if err := a.ctrl.DeleteEntry(e.ID); err != nil {
		return err
	}
	if !a.ctrl.PersistentHistory() {
		return errors.New(a.ctrl.Status().Message)
	}
	fmt.Println("Deleted", shortID(e.ID))
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if !clearYes {
		if !isTerminal() {
			return errors.New("refusing to clear history without --yes")
		}
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Clear all history?")
		if err != nil || !ok {
			return err
		}
	}

	a, err := openHistory()
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	if err := a.ctrl.ClearHistory(); err != nil {
		return err
	}
	fmt.Println("History cleared")
	return nil
}

func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
