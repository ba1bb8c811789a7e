package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speakr/internal/api"
	"github.com/dgnsrekt/speakr/internal/audio"
	"github.com/dgnsrekt/speakr/internal/textproc"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	speakVoice     string
	speakRate      int
	speakVolume    int
	speakPitch     int
	speakMarkdown  bool
	speakCode      bool
	speakClipboard bool
	speakOut       string
	speakPlay      bool
	speakTest      bool

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Synthesize text once and save or play it",
		Long: paragraph(fmt.Sprintf("\n%s text with the given voice. Text comes from the arguments, stdin, or the clipboard. The MP3 is saved to the download directory unless --play is given without --out.", keyword("Speak"))),
		Example: paragraph(`speakr speak --voice en-US-JennyNeural "Hello there"
cat README.md | speakr speak --markdown --voice en-GB-RyanNeural --rate 10 --play
speakr speak --voice fr-FR-DeniseNeural --test`),
		Args: cobra.ArbitraryArgs,
		RunE: runSpeak,
	}
)

func init() {
	speakCmd.Flags().StringVarP(&speakVoice, "voice", "v", "", "voice name, e.g. en-US-JennyNeural (see 'speakr voices')")
	speakCmd.Flags().IntVarP(&speakRate, "rate", "r", 0, "speaking rate adjustment in percent (-100 to 100)")
	speakCmd.Flags().IntVar(&speakVolume, "volume", 0, "volume adjustment in percent (-100 to 100)")
	speakCmd.Flags().IntVar(&speakPitch, "pitch", 0, "pitch adjustment in Hz (-100 to 100)")
	speakCmd.Flags().BoolVar(&speakMarkdown, "markdown", false, "treat the input as markdown and read only its prose")
	speakCmd.Flags().BoolVar(&speakCode, "code", false, "with --markdown, also read code blocks")
	speakCmd.Flags().BoolVarP(&speakClipboard, "clipboard", "c", false, "read the text from the clipboard")
	speakCmd.Flags().StringVarP(&speakOut, "out", "o", "", "output file or directory, or - for stdout")
	speakCmd.Flags().BoolVarP(&speakPlay, "play", "p", false, "play the audio")
	speakCmd.Flags().BoolVar(&speakTest, "test", false, "speak a sample sentence in the voice's language")
	_ = speakCmd.MarkFlagRequired("voice")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	if err := a.init(ctx); err != nil {
		return err
	}

	v, ok := a.ctrl.Catalog().Find(speakVoice)
	if !ok {
		return fmt.Errorf("unknown voice %q (see 'speakr voices')", speakVoice)
	}
	a.ctrl.SelectLanguage(v.Locale)
	a.ctrl.SelectGender("")
	if err := a.ctrl.SelectVoice(v.Name); err != nil {
		return err
	}
	a.ctrl.SetProsody(api.Prosody{Rate: speakRate, Volume: speakVolume, Pitch: speakPitch})

	if speakTest {
		res, err := a.ctrl.TestVoice(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, subtle(res.Sample))
		return playResource(ctx, res.Audio)
	}

	text, err := readSpeakText(args)
	if err != nil {
		return err
	}
	a.ctrl.SetText(text)

	res, err := a.ctrl.Generate(ctx)
	if err != nil {
		return err
	}
	log.Info("speech generated", "voice", v.Name, "size", res.Audio.Size())

	if speakOut != "" || !speakPlay {
		if err := saveSpeech(a, res.Audio); err != nil {
			return err
		}
	}
	if speakPlay {
		return playResource(ctx, res.Audio)
	}
	return nil
}

// readSpeakText picks the input in order: clipboard, arguments, stdin.
func readSpeakText(args []string) (string, error) {
	var text string
	switch {
	case speakClipboard:
		s, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("unable to read clipboard: %w", err)
		}
		text = s
	case len(args) > 0:
		text = strings.Join(args, " ")
	default:
		pipe, err := stdinIsPipe()
		if err != nil {
			return "", err
		}
		if !pipe {
			return "", errors.New("no text given: pass it as an argument, pipe it to stdin, or use --clipboard")
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read from stdin: %w", err)
		}
		text = string(b)
	}

	if speakMarkdown {
		return textproc.FromMarkdown(text, textproc.Options{IncludeCode: speakCode})
	}
	return text, nil
}

func saveSpeech(a *app, r *audio.Resource) error {
	out := speakOut
	switch {
	case out == "-":
		f, err := r.Open()
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
		_, err = io.Copy(os.Stdout, f)
		return err
	case out == "":
		out = a.cfg.Download.Dir
	}

	if info, err := os.Stat(out); err == nil && info.IsDir() || out == a.cfg.Download.Dir {
		p, err := a.ctrl.Download(out)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %s (%s)\n", keyword(p), humanize.Bytes(uint64(r.Size()))) //nolint:gosec
		return nil
	}

	if err := copyResource(r, out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved %s (%s)\n", keyword(out), humanize.Bytes(uint64(r.Size()))) //nolint:gosec
	return nil
}

func copyResource(r *audio.Resource, path string) error {
	src, err := r.Open()
	if err != nil {
		return err
	}
	defer src.Close() //nolint:errcheck

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return dst.Close()
}

func playResource(ctx context.Context, r *audio.Resource) error {
	p := newPlayer(cfg.Audio)
	defer p.Close() //nolint:errcheck

	if err := p.Play(ctx, r); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("unable to play audio: %w", err)
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}
