package cli

import (
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// interactive reports whether huh forms can run: both stdin and stdout must
// be terminals.
func interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

var stopReasons = []string{
	"target reached",
	"interrupted",
	"done for today",
	"taking a break",
	"blocked",
}

// promptOutcome asks for the outcome fields of a finished session. The
// returned fields always carry a stop reason; blank answers for the other
// fields leave them nil so the stored values survive the merge.
func promptOutcome(activity string, hours float64, defaultReason string) (store.EntryFields, error) {
	var (
		objectives string
		completion string
		reason     = defaultReason
		comments   string
	)

	options := make([]huh.Option[string], 0, len(stopReasons)+1)
	if !slices.Contains(stopReasons, defaultReason) {
		options = append(options, huh.NewOption(defaultReason, defaultReason))
	}
	for _, r := range stopReasons {
		options = append(options, huh.NewOption(r, r))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(activity).
				Description("Logged "+formatHours(hours)+" this session."),
			huh.NewInput().Title("Objectives succeeded").Value(&objectives),
			huh.NewInput().
				Title("Completion %").
				Placeholder("0-100, blank to keep").
				Validate(validatePercent).
				Value(&completion),
			huh.NewSelect[string]().Title("Stop reason").Options(options...).Value(&reason),
			huh.NewText().Title("Comments").Value(&comments),
		),
	)
	if err := form.Run(); err != nil {
		return store.EntryFields{}, eris.Wrap(err, "outcome prompt aborted")
	}
	return outcomeFields(objectives, completion, reason, comments), nil
}

func outcomeFields(objectives, completion, reason, comments string) store.EntryFields {
	f := store.EntryFields{StopReason: store.Ptr(reason)}
	if s := strings.TrimSpace(objectives); s != "" {
		f.Objectives = store.Ptr(s)
	}
	if s := strings.TrimSpace(completion); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			f.CompletionPercent = store.Ptr(v)
		}
	}
	if s := strings.TrimSpace(comments); s != "" {
		f.Comments = store.Ptr(s)
	}
	return f
}

func validatePercent(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.New("enter a number")
	}
	if v < 0 || v > 100 {
		return eris.New("must be between 0 and 100")
	}
	return nil
}
