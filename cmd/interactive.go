package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sells-group/gmaps-contacts/internal/harvest"
)

var fiveDigits = regexp.MustCompile(`^\d{5}$`)

// ErrInvalidPostal is returned when the interactive postal code is not five digits.
var ErrInvalidPostal = eris.New("invalid postal code: five digit codes only")

// runInteractive asks for one establishment type and one US postal code,
// harvests it and appends emails.
func runInteractive(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate("grab"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "\n%s\n\n", cmd.Long)

	r := bufio.NewReader(os.Stdin)
	category, postalCode, err := askKey(r, os.Stderr)
	if err != nil {
		return err
	}

	// A terminal hands over one line per read, so the key prompt can use
	// stdin directly and hide what is typed.
	var in io.Reader = r
	if term.IsTerminal(int(os.Stdin.Fd())) {
		in = os.Stdin
	}

	env, err := initHarvestWithInput(ctx, in)
	if err != nil {
		return err
	}
	defer env.Close()

	report, err := env.Harvester.HarvestPostalCodes(ctx, []string{category}, []string{postalCode}, "US")
	if report != nil {
		printReport(report)
	}
	if err != nil {
		return err
	}
	return enrichOutcomes(ctx, env.Enricher, completedOrExisting(report))
}

// completedOrExisting returns the outcomes that point at an artifact, so a
// repeated interactive run still refreshes the emails CSV.
func completedOrExisting(report *harvest.Report) []harvest.KeyOutcome {
	var out []harvest.KeyOutcome
	for _, o := range report.Outcomes {
		if o.Path == "" {
			continue
		}
		o.Status = harvest.KeyCompleted
		out = append(out, o)
	}
	return out
}

// askKey prompts for the establishment type and postal code.
func askKey(r *bufio.Reader, out io.Writer) (category, postalCode string, err error) {
	fmt.Fprint(out, "Establishment type?: ") //nolint:errcheck
	category, err = readAnswer(r)
	if err != nil {
		return "", "", err
	}
	category = strings.ToLower(category)
	if category == "" {
		return "", "", eris.New("establishment type is required")
	}

	fmt.Fprint(out, "Postal code: ") //nolint:errcheck
	postalCode, err = readAnswer(r)
	if err != nil {
		return "", "", err
	}
	if !fiveDigits.MatchString(postalCode) {
		return "", "", ErrInvalidPostal
	}
	return category, postalCode, nil
}

func readAnswer(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", eris.Wrap(err, "read answer")
	}
	return strings.TrimSpace(line), nil
}
