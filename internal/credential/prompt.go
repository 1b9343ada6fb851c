package credential

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/term"
)

// Prompting reads the key from File and, when the file holds none, asks for
// it on In and saves the answer to File.
type Prompting struct {
	File string
	In   io.Reader
	Out  io.Writer

	// Confirm asks whether to enter a key before prompting for it.
	Confirm bool

	mu sync.Mutex
}

// APIKey implements Provider.
func (p *Prompting) APIKey(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key, err := readKeyFile(p.File)
	if err != nil || key != "" {
		return key, err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r := bufio.NewReader(p.In)
	if p.Confirm {
		fmt.Fprint(p.Out, "Google API key not found. Do you want to enter it now? [y/n]: ") //nolint:errcheck
		answer, err := readLine(r)
		if err != nil {
			return "", eris.Wrap(err, "credential: read answer")
		}
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			fmt.Fprintln(p.Out, "Cannot run without a Google API key.") //nolint:errcheck
			return "", ErrNoKey
		}
	}

	fmt.Fprint(p.Out, "Type or paste the API key and press enter: ") //nolint:errcheck
	key, err = p.readSecret(r)
	if err != nil {
		return "", eris.Wrap(err, "credential: read key")
	}
	if key == "" {
		return "", ErrNoKey
	}
	if err := Save(p.File, key); err != nil {
		return "", err
	}
	fmt.Fprintf(p.Out, "Saved to %s\n", p.File) //nolint:errcheck
	return key, nil
}

// Name implements Named.
func (p *Prompting) Name() string { return "file " + p.File }

// readSecret reads without echo when In is a terminal.
func (p *Prompting) readSecret(r *bufio.Reader) (string, error) {
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.Out) //nolint:errcheck
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(r)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
