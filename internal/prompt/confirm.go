// Package prompt asks the user yes/no questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNonInteractive is returned when a question needs an answer but stdin
// is not a terminal.
var ErrNonInteractive = errors.New("non-interactive stdin")

type Confirmer struct {
	In            io.Reader
	Out           io.Writer
	IsInteractive func() bool
}

func DefaultConfirmer() Confirmer {
	return Confirmer{
		In:  os.Stdin,
		Out: os.Stdout,
		IsInteractive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// ConfirmOverwrite asks before replacing an existing output file. force
// answers yes without asking.
func (c Confirmer) ConfirmOverwrite(path string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	ok, err := c.Ask(fmt.Sprintf("Warning: Output file %s already exists. Overwrite?", path))
	if errors.Is(err, ErrNonInteractive) {
		return false, fmt.Errorf("%w: use -y to overwrite existing output", ErrNonInteractive)
	}
	return ok, err
}

// Ask prints question with a (y/n) suffix and reads one line. Only "y" and
// "yes" count as yes.
func (c Confirmer) Ask(question string) (bool, error) {
	if c.IsInteractive == nil || !c.IsInteractive() {
		return false, ErrNonInteractive
	}
	if c.Out != nil {
		fmt.Fprintf(c.Out, "%s (y/n): ", question)
	}
	response, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
