package terminal

import (
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"
)

// ErrNoScreen is returned when the terminal cannot be opened.
var ErrNoScreen = errors.New("terminal unavailable")

// Open initializes the process terminal. Callers must Fini it.
func Open() (tcell.Screen, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("%w: stdin is not a terminal", ErrNoScreen)
	}
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoScreen, err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoScreen, err)
	}
	s.SetStyle(styleBase)
	s.HideCursor()
	return s, nil
}
