// Package ui holds the interactive surface: the confirmation gate and the
// output styles for fatal and warning markers.
package ui

import (
	"os"

	"github.com/E-Coombs/arch-setup/pkg/logging"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// ConsoleConfirmer implements types.Confirmer on the terminal. It
// auto-approves when confirmation was disabled or when stdin is not a
// terminal, so unattended runs never block on a prompt.
type ConsoleConfirmer struct {
	noConfirm bool
	logger    zerolog.Logger

	// Seams for tests
	isTerminal func(fd uintptr) bool
	prompt     func(text string, defaultYes bool) (bool, error)
}

// NewConfirmer creates a console confirmer. noConfirm makes every prompt
// auto-approve.
func NewConfirmer(noConfirm bool) *ConsoleConfirmer {
	return &ConsoleConfirmer{
		noConfirm: noConfirm,
		logger:    logging.GetLogger("ui"),
		isTerminal: func(fd uintptr) bool {
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
		prompt: func(text string, defaultYes bool) (bool, error) {
			return pterm.DefaultInteractiveConfirm.WithDefaultValue(defaultYes).Show(text)
		},
	}
}

// Confirm asks the user a yes/no question and returns the answer
func (c *ConsoleConfirmer) Confirm(prompt string, defaultYes bool) bool {
	if c.noConfirm {
		c.logger.Debug().Str("prompt", prompt).Msg("Confirmation disabled, auto-approving")
		return true
	}

	if !c.isTerminal(os.Stdin.Fd()) {
		c.logger.Debug().Str("prompt", prompt).Msg("Non-interactive session, auto-approving")
		return true
	}

	answer, err := c.prompt(prompt, defaultYes)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Cannot read confirmation, using default")
		return defaultYes
	}
	return answer
}
