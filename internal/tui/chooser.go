package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"rwm/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

// Chooser asks the user to disambiguate through an interactive picker
type Chooser struct {
	In      io.Reader
	Out     io.Writer
	KeyMode string
}

// Choose runs a picker. Backing out returns domain.ErrSelectionCancelled.
func (c *Chooser) Choose(ctx context.Context, identifier string, candidates []domain.Candidate) (domain.Candidate, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.In != nil {
		opts = append(opts, tea.WithInput(c.In))
	}
	if c.Out != nil {
		opts = append(opts, tea.WithOutput(c.Out))
	}

	final, err := tea.NewProgram(NewPicker(identifier, candidates, NewKeyMap(c.KeyMode)), opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return domain.Candidate{}, ctx.Err()
		}
		return domain.Candidate{}, fmt.Errorf("running picker: %w", err)
	}

	picker, ok := final.(Picker)
	if !ok {
		return domain.Candidate{}, fmt.Errorf("running picker: unexpected model %T", final)
	}
	if chosen, ok := picker.Chosen(); ok {
		return chosen, nil
	}
	return domain.Candidate{}, domain.ErrSelectionCancelled
}
