package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/veranek/receiptwise/internal/cli"
	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
)

// Prompter is the CLI prompter with the review step upgraded to the
// full-screen confirmation form.
type Prompter struct {
	*cli.Prompter
	// Input and Output override the terminal for tests. Nil uses the
	// process terminal.
	Input  io.Reader
	Output io.Writer
}

// NewPrompter creates a TUI-backed prompter over the given streams.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	return &Prompter{
		Prompter: cli.NewPrompter(reader, writer),
		Input:    reader,
		Output:   writer,
	}
}

// Review runs the confirmation form and returns the edited draft with
// the chosen action.
func (p *Prompter) Review(ctx context.Context, draft model.Draft, categories []model.Category) (model.Draft, service.ReviewAction, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.Input != nil {
		opts = append(opts, tea.WithInput(p.Input))
	}
	if p.Output != nil {
		opts = append(opts, tea.WithOutput(p.Output))
	}

	program := tea.NewProgram(NewForm(draft, categories), opts...)
	final, err := program.Run()
	if err != nil {
		return draft, "", fmt.Errorf("confirmation form failed: %w", err)
	}

	form, ok := final.(FormModel)
	if !ok || !form.Finished() {
		return draft, service.ReviewCancel, nil
	}
	return form.Draft(), form.Action(), nil
}
