package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
)

// Prompter implements the interactive line-based capture frontend.
type Prompter struct {
	reader *LineReader
	writer io.Writer

	spinner     *progressbar.ProgressBar
	spinnerDone chan struct{}
	spinnerMu   sync.Mutex
}

// NewPrompter creates a CLI prompter. Nil reader or writer default to
// stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewLineReader(reader),
		writer: writer,
	}
}

// SelectMethod shows the entry method menu.
func (p *Prompter) SelectMethod(ctx context.Context) (model.CaptureMethod, error) {
	content := fmt.Sprintf("%s [C] Capture with camera\n%s [U] Upload an image\n%s [M] Enter details manually\n   [Q] Quit",
		CameraIcon, FolderIcon, PencilIcon)
	if _, err := fmt.Fprintln(p.writer, RenderBox("New Receipt", content)); err != nil {
		return "", fmt.Errorf("failed to write method menu: %w", err)
	}

	choice, err := p.promptChoice(ctx, "Choice", []string{"c", "u", "m", "q"})
	if err != nil {
		return "", err
	}

	switch choice {
	case "c":
		return model.MethodCamera, nil
	case "u":
		return model.MethodUpload, nil
	case "m":
		return model.MethodManual, nil
	default:
		return "", nil
	}
}

// SelectFile asks for the path of the image to upload. Empty input goes
// back to method selection.
func (p *Prompter) SelectFile(ctx context.Context) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt("Image file path (empty to go back)")); err != nil {
		return "", fmt.Errorf("failed to write file prompt: %w", err)
	}
	return p.reader.ReadLine(ctx)
}

// CollectManualDraft gathers the four record fields, one per line.
func (p *Prompter) CollectManualDraft(ctx context.Context) (model.Draft, error) {
	if _, err := fmt.Fprintln(p.writer, FormatTitle("Manual Entry")); err != nil {
		return model.Draft{}, fmt.Errorf("failed to write manual entry title: %w", err)
	}

	var draft model.Draft
	fields := []struct {
		target *string
		label  string
	}{
		{&draft.Vendor, "Vendor"},
		{&draft.Total, "Total"},
		{&draft.Category, "Category"},
		{&draft.Date, "Date (YYYY-MM-DD)"},
	}
	for _, field := range fields {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(field.label)); err != nil {
			return model.Draft{}, fmt.Errorf("failed to write field prompt: %w", err)
		}
		value, err := p.reader.ReadLine(ctx)
		if err != nil {
			return model.Draft{}, err
		}
		*field.target = value
	}
	return draft, nil
}

// Review presents the draft for correction field by field until the
// user accepts or cancels.
func (p *Prompter) Review(ctx context.Context, draft model.Draft, categories []model.Category) (model.Draft, service.ReviewAction, error) {
	for {
		if _, err := fmt.Fprintln(p.writer, RenderBox("Confirm Receipt", p.formatDraft(draft))); err != nil {
			return draft, "", fmt.Errorf("failed to write draft box: %w", err)
		}
		if _, err := fmt.Fprintln(p.writer, "  [A] Accept   [V] Vendor   [T] Total   [G] Category   [D] Date   [X] Cancel"); err != nil {
			return draft, "", fmt.Errorf("failed to write review options: %w", err)
		}

		choice, err := p.promptChoice(ctx, "Choice", []string{"a", "v", "t", "g", "d", "x"})
		if err != nil {
			return draft, "", err
		}

		switch choice {
		case "a":
			return draft, service.ReviewAccept, nil
		case "x":
			return draft, service.ReviewCancel, nil
		case "v":
			draft.Vendor, err = p.promptValue(ctx, "Vendor")
		case "t":
			draft.Total, err = p.promptValue(ctx, "Total")
		case "d":
			draft.Date, err = p.promptValue(ctx, "Date (YYYY-MM-DD)")
		case "g":
			draft.Category, err = p.promptCategory(ctx, categories)
		}
		if err != nil {
			return draft, "", err
		}
	}
}

// NotifyError shows a user-visible failure notice.
func (p *Prompter) NotifyError(message string) {
	if _, err := fmt.Fprintln(p.writer, FormatError(message)); err != nil {
		slog.Warn("failed to write error notice", "error", err)
	}
}

// ProcessingStarted animates a spinner while extraction is in flight.
func (p *Prompter) ProcessingStarted() {
	p.spinnerMu.Lock()
	defer p.spinnerMu.Unlock()
	if p.spinner != nil {
		return
	}

	p.spinner = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan]Reading receipt...[reset]"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	p.spinnerDone = make(chan struct{})

	go func(bar *progressbar.ProgressBar, done chan struct{}) {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}(p.spinner, p.spinnerDone)
}

// ProcessingDone stops the spinner.
func (p *Prompter) ProcessingDone() {
	p.spinnerMu.Lock()
	defer p.spinnerMu.Unlock()
	if p.spinner == nil {
		return
	}
	close(p.spinnerDone)
	_ = p.spinner.Finish()
	p.spinner = nil
	p.spinnerDone = nil
}

func (p *Prompter) formatDraft(draft model.Draft) string {
	value := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return SubtleStyle.Render("(empty)")
		}
		return s
	}
	category := value(draft.Category)
	if strings.TrimSpace(draft.Category) == "" {
		category = SubtleStyle.Render("(uncategorized)")
	}
	return fmt.Sprintf("Vendor:   %s\nTotal:    %s\nCategory: %s\nDate:     %s",
		value(draft.Vendor), value(draft.Total), category, value(draft.Date))
}

// promptValue reads one free-form field value.
func (p *Prompter) promptValue(ctx context.Context, label string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write value prompt: %w", err)
	}
	return p.reader.ReadLine(ctx)
}

// promptCategory shows a numbered picker over the registered categories.
// Zero clears the category.
func (p *Prompter) promptCategory(ctx context.Context, categories []model.Category) (string, error) {
	if _, err := fmt.Fprintln(p.writer, InfoStyle.Render("Categories:")); err != nil {
		return "", fmt.Errorf("failed to write category header: %w", err)
	}
	if _, err := fmt.Fprintln(p.writer, "  [0] (none)"); err != nil {
		return "", fmt.Errorf("failed to write none option: %w", err)
	}
	for i, cat := range categories {
		line := fmt.Sprintf("  [%d] %s", i+1, cat.Name)
		if cat.MonthlyBudget != nil {
			line += SubtleStyle.Render(fmt.Sprintf("  (budget $%.2f/mo)", *cat.MonthlyBudget))
		}
		if _, err := fmt.Fprintln(p.writer, line); err != nil {
			return "", fmt.Errorf("failed to write category option: %w", err)
		}
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt("Category number")); err != nil {
			return "", fmt.Errorf("failed to write picker prompt: %w", err)
		}
		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		index, err := strconv.Atoi(input)
		if err != nil || index < 0 || index > len(categories) {
			if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
				slog.Warn("failed to write picker error", "error", err)
			}
			continue
		}
		if index == 0 {
			return "", nil
		}
		return categories[index-1].Name, nil
	}
}

// promptChoice loops until one of the valid single-letter choices is
// entered.
func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("failed to write error message", "error", err)
		}
	}
}
