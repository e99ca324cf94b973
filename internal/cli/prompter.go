package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/session"
	"github.com/schollz/progressbar/v3"
)

// RecordFunc commits one verdict to the configured sinks. Returning an error
// triggers the retry/ignore prompt; the verdict is already part of the
// session either way.
type RecordFunc func(ctx context.Context, record model.VerificationRecord) error

// ReviewPrompter drives a verification session over plain line-oriented
// terminal I/O: one styled card per item, one keystroke per verdict.
type ReviewPrompter struct {
	writer      io.Writer
	reader      *LineReader
	progressBar *progressbar.ProgressBar
}

// NewReviewPrompter creates a prompter with the given reader and writer.
func NewReviewPrompter(reader io.Reader, writer io.Writer) *ReviewPrompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &ReviewPrompter{
		reader: NewLineReader(reader),
		writer: writer,
	}
}

// Run reviews every remaining item in the session. onRecord is called once
// per produced verdict; skip and quit produce none. Run returns when the
// session completes, the operator quits, or the context is canceled.
func (p *ReviewPrompter) Run(ctx context.Context, s *session.Session, onRecord RecordFunc) error {
	reviewed, total := s.Progress()
	p.initProgressBar(total, reviewed)
	p.showHelp()

	for {
		item, err := s.Current()
		if err != nil {
			break
		}

		before, _ := s.Progress()
		if err := p.reviewItem(ctx, s, item, onRecord); err != nil {
			return err
		}
		if after, _ := s.Progress(); after > before {
			p.updateProgress()
		}

		if s.State() == session.StateComplete {
			break
		}
	}

	p.ShowCompletion(s.Summary())
	return nil
}

func (p *ReviewPrompter) reviewItem(ctx context.Context, s *session.Session, item model.ReviewItem, onRecord RecordFunc) error {
	reviewed, total := s.Progress()
	header := fmt.Sprintf("ROI #%d — %s  [%d/%d]", item.Source.ROIID, item.Source.Image, reviewed+1, total)
	if _, err := fmt.Fprintln(p.writer, RenderBox(header, p.formatItem(item))); err != nil {
		return fmt.Errorf("failed to write item card: %w", err)
	}

	choice, err := p.promptChoice(ctx, "[y]es / [n]o / [f]lag / [s]kip / [q]uit", []string{"y", "n", "f", "s", "q"})
	if err != nil {
		return err
	}

	switch choice {
	case "y":
		record, err := s.RecordCorrect()
		if err != nil {
			return err
		}
		p.println(FormatSuccess(fmt.Sprintf("ROI %d verified as correct (%s, %s)",
			item.Source.ROIID, strings.ToUpper(string(item.Type)), strings.ToUpper(string(item.Orientation)))))
		return p.commit(ctx, record, onRecord)

	case "n":
		correction, err := p.promptCorrection(ctx, item)
		if err != nil {
			return err
		}
		record, err := s.RecordIncorrect(correction)
		if err != nil {
			return err
		}
		p.println(FormatInfo(fmt.Sprintf("Saved correction: %s, %s",
			strings.ToUpper(string(record.CorrectedType)), strings.ToUpper(string(record.CorrectedOrientation)))))
		return p.commit(ctx, record, onRecord)

	case "f":
		note, err := p.promptNote(ctx)
		if err != nil {
			return err
		}
		record, err := s.RecordFailureNote(note)
		if err != nil {
			return err
		}
		p.println(FormatWarning(fmt.Sprintf("ROI %d flagged as detector failure", item.Source.ROIID)))
		return p.commit(ctx, record, onRecord)

	case "s":
		if err := s.RecordSkip(); err != nil {
			return err
		}
		p.println(SubtleStyle.Render(SkipIcon + " Skipped (excluded from training data)"))
		return nil

	case "q":
		s.Quit()
		p.println(FormatInfo("Quitting; partial progress is kept."))
		return nil
	}

	return fmt.Errorf("unexpected choice: %s", choice)
}

// commit pushes the verdict through onRecord, offering retry on failure. The
// local session state has already advanced; what is at stake here is only the
// remote submission, and the operator must see when it did not stick.
func (p *ReviewPrompter) commit(ctx context.Context, record model.VerificationRecord, onRecord RecordFunc) error {
	if onRecord == nil {
		return nil
	}

	for {
		err := onRecord(ctx, record)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p.println(FormatError(fmt.Sprintf("Submission failed for %s: %v", record.ItemID, err)))
		choice, promptErr := p.promptChoice(ctx, "[r]etry / [i]gnore (verdict stays queued locally)", []string{"r", "i"})
		if promptErr != nil {
			return promptErr
		}
		if choice == "i" {
			slog.Warn("Verdict submission deferred", "item", record.ItemID)
			return nil
		}
	}
}

func (p *ReviewPrompter) promptCorrection(ctx context.Context, item model.ReviewItem) (*session.Correction, error) {
	flip := item.Orientation.Flipped()

	orientationInput, err := p.promptLine(ctx,
		fmt.Sprintf("Correct orientation (table/tilted) [default: %s]", flip))
	if err != nil {
		return nil, err
	}

	correction := &session.Correction{}
	if orientationInput != "" {
		orientation, parseErr := model.ParseOrientation(strings.ToLower(orientationInput))
		for parseErr != nil {
			p.println(FormatError("Please enter 'table' or 'tilted'."))
			orientationInput, err = p.promptLine(ctx, "Correct orientation (table/tilted)")
			if err != nil {
				return nil, err
			}
			orientation, parseErr = model.ParseOrientation(strings.ToLower(orientationInput))
		}
		correction.Orientation = orientation
	}

	typeInput, err := p.promptLine(ctx,
		fmt.Sprintf("Correct diamond type (round/emerald/other) [default: %s]", item.Type))
	if err != nil {
		return nil, err
	}
	if typeInput != "" {
		diamondType, parseErr := model.ParseDiamondType(strings.ToLower(typeInput))
		for parseErr != nil {
			p.println(FormatError("Please enter 'round', 'emerald', or 'other'."))
			typeInput, err = p.promptLine(ctx, "Correct diamond type (round/emerald/other)")
			if err != nil {
				return nil, err
			}
			diamondType, parseErr = model.ParseDiamondType(strings.ToLower(typeInput))
		}
		correction.Type = diamondType
	}

	if correction.Orientation == "" && correction.Type == "" {
		// Pure one-keystroke rejection: the session applies the flip default.
		return nil, nil
	}
	return correction, nil
}

func (p *ReviewPrompter) promptNote(ctx context.Context) (string, error) {
	for {
		note, err := p.promptLine(ctx, "Failure note (what went wrong?)")
		if err != nil {
			return "", err
		}
		if note != "" {
			return note, nil
		}
		p.println(FormatError("Note cannot be empty."))
	}
}

func (p *ReviewPrompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if _, err := fmt.Fprintf(p.writer, "%s", FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("input terminated")
			}
			return "", err
		}

		choice := strings.ToLower(strings.TrimSpace(input))
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		p.println(FormatError("Invalid choice. Please try again."))
	}
}

func (p *ReviewPrompter) promptLine(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprintf(p.writer, "%s", FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.reader.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *ReviewPrompter) formatItem(item model.ReviewItem) string {
	details := fmt.Sprintf("%s Prediction:\n", InfoIcon) +
		fmt.Sprintf("  Type: %s\n", strings.ToUpper(string(item.Type))) +
		fmt.Sprintf("  Orientation: %s\n", strings.ToUpper(string(item.Orientation))) +
		fmt.Sprintf("  Confidence: %.1f%%\n", item.Confidence*100)

	box := item.Source.BoundingBox
	if box != [4]int{} {
		details += fmt.Sprintf("  Region: x=%d y=%d %dx%d\n", box[0], box[1], box[2], box[3])
	}

	if item.Confidence < 0.6 {
		details += "\n" + WarningStyle.Render("Low confidence prediction")
	}

	return details
}

func (p *ReviewPrompter) showHelp() {
	help := "Keys: [y] correct  [n] wrong  [f] flag detector failure  [s] skip  [q] quit"
	p.println(SubtleStyle.Render(help))
}

// ShowCompletion displays the completion summary to the user.
func (p *ReviewPrompter) ShowCompletion(summary model.SessionSummary) {
	if p.progressBar != nil {
		if err := p.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
		p.println("")
	}

	content := fmt.Sprintf("%s Statistics:\n", ChartIcon) +
		fmt.Sprintf("  • Items: %d\n", summary.TotalItems) +
		fmt.Sprintf("  • Correct: %d\n", summary.Correct) +
		fmt.Sprintf("  • Corrected: %d\n", summary.Incorrect) +
		fmt.Sprintf("  • Flagged: %d\n", summary.Flagged) +
		fmt.Sprintf("  • Skipped: %d\n", summary.Skipped) +
		fmt.Sprintf("  • Accuracy: %.1f%%\n", summary.Accuracy()*100) +
		fmt.Sprintf("  • Time taken: %s\n", summary.Duration.Round(time.Second))

	p.println(RenderBox(GemIcon+" Verification Complete", content))
}

func (p *ReviewPrompter) initProgressBar(total, done int) {
	if total <= 0 {
		return
	}
	p.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Verifying detections...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	if done > 0 {
		if err := p.progressBar.Set(done); err != nil {
			slog.Warn("Failed to seed progress bar", "error", err)
		}
	}
}

func (p *ReviewPrompter) updateProgress() {
	if p.progressBar != nil {
		if err := p.progressBar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
}

func (p *ReviewPrompter) println(s string) {
	if _, err := fmt.Fprintln(p.writer, s); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
