package report

import (
	"fmt"
	"io"

	"github.com/boyarskiy/ctsdiff/internal/model"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Write renders an N-way report in the given format.
func Write(cfg *TerminalConfig, format string, r *model.Report) error {
	switch format {
	case FormatText, "":
		return RenderTerminal(cfg, r)
	case FormatMarkdown:
		return writeString(cfg.Writer, RenderMarkdown(r))
	case FormatJSON:
		return WriteJSON(cfg.Writer, r)
	case FormatYAML:
		return WriteYAML(cfg.Writer, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteDiff renders a baseline difference in the given format.
func WriteDiff(cfg *TerminalConfig, format string, d *model.Diff) error {
	switch format {
	case FormatText, "":
		return RenderDiff(cfg, d)
	case FormatMarkdown:
		return writeString(cfg.Writer, RenderDiffMarkdown(d))
	case FormatJSON:
		return WriteJSON(cfg.Writer, d)
	case FormatYAML:
		return WriteYAML(cfg.Writer, d)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeString(w io.Writer, s string) error {
	if w == nil {
		return fmt.Errorf("writer is required")
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
