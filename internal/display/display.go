// Package display writes the final packet set to the console.
package display

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/zsiec/abxclient/internal/abx/packet"
	"github.com/zsiec/abxclient/internal/config"
)

// Summary is shown under the packet list when color is enabled.
type Summary struct {
	RunID     string
	Displayed int
	Recovered int
	Missing   int // still absent after recovery
}

// Renderer writes packets in the configured format.
type Renderer struct {
	w   io.Writer
	cfg config.DisplayConfig
}

// New creates a renderer writing to w.
func New(w io.Writer, cfg config.DisplayConfig) *Renderer {
	if cfg.Format == "" {
		cfg.Format = config.DisplayFormatText
	}
	return &Renderer{w: w, cfg: cfg}
}

// Packets writes one line per packet in the order given. Text lines use
// Packet.String; JSON lines hold one object each.
func (r *Renderer) Packets(packets []packet.Packet) error {
	switch r.cfg.Format {
	case config.DisplayFormatJSON:
		enc := json.NewEncoder(r.w)
		for _, p := range packets {
			if err := enc.Encode(p); err != nil {
				return fmt.Errorf("failed to encode packet %d: %w", p.Sequence, err)
			}
		}
	case config.DisplayFormatText:
		for _, p := range packets {
			if _, err := fmt.Fprintln(r.w, p.String()); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown display format: %q", r.cfg.Format)
	}
	return nil
}

// Footer writes the styled run summary. It only writes when color is on and
// the format is text; in JSON mode it would corrupt the line stream.
func (r *Renderer) Footer(s Summary) error {
	if !r.cfg.Color || r.cfg.Format == config.DisplayFormatJSON {
		return nil
	}

	status := okStyle.Render("complete")
	if s.Missing > 0 {
		status = warnStyle.Render(fmt.Sprintf("%d missing", s.Missing))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("ABX run summary"),
		fmt.Sprintf("%s %d", labelStyle.Render("Packets:"), s.Displayed),
		fmt.Sprintf("%s %d", labelStyle.Render("Recovered:"), s.Recovered),
		fmt.Sprintf("%s %s", labelStyle.Render("Status:"), status),
	)
	if s.RunID != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, labelStyle.Render("Run "+s.RunID))
	}

	_, err := fmt.Fprintln(r.w, footerStyle.Render(body))
	return err
}
