package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/plagdrop/internal/submit"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const previewWidth = 76

func (m AppModel) View() string {
	if m.mode == modeDetail {
		return m.detailView()
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("plagdrop") + " ")
	b.WriteString(dimStyle.Render(m.cfg.ServerURL) + "\n")
	if m.serverErr != "" {
		b.WriteString(errorStyle.Render("Service unreachable: "+truncate(m.serverErr, 60)) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.dropZone() + "\n\n")

	if status := m.statusLine(); status != "" {
		b.WriteString(status + "\n\n")
	}

	b.WriteString(m.resultsList())

	b.WriteString(helpStyle.Render(m.helpLine()))

	return b.String()
}

func (m AppModel) dropZone() string {
	var body string
	text := m.analyze.Active().Text
	if text == "" {
		body = dimStyle.Render(dropPlaceholder)
		if m.cfg.InboxDir != "" {
			body += "\n" + dimStyle.Render("or copy it into "+m.cfg.InboxDir)
		}
	} else {
		lines := wrapText(text, previewWidth, 3)
		for i, line := range lines {
			lines[i] = snippetStyle.Render(line)
		}
		header := pathStyle.Render(fmt.Sprintf("%s · %d characters", m.activeSource, len(text)))
		body = header + "\n" + strings.Join(lines, "\n")
	}
	return dropZoneStyle.Render(body)
}

func (m AppModel) statusLine() string {
	if m.notice != "" {
		if m.noticeIsErr {
			return errorStyle.Render(m.notice)
		}
		return dimStyle.Render(m.notice)
	}

	if m.resolving > 0 && !m.analyze.Busy() {
		return m.spinner.View() + " Reading drop..."
	}

	if m.analyze.Phase() == submit.PhaseSubmitting {
		n := len(m.analyze.Active().Text)
		return m.spinner.View() + fmt.Sprintf(" Analyzing %d characters...", n)
	}

	line, isErr := outcomeLine(m.analyze)
	if line == "" {
		return ""
	}
	if isErr {
		return errorStyle.Render(line)
	}
	return activeStyle.Render(line)
}

func (m AppModel) resultsList() string {
	results := m.analyze.Results()
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	for i, result := range results {
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(fmt.Sprintf("%3d. ", result.Rank))
		b.WriteString(pathStyle.Render(fmt.Sprintf("%-20s", result.DocumentID)) + " ")
		b.WriteString(scoreStyle.Render(fmt.Sprintf("%.4f", result.Score)) + " ")
		b.WriteString(tierStyle(result.Tier).Render(string(result.Tier)) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m AppModel) helpLine() string {
	parts := []string{}
	if len(m.analyze.Results()) > 0 {
		parts = append(parts, "↑/↓ navigate", "enter compare")
	}
	if m.analyze.Active().Text != "" {
		parts = append(parts, "ctrl+r resubmit")
	}
	if m.analyze.Phase().Terminal() || m.notice != "" {
		parts = append(parts, "esc dismiss")
	}
	parts = append(parts, "q quit")
	return strings.Join(parts, "  ")
}

func (m AppModel) detailView() string {
	var b strings.Builder

	ticket := m.fetcher.Active()
	b.WriteString(titleStyle.Render("plagdrop") + " ")
	b.WriteString(pathStyle.Render(ticket.DocumentID) + " ")
	b.WriteString(dimStyle.Render(ticket.FileName) + "\n\n")

	switch {
	case m.fetcher.Busy():
		b.WriteString(m.spinner.View() + " Loading " + ticket.FileName + "...\n")
	case m.fetcher.Err() != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Could not load %s: %s", ticket.FileName, truncate(m.fetcher.Err().Error(), 60))) + "\n")
	default:
		b.WriteString(m.viewport.View() + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑/↓ scroll  esc back  ctrl+c quit"))
	return b.String()
}

// sideBySide renders the submitted text next to the matched document.
func sideBySide(original, matched, name string, width int) string {
	colWidth := (width - 6) / 2
	if colWidth < 20 {
		colWidth = 20
	}
	inner := colWidth - 2

	left := paneStyle.Width(colWidth).Render(
		headingStyle.Render("Submitted") + "\n\n" + reflow(original, inner),
	)
	right := paneStyle.Width(colWidth).Render(
		headingStyle.Render(name) + "\n\n" + reflow(matched, inner),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// reflow word-wraps s and hard-breaks any word longer than width.
func reflow(s string, width int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", "    ")
	return wrap.String(wordwrap.String(s, width), width)
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func wrapText(s string, width, maxLines int) []string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) == 0 {
		return nil
	}

	var lines []string
	for len(s) > 0 && len(lines) < maxLines {
		if len(s) <= width {
			lines = append(lines, s)
			s = ""
			break
		}

		// Prefer breaking on a space in the back half of the line
		breakAt := width
		for breakAt > width/2 && s[breakAt] != ' ' {
			breakAt--
		}
		if s[breakAt] != ' ' {
			breakAt = width
		}

		lines = append(lines, strings.TrimSpace(s[:breakAt]))
		s = strings.TrimSpace(s[breakAt:])
	}

	if len(s) > 0 && len(lines) == maxLines {
		last := lines[maxLines-1]
		if len(last) > width-3 {
			last = last[:width-3]
		}
		lines[maxLines-1] = last + "..."
	}

	return lines
}
