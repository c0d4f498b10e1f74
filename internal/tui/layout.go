package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type panelDimensions struct {
	headerH      int
	bannerH      int
	mainH        int
	alertListW   int
	eventStreamW int
	statusBarH   int
}

const (
	minWidth  = 40
	minHeight = 10

	headerHeight    = 1
	statusBarHeight = 1
)

func computeDimensions(totalW, totalH int, bannerVisible bool) panelDimensions {
	if totalW < minWidth {
		totalW = minWidth
	}
	if totalH < minHeight {
		totalH = minHeight
	}

	d := panelDimensions{
		headerH:    headerHeight,
		statusBarH: statusBarHeight,
	}
	if bannerVisible {
		d.bannerH = bannerLines
	}

	d.mainH = totalH - d.headerH - d.bannerH - d.statusBarH
	if d.mainH < 4 {
		d.mainH = 4
	}

	d.alertListW = totalW * 55 / 100
	if d.alertListW < 20 {
		d.alertListW = 20
	}
	if d.alertListW > totalW-20 {
		d.alertListW = totalW - 20
	}
	d.eventStreamW = totalW - d.alertListW

	return d
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	normalRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	alertWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("226"))

	alertCriticalStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	detailOverlayStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("69")).
				Padding(1, 2)
)

func renderBorderedPanel(content string, w, h int) string {
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	lines := strings.Split(content, "\n")
	if len(lines) > contentH {
		lines = lines[:contentH]
		content = strings.Join(lines, "\n")
	}

	return panelBorderStyle.
		Width(w - 2).
		Height(contentH).
		Render(content)
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func (m Model) renderDashboard() string {
	dims := computeDimensions(m.width, m.height, m.cachedBanner.Visible)

	parts := []string{m.renderHeader(" [Dashboard]", m.headerHelp())}
	if banner := m.renderBanner(m.width); banner != "" {
		parts = append(parts, banner)
	}

	alertList := m.renderAlertListPanel(dims.alertListW, dims.mainH)
	eventStream := m.renderEventStreamPanel(dims.eventStreamW, dims.mainH)
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, alertList, eventStream)

	mcLines := strings.Split(mainContent, "\n")
	if len(mcLines) > dims.mainH {
		mainContent = strings.Join(mcLines[:dims.mainH], "\n")
	}
	parts = append(parts, mainContent, m.renderStatusBar())

	layout := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.detailOverlay {
		layout = m.overlayDetail(layout)
	}
	return layout
}

func (m Model) renderHeader(viewLabel, help string) string {
	title := " mission-control"
	indicators := m.headerIndicators()

	padding := m.width - lipgloss.Width(title) - lipgloss.Width(viewLabel) - lipgloss.Width(indicators) - lipgloss.Width(help)
	if padding < 0 {
		padding = 0
	}

	return headerStyle.Width(m.width).Render(title + viewLabel + indicators + strings.Repeat(" ", padding) + help)
}

func (m Model) headerHelp() string {
	if m.detailOverlay {
		return "Esc:Close  q:Quit "
	}
	return "Enter:Detail  r:Refresh  p:Pause  Tab:History  q:Quit "
}

func (m Model) renderStatusBar() string {
	var parts []string
	if m.poll != nil {
		if m.poll.Running() {
			parts = append(parts, "polling every "+m.cfg.Polling.Interval().String())
		} else {
			parts = append(parts, "polling paused")
		}
	}
	if m.statusMessage != "" {
		parts = append(parts, m.statusMessage)
	}
	return statusBarStyle.Render(" " + strings.Join(parts, "  |  "))
}

func (m Model) overlayDetail(base string) string {
	overlayW := m.width * 70 / 100
	if overlayW < 40 {
		overlayW = 40
	}
	if overlayW > m.width-4 {
		overlayW = m.width - 4
	}
	overlayH := m.height * 60 / 100
	if overlayH < 10 {
		overlayH = 10
	}
	if overlayH > m.height-4 {
		overlayH = m.height - 4
	}

	contentW := overlayW - 6
	if contentW < 10 {
		contentW = 10
	}
	contentH := overlayH - 4
	if contentH < 3 {
		contentH = 3
	}

	var wrapped []string
	for _, line := range strings.Split(m.detailContent, "\n") {
		wrapped = append(wrapped, wrapLine(line, contentW)...)
	}

	startIdx := m.detailScrollPos
	if startIdx > len(wrapped)-contentH {
		startIdx = len(wrapped) - contentH
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := min(startIdx+contentH, len(wrapped))

	body := strings.Join(wrapped[startIdx:endIdx], "\n")

	title := panelTitleStyle.Render(m.detailTitle)
	footer := dimStyle.Render("Esc/Enter: Close")
	if len(wrapped) > contentH {
		footer += dimStyle.Render("  Up/Down: Scroll")
	}

	dialog := detailOverlayStyle.
		Width(overlayW - 2).
		Render(title + "\n\n" + body + "\n\n" + footer)

	return placeOverlay(dialog, base)
}

// wrapLine splits line at spaces so no piece exceeds w runes.
func wrapLine(line string, w int) []string {
	r := []rune(line)
	if len(r) <= w {
		return []string{line}
	}
	var out []string
	for len(r) > w {
		cutAt := w
		for i := w; i > 0; i-- {
			if r[i] == ' ' {
				cutAt = i
				break
			}
		}
		out = append(out, string(r[:cutAt]))
		r = r[cutAt:]
		if len(r) > 0 && r[0] == ' ' {
			r = r[1:]
		}
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

func placeOverlay(fg, bg string) string {
	return lipgloss.Place(
		lipgloss.Width(bg),
		lipgloss.Height(bg),
		lipgloss.Center,
		lipgloss.Center,
		fg,
		lipgloss.WithWhitespaceChars(" "),
	)
}
