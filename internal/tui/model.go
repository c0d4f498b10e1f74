package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/config"
	"github.com/nixlim/mission-control/internal/events"
	"github.com/nixlim/mission-control/internal/rotation"
	"github.com/nixlim/mission-control/internal/storage"
)

type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewHistory
)

type tickMsg time.Time

// BannerProvider supplies the item currently on the banner.
type BannerProvider interface {
	View() rotation.View
}

// AlertListProvider supplies the working set of alerts.
type AlertListProvider interface {
	Snapshot() alerts.Snapshot
}

type EventProvider interface {
	Recent(limit int) []events.Entry
}

// PollControl drives the polling scheduler from the keyboard.
type PollControl interface {
	Running() bool
	Pause()
	Resume()
	RefreshNow() bool
}

// JournalProvider is the read side of the alert journal.
type JournalProvider interface {
	RecentAlerts(limit int) []storage.AlertRecord
	RecentReports(limit int) []storage.ReportRecord
	PollSummary(hours int) storage.PollSummary
	DroppedWrites() int64
}

type Model struct {
	view     ViewState
	width    int
	height   int
	keys     KeyMap
	quitting bool

	cfg config.Config

	banner  BannerProvider
	list    AlertListProvider
	events  EventProvider
	poll    PollControl
	journal JournalProvider

	cachedBanner rotation.View
	cachedList   []alerts.Item

	alertCursor int

	detailOverlay   bool
	detailContent   string
	detailTitle     string
	detailScrollPos int

	statusMessage string

	isPersistent     bool
	historyScrollPos int

	refreshRate time.Duration
	now         func() time.Time

	onShutdown func()
}

func NewModel(cfg config.Config, opts ...ModelOption) Model {
	m := Model{
		view:        ViewDashboard,
		keys:        DefaultKeyMap(),
		cfg:         cfg,
		refreshRate: time.Duration(cfg.Display.RefreshRateMS) * time.Millisecond,
		now:         time.Now,
	}
	if m.refreshRate <= 0 {
		m.refreshRate = 250 * time.Millisecond
	}

	for _, opt := range opts {
		opt(&m)
	}

	m.refresh()
	return m
}

type ModelOption func(*Model)

func WithBannerProvider(b BannerProvider) ModelOption {
	return func(m *Model) { m.banner = b }
}

func WithAlertListProvider(l AlertListProvider) ModelOption {
	return func(m *Model) { m.list = l }
}

func WithEventProvider(e EventProvider) ModelOption {
	return func(m *Model) { m.events = e }
}

func WithPollControl(p PollControl) ModelOption {
	return func(m *Model) { m.poll = p }
}

func WithJournal(j JournalProvider) ModelOption {
	return func(m *Model) { m.journal = j }
}

func WithStartView(v ViewState) ModelOption {
	return func(m *Model) { m.view = v }
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

func WithPersistenceFlag(isPersistent bool) ModelOption {
	return func(m *Model) { m.isPersistent = isPersistent }
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh copies provider state into the model so View stays pure.
func (m *Model) refresh() {
	if m.banner != nil {
		m.cachedBanner = m.banner.View()
	}
	if m.list != nil {
		m.cachedList = alerts.Rank(m.list.Snapshot().Items)
	}
	if m.alertCursor >= len(m.cachedList) {
		m.alertCursor = max(len(m.cachedList)-1, 0)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detailOverlay {
		return m.handleDetailOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.onShutdown != nil {
			m.onShutdown()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		if m.view == ViewDashboard {
			m.view = ViewHistory
			m.historyScrollPos = 0
		} else {
			m.view = ViewDashboard
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.poll == nil {
			return m, nil
		}
		switch {
		case !m.poll.Running():
			m.statusMessage = "Polling is paused"
		case m.poll.RefreshNow():
			m.statusMessage = "Refreshing..."
		default:
			m.statusMessage = "Refresh already in progress"
		}
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		if m.poll == nil {
			return m, nil
		}
		if m.poll.Running() {
			m.poll.Pause()
			m.statusMessage = "Polling paused"
		} else {
			m.poll.Resume()
			m.statusMessage = "Polling resumed"
		}
		return m, nil
	}

	switch m.view {
	case ViewDashboard:
		return m.handleDashboardKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.alertCursor > 0 {
			m.alertCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.alertCursor < len(m.cachedList)-1 {
			m.alertCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if m.alertCursor >= 0 && m.alertCursor < len(m.cachedList) {
			m.detailOverlay = true
			m.detailTitle = "Alert Detail"
			m.detailContent = m.formatAlertDetail(m.cachedList[m.alertCursor])
			m.detailScrollPos = 0
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.historyScrollPos > 0 {
			m.historyScrollPos--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.historyScrollPos++
		return m, nil
	}
	return m, nil
}

func (m Model) handleDetailOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.detailOverlay = false
		m.quitting = true
		if m.onShutdown != nil {
			m.onShutdown()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter):
		m.detailOverlay = false
		m.detailContent = ""
		m.detailTitle = ""
		m.detailScrollPos = 0
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.detailScrollPos > 0 {
			m.detailScrollPos--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.detailScrollPos++
		return m, nil
	}
	return m, nil
}

func (m Model) formatAlertDetail(a alerts.Item) string {
	var lines []string
	lines = append(lines, "Severity:  "+string(a.Severity))
	lines = append(lines, "ID:        "+a.ID)
	lines = append(lines, "Seen at:   "+a.Timestamp.Format("2006-01-02 15:04:05"))
	lines = append(lines, "")
	lines = append(lines, "Message:")
	lines = append(lines, a.Message)
	return strings.Join(lines, "\n")
}

func (m Model) headerIndicators() string {
	var parts []string
	if m.poll != nil && !m.poll.Running() {
		parts = append(parts, "[Paused]")
	}
	if !m.isPersistent {
		parts = append(parts, "[No persistence]")
	}
	if m.journal != nil && m.journal.DroppedWrites() > 0 {
		parts = append(parts, "[!] Writes dropped")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + dimStyle.Render(strings.Join(parts, " "))
}

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var output string
	switch m.view {
	case ViewDashboard:
		output = m.renderDashboard()
	case ViewHistory:
		output = m.renderHistory()
	}

	if m.height > 0 {
		lines := strings.Split(output, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
			output = strings.Join(lines, "\n")
		}
	}

	return output
}
