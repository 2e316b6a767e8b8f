// Package tui provides the live Bubble Tea dashboard for yalapm.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/splitpierre/yalapm/internal/meter"
	"github.com/splitpierre/yalapm/internal/report"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Key=value stat label
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	statusPausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	statusStoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	graphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	tagHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	formBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// ── Modes and messages ─────────────────

type mode int

const (
	modeDashboard mode = iota
	modeForm
	modeManager
)

type formAction int

const (
	actionStart formAction = iota
	actionReset
	actionRetag
)

type tickMsg time.Time

type reportsChangedMsg struct{}

// managerEntry is one row in the report manager: either a tag header
// or a single report under it.
type managerEntry struct {
	isTag    bool
	tag      string
	filename string
	label    string
}

// Options wires the model to its collaborators.
type Options struct {
	Engine        *meter.Engine
	Store         *report.Store
	Author        string
	DefaultTag    string
	DefaultFactor float64
	OpenOnStop    bool
}

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	engine *meter.Engine
	store  *report.Store
	opts   Options

	mode    mode
	width   int
	height  int
	ready   bool
	snap    meter.Snapshot
	status  string          // transient status-line message
	pending *report.Report  // unsaved report kept for retry
	changes <-chan struct{} // reports-dir change notifications
	armed   bool            // second quit press abandons the pending report

	// start/reset/retag form
	action      formAction
	tagInput    textinput.Model
	factorInput textinput.Model
	focusIdx    int

	// report manager
	vp      viewport.Model
	entries []managerEntry
	cursor  int
}

// New creates the dashboard model.
func New(opts Options, changes <-chan struct{}) Model {
	tag := textinput.New()
	tag.Placeholder = opts.DefaultTag
	tag.CharLimit = 64
	tag.Width = 30

	factor := textinput.New()
	factor.Placeholder = strconv.Itoa(int(opts.DefaultFactor * 100))
	factor.CharLimit = 5
	factor.Width = 30

	return Model{
		engine:      opts.Engine,
		store:       opts.Store,
		opts:        opts,
		snap:        opts.Engine.Snapshot(),
		changes:     changes,
		tagInput:    tag,
		factorInput: factor,
	}
}

// ── Bubble Tea interface ───────────────

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return reportsChangedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForChange(m.changes))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.engine.Tick()
		return m, tickCmd()

	case reportsChangedMsg:
		if m.mode == modeManager {
			m.reloadManager()
		}
		return m, waitForChange(m.changes)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.vp = viewport.New(m.width, m.contentHeight())
		if m.mode == modeManager {
			m.renderManagerViewport()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeManager:
			return m.updateManager(msg)
		default:
			return m.updateDashboard(msg)
		}
	}
	return m, nil
}

// ── Dashboard keys ───────────────

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()

	case "s":
		switch m.engine.Status() {
		case meter.StatusStopped:
			m.openForm(actionStart)
		case meter.StatusPaused:
			m.engine.Resume()
			m.snap = m.engine.Snapshot()
		}

	case "p":
		m.engine.Pause()
		m.snap = m.engine.Snapshot()

	case "x":
		m.stopAndArchive()
		m.snap = m.engine.Snapshot()

	case "r":
		m.openForm(actionReset)

	case "t":
		if m.engine.Status() != meter.StatusStopped {
			m.openForm(actionRetag)
		}

	case "w":
		if m.pending != nil {
			m.archive(m.pending)
		}

	case "m":
		m.mode = modeManager
		m.reloadManager()

	case "f":
		if err := m.store.OpenDir(); err != nil {
			m.status = err.Error()
		}

	case "v":
		if _, err := os.Stat(m.store.IndexPath()); err != nil {
			m.status = "no report index yet — stop a session first"
		} else if err := m.store.OpenIndex(); err != nil {
			m.status = err.Error()
		}
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.stopAndArchive()
	if m.pending != nil && !m.armed {
		m.armed = true
		m.status += " (press q again to quit without the report)"
		return m, nil
	}
	if m.opts.OpenOnStop {
		if _, err := os.Stat(m.store.IndexPath()); err == nil {
			_ = m.store.OpenIndex()
		}
	}
	return m, tea.Quit
}

// stopAndArchive finalizes the active session and writes its report.
func (m *Model) stopAndArchive() {
	if m.engine.Status() == meter.StatusStopped {
		return
	}
	summary, err := m.engine.Stop()
	if err != nil {
		m.status = err.Error()
		return
	}
	m.archive(report.FromSummary(summary, m.opts.Author))
}

// archive writes r, keeping it in memory for retry on failure.
func (m *Model) archive(r *report.Report) {
	path, err := m.store.Save(r)
	if err != nil {
		m.pending = r
		m.status = "report not written: " + err.Error() + " — press w to retry"
		return
	}
	m.pending = nil
	m.armed = false
	m.status = "report written: " + filepath.Base(path)
}

// ── Start form ───────────────

func (m *Model) openForm(action formAction) {
	m.mode = modeForm
	m.action = action
	m.focusIdx = 0
	m.tagInput.SetValue("")
	m.factorInput.SetValue("")
	if action == actionRetag {
		m.tagInput.Placeholder = m.snap.Tag
	} else {
		m.tagInput.Placeholder = m.opts.DefaultTag
	}
	m.tagInput.Focus()
	m.factorInput.Blur()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeDashboard
		return m, nil

	case "enter":
		m.submitForm()
		return m, nil

	case "tab", "shift+tab", "up", "down":
		if m.action != actionRetag {
			m.focusIdx = 1 - m.focusIdx
			if m.focusIdx == 0 {
				m.tagInput.Focus()
				m.factorInput.Blur()
			} else {
				m.tagInput.Blur()
				m.factorInput.Focus()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIdx == 0 {
		m.tagInput, cmd = m.tagInput.Update(msg)
	} else {
		m.factorInput, cmd = m.factorInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) submitForm() {
	tag := strings.TrimSpace(m.tagInput.Value())
	if tag == "" {
		tag = m.tagInput.Placeholder
	}
	factor := m.opts.DefaultFactor
	if raw := strings.TrimSpace(m.factorInput.Value()); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 && v <= 100 {
			factor = v / 100
		}
	}

	switch m.action {
	case actionStart:
		if err := m.engine.Start(tag, factor); err != nil {
			m.status = err.Error()
		}
	case actionReset:
		summary, err := m.engine.Reset(tag, factor)
		if err != nil {
			m.status = err.Error()
		} else if summary != nil && summary.TotalActions > 0 {
			m.archive(report.FromSummary(summary, m.opts.Author))
		}
	case actionRetag:
		m.engine.SetTag(tag)
	}

	m.snap = m.engine.Snapshot()
	m.mode = modeDashboard
}

// ── Report manager ───────────────

func (m *Model) reloadManager() {
	grouped, err := m.store.ByTag()
	if err != nil {
		m.status = err.Error()
		m.entries = nil
		m.renderManagerViewport()
		return
	}

	tags := make([]string, 0, len(grouped))
	for tag := range grouped {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	m.entries = m.entries[:0]
	for _, tag := range tags {
		m.entries = append(m.entries, managerEntry{isTag: true, tag: tag})
		for _, r := range grouped[tag] {
			m.entries = append(m.entries, managerEntry{
				tag:      tag,
				filename: r.Filename,
				label: fmt.Sprintf("%s - Avg APM: %d",
					r.WrittenAt.Format("2006-01-02 15:04"), r.AverageAPM),
			})
		}
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.renderManagerViewport()
}

func (m Model) updateManager(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "m", "q":
		m.mode = modeDashboard
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.renderManagerViewport()
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			m.renderManagerViewport()
		}
		return m, nil

	case "d":
		if m.cursor < len(m.entries) {
			e := m.entries[m.cursor]
			var err error
			if e.isTag {
				_, err = m.store.DeleteTag(e.tag)
			} else {
				err = m.store.Delete(e.filename)
			}
			if err != nil {
				m.status = err.Error()
			}
			m.reloadManager()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *Model) renderManagerViewport() {
	var sb strings.Builder
	sb.WriteString("\n" + sectionHeader.Render("  Report Manager") + "\n\n")
	if len(m.entries) == 0 {
		sb.WriteString(dimStyle.Render("  (no saved reports)") + "\n")
	}
	for i, e := range m.entries {
		var row string
		if e.isTag {
			row = tagHeaderStyle.Render("Tag: " + e.tag)
		} else {
			row = "  " + e.label
		}
		if i == m.cursor {
			row = selectedRowStyle.Render("▸ " + row)
		} else {
			row = "  " + row
		}
		sb.WriteString(row + "\n")
	}
	m.vp.SetContent(sb.String())

	// The cursor row sits below three header lines; scroll it back
	// into the window when it moves past either edge.
	if m.vp.Height > 0 {
		line := m.cursor + 3
		if line < m.vp.YOffset {
			m.vp.SetYOffset(line)
		} else if line >= m.vp.YOffset+m.vp.Height {
			m.vp.SetYOffset(line - m.vp.Height + 1)
		}
	}
}

// ── View ───────────────

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  yalapm — APM monitor")

	var content string
	switch m.mode {
	case modeForm:
		content = m.viewForm()
	case modeManager:
		content = m.vp.View()
	default:
		content = m.viewDashboard()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, content, m.viewStatusBar())
}

// contentHeight is the rows left between title and status bar.
func (m Model) contentHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) viewDashboard() string {
	s := m.snap
	var sb strings.Builder

	row := func(icon, label string, value string) {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			icon,
			labelStyle.Render(fmt.Sprintf("%-16s", label)),
			valueStyle.Render(fmt.Sprintf("%8s", value)),
		))
	}

	sb.WriteString("\n")
	row("⚡", "Current APM:", formatCount(s.CurrentAPM))
	row("🏆", "Peak APM:", formatCount(s.PeakAPM))
	row("📊", "Average APM:", formatCount(s.AverageAPM))
	row("🎮", "Average veAPM:", formatCount(s.AverageVeAPM))
	row("🎯", "Total Actions:", formatCount(int(s.TotalActions)))
	sb.WriteString("\n")
	sb.WriteString("  ⏱  " + labelStyle.Render("Session Time:") + "    " + valueStyle.Render(formatDuration(s.ActiveDuration)) + "\n")

	var st string
	switch s.Status {
	case meter.StatusRunning:
		st = statusRunningStyle.Render(s.Status.String() + " ●")
	case meter.StatusPaused:
		st = statusPausedStyle.Render(s.Status.String() + " ●")
	default:
		st = statusStoppedStyle.Render(s.Status.String() + " ●")
	}
	tag := ""
	if s.Status != meter.StatusStopped {
		tag = dimStyle.Render("  tag: " + s.Tag)
	}
	sb.WriteString("     " + labelStyle.Render("Status:") + "          " + st + tag + "\n\n")

	graphWidth := m.width - 8
	if graphWidth < 10 {
		graphWidth = 10
	}
	graph := renderSparkline(s.Trend, graphWidth, 8)
	sb.WriteString("  " + sectionHeader.Render("APM Trend (last 5 mins)") + "\n")
	sb.WriteString("  " + strings.ReplaceAll(graphStyle.Render(graph), "\n", "\n  ") + "\n")

	return sb.String()
}

func (m Model) viewForm() string {
	var sb strings.Builder
	switch m.action {
	case actionReset:
		sb.WriteString(sectionHeader.Render("Reset — New Session") + "\n\n")
	case actionRetag:
		sb.WriteString(sectionHeader.Render("Retag Session") + "\n\n")
	default:
		sb.WriteString(sectionHeader.Render("Start New Session") + "\n\n")
	}

	sb.WriteString(labelStyle.Render("Session tag") + "\n")
	sb.WriteString(m.tagInput.View() + "\n")
	if m.action != actionRetag {
		sb.WriteString("\n" + labelStyle.Render("Virtual eAPM % (0-100)") + "\n")
		sb.WriteString(m.factorInput.View() + "\n")
	}
	sb.WriteString("\n" + dimStyle.Render("enter confirm · tab switch · esc cancel"))

	box := formBoxStyle.Render(sb.String())
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) viewStatusBar() string {
	var hint string
	switch m.mode {
	case modeForm:
		hint = "enter confirm  esc cancel"
	case modeManager:
		hint = "↑/↓ select  d delete  esc back"
	default:
		switch m.snap.Status {
		case meter.StatusRunning:
			hint = "p pause  x stop  r reset  t retag  m reports  f folder  v report  q quit"
		case meter.StatusPaused:
			hint = "s resume  x stop  r reset  t retag  m reports  q quit"
		default:
			hint = "s start  m reports  f folder  v report  q quit"
		}
	}

	left := " " + hint
	right := ""
	if m.status != "" {
		if m.pending != nil {
			right = errStyle.Render(m.status) + " "
		} else {
			right = m.status + " "
		}
	}
	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", pad) + right)
}

// ── Helpers ───────────────

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// formatDuration renders d as HH:MM:SS.
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Run starts the dashboard and blocks until the user quits.
func Run(opts Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Refresh the report manager when the archive changes on disk;
	// best-effort, the dashboard works without it.
	changes, err := opts.Store.Watch(ctx)
	if err != nil {
		changes = nil
	}

	p := tea.NewProgram(New(opts, changes), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
