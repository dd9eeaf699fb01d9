// Package tui provides the Bubble Tea capture interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emrekiracbedel/keystyleid/internal/capture"
	"github.com/emrekiracbedel/keystyleid/internal/model"
	"github.com/emrekiracbedel/keystyleid/internal/modelstore"
	"github.com/emrekiracbedel/keystyleid/internal/predictor"
	"github.com/emrekiracbedel/keystyleid/internal/store"
)

// Mode selects what happens to a finished capture.
type Mode int

// Capture modes.
const (
	ModeCollect Mode = iota
	ModePredict
)

var (
	typedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cardStyle    = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea capture UI for collecting sessions and
// identifying who is typing.
type Model struct {
	mode Mode
	cfg  model.CaptureConfig
	user string

	store  *store.Store
	models *modelstore.Store

	rec *capture.Recorder

	width  int
	height int

	promptRunes []rune
	inputRunes  []rune

	counts map[string]int
	status string

	showResult  bool
	result      model.Prediction
	resultTable table.Model
}

// NewCollectModel constructs a capture UI that saves validated sessions
// for the given user.
func NewCollectModel(cfg model.CaptureConfig, user string, st *store.Store) *Model {
	m := &Model{
		mode:   ModeCollect,
		cfg:    cfg,
		user:   user,
		store:  st,
		rec:    capture.NewRecorder(),
		counts: map[string]int{},
	}
	m.promptRunes = []rune(cfg.Prompt)
	m.loadCounts()
	return m
}

// NewPredictModel constructs a capture UI that identifies the typist
// against the last-trained model.
func NewPredictModel(cfg model.CaptureConfig, ms *modelstore.Store) *Model {
	m := &Model{
		mode:   ModePredict,
		cfg:    cfg,
		models: ms,
		rec:    capture.NewRecorder(),
	}
	m.promptRunes = []rune(cfg.Prompt)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.showResult {
			return m.updateResult(msg)
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
			return m, nil
		case tea.KeyEnter:
			m.finishAttempt()
			return m, nil
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
			return m, nil
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

func (m *Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC, msg.Type == tea.KeyEsc, msg.Type == tea.KeyEnter:
		return m, tea.Quit
	case msg.String() == "q":
		return m, tea.Quit
	case msg.String() == "r":
		m.showResult = false
		m.resetCapture()
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleBackspace() {
	m.rec.RecordPress("backspace")
	if len(m.inputRunes) == 0 {
		return
	}
	m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
}

func (m *Model) handleRunes(runes []rune) {
	for _, r := range runes {
		// Terminal input carries only key-down transitions; releases are
		// never observed here, so dwell features stay zero for sessions
		// captured through this surface.
		m.rec.RecordPress(string(r))
		m.inputRunes = append(m.inputRunes, r)
	}
}

func (m *Model) finishAttempt() {
	typed := string(m.inputRunes)
	events := m.rec.Events()

	switch m.mode {
	case ModeCollect:
		session, err := capture.BuildSession(m.user, typed, events, m.cfg, time.Now())
		if err != nil {
			m.status = gateMessage(err)
			return
		}
		if _, err := m.store.InsertSession(context.Background(), session); err != nil {
			m.status = fmt.Sprintf("Failed to save session: %v", err)
			return
		}
		m.counts[m.user]++
		m.status = fmt.Sprintf("Session saved. %d session(s) for user %s.", m.counts[m.user], m.user)
		m.resetCapture()
	case ModePredict:
		if err := capture.Validate(typed, events, m.cfg); err != nil {
			m.status = gateMessage(err)
			return
		}
		prediction, err := predictor.Predict(events, m.models)
		if err != nil {
			if errors.Is(err, modelstore.ErrModelNotFound) {
				m.status = "No trained model yet. Run: keystyleid train"
			} else {
				m.status = fmt.Sprintf("Prediction failed: %v", err)
			}
			return
		}
		m.result = prediction
		m.resultTable = buildResultTable(prediction)
		m.showResult = true
	}
}

func gateMessage(err error) string {
	switch {
	case errors.Is(err, capture.ErrValidationFailed):
		return "Typed text does not match the prompt well enough. Try again."
	case errors.Is(err, capture.ErrTooFewEvents):
		return "Not enough key events captured. Type the whole prompt."
	default:
		return err.Error()
	}
}

func (m *Model) resetCapture() {
	m.inputRunes = nil
	m.rec.Reset()
}

func (m *Model) loadCounts() {
	counts, err := m.store.CountByUser(context.Background())
	if err != nil {
		logErrf("failed to load session counts: %v\n", err)
		return
	}
	m.counts = counts
	if m.counts == nil {
		m.counts = map[string]int{}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.showResult {
		return m.renderResult()
	}
	if len(m.promptRunes) == 0 {
		return ""
	}
	cursorIndex := -1
	if len(m.inputRunes) < len(m.promptRunes) {
		cursorIndex = len(m.inputRunes)
	}
	cells := buildPromptCells(m.promptRunes, m.inputRunes, cursorIndex)
	if m.width == 0 || m.height == 0 {
		return renderPromptCells(cells)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapPromptCells(cells, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)

	footer := m.renderFooter()
	if footer == "" || m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 2
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	statusLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, statusStyle.Render(m.status))
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + statusLine + "\n" + footerLine
}

func (m *Model) renderFooter() string {
	var segments []string
	switch m.mode {
	case ModeCollect:
		segments = append(segments, fmt.Sprintf("User %s", m.user))
		if summary := countsSummary(m.counts); summary != "" {
			segments = append(segments, summary)
		}
		segments = append(segments, "Enter to save · Ctrl+C to quit")
	case ModePredict:
		segments = append(segments, "Enter to identify · Ctrl+C to quit")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func countsSummary(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	users := make([]string, 0, len(counts))
	for u := range counts {
		users = append(users, u)
	}
	sort.Strings(users)
	parts := make([]string, 0, len(users))
	for _, u := range users {
		parts = append(parts, fmt.Sprintf("%s %d", u, counts[u]))
	}
	return "Sessions: " + strings.Join(parts, " · ")
}

func (m *Model) renderResult() string {
	lines := []string{
		cardTitleStyle.Render("Predicted user"),
		cardValueStyle.Render(m.result.UserLabel),
		"",
		cardTitleStyle.Render("Confidence"),
		cardValueStyle.Render(fmt.Sprintf("%.2f%%", m.result.Confidence*100)),
		"",
		m.resultTable.View(),
	}
	card := cardStyle.Render(strings.Join(lines, "\n"))
	footer := footerStyle.Render("r to retake · Enter to quit")
	if m.width == 0 || m.height == 0 {
		return card + "\n" + footer
	}
	bodyHeight := m.height - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, card)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func buildResultTable(p model.Prediction) table.Model {
	type entry struct {
		user string
		prob float64
	}
	entries := make([]entry, 0, len(p.Probabilities))
	for u, prob := range p.Probabilities {
		entries = append(entries, entry{user: u, prob: prob})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].prob == entries[j].prob {
			return entries[i].user < entries[j].user
		}
		return entries[i].prob > entries[j].prob
	})

	columns := []table.Column{
		{Title: "User", Width: 10},
		{Title: "Probability", Width: 12},
	}
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{e.user, fmt.Sprintf("%.2f%%", e.prob*100)})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell
	t.SetStyles(styles)
	return t
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
