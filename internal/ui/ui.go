package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/repositories"
	"github.com/desertthunder/farewatch/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RequestListView ViewState = iota
	PriceHistoryView
	ConfirmSweepView
	SweepView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx             context.Context
	view            ViewState
	requests        *repositories.TrackingRequestRepository
	prices          *repositories.PricePointRepository
	monitor         tasks.Monitor
	width           int
	height          int
	requestList     list.Model
	priceList       list.Model
	selectedRequest *models.TrackingRequest
	progressChan    chan tasks.ProgressUpdate
	progress        tasks.ProgressUpdate
	stats           *tasks.SweepStats
	err             error
	help            help.Model
	keys            keyMap
}

type requestsFetchedMsg struct {
	requests []*models.TrackingRequest
	err      error
}

type pricesFetchedMsg struct {
	request *models.TrackingRequest
	points  []*models.PricePoint
	err     error
}

type progressUpdateMsg tasks.ProgressUpdate

type sweepCompleteMsg struct {
	stats *tasks.SweepStats
	err   error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, requests *repositories.TrackingRequestRepository, prices *repositories.PricePointRepository, monitor tasks.Monitor) *Model {
	return &Model{
		ctx:      ctx,
		view:     RequestListView,
		requests: requests,
		prices:   prices,
		monitor:  monitor,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by loading tracking requests.
func (m *Model) Init() tea.Cmd {
	return m.fetchRequests()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.requestList.Width() == 0 {
			m.requestList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.priceList.Width() == 0 {
			m.priceList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RequestListView:
			return m.handleRequestListKeys(msg)
		case PriceHistoryView:
			return m.handlePriceHistoryKeys(msg)
		case ConfirmSweepView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case requestsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.requests))
		for i, req := range msg.requests {
			items[i] = requestItem{request: req}
		}
		m.requestList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.requestList.Title = "Tracked Routes"
		m.requestList.SetSize(m.width-4, m.height-8)
		return m, nil

	case pricesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = RequestListView
			return m, nil
		}
		m.selectedRequest = msg.request
		items := make([]list.Item, len(msg.points))
		for i, point := range msg.points {
			items[i] = priceItem{point: point}
		}
		m.priceList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.priceList.Title = fmt.Sprintf("Price History for %s", msg.request.Route())
		m.priceList.SetSize(m.width-4, m.height-8)
		m.view = PriceHistoryView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case sweepCompleteMsg:
		m.stats = msg.stats
		m.err = msg.err
		m.view = ResultView
		if m.progressChan != nil {
			m.progressChan = nil
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case RequestListView:
		return m.renderRequestList()
	case PriceHistoryView:
		return m.renderPriceHistory()
	case ConfirmSweepView:
		return m.renderConfirm()
	case SweepView:
		return m.renderSweep()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleRequestListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.fetchRequests()
	case "s":
		m.view = ConfirmSweepView
		return m, nil
	case "enter":
		selected := m.requestList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(requestItem); ok {
				return m, m.fetchPrices(item.request)
			}
		}
	}

	var cmd tea.Cmd
	m.requestList, cmd = m.requestList.Update(msg)
	return m, cmd
}

func (m *Model) handlePriceHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = RequestListView
		return m, nil
	}

	var cmd tea.Cmd
	m.priceList, cmd = m.priceList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = RequestListView
		return m, nil
	case "y":
		m.view = SweepView
		return m, m.startSweep()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r", "esc":
		m.view = RequestListView
		m.stats = nil
		m.err = nil
		return m, m.fetchRequests()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case RequestListView:
		m.requestList, cmd = m.requestList.Update(msg)
	case PriceHistoryView:
		m.priceList, cmd = m.priceList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchRequests() tea.Cmd {
	return func() tea.Msg {
		requests, err := m.requests.List(map[string]any{})
		return requestsFetchedMsg{requests: requests, err: err}
	}
}

func (m *Model) fetchPrices(req *models.TrackingRequest) tea.Cmd {
	return func() tea.Msg {
		points, _, err := m.prices.ListByRequest(req.ID(), 1, 100)
		return pricesFetchedMsg{request: req, points: points, err: err}
	}
}

func (m *Model) startSweep() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progress := m.progressChan

	go func() {
		stats, err := m.monitor.CheckAll(m.ctx, progress)
		m.stats = stats
		m.err = err
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return sweepCompleteMsg{stats: m.stats, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return sweepCompleteMsg{stats: m.stats, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRequestList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.sweep, m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.requestList.View(), helpView)
}

func (m *Model) renderPriceHistory() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.priceList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Check all tracked routes now?")
	info := "\nFetches the current price for every active request and\nsends notifications for significant changes.\n"

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSweep() string {
	title := styles.title.Render("Sweeping Tracked Routes")

	var phase string
	switch m.progress.Phase {
	case tasks.SweepStart:
		phase = fmt.Sprintf("Starting sweep of %d requests...", m.progress.Total)
	case tasks.CheckRequest:
		phase = fmt.Sprintf("Checking (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CheckDone, tasks.CheckFailed:
		phase = fmt.Sprintf("Checked (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sweep failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.stats == nil {
		return styles.err.Render("No sweep results available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Sweep Complete")
	info := fmt.Sprintf(
		"\nChecked: %d\nPrice changes: %d\nNotifications sent: %d",
		m.stats.Checked,
		m.stats.PriceChanges,
		m.stats.Notifications,
	)

	var errLine string
	if m.stats.Errors > 0 {
		errLine = fmt.Sprintf("\n%s", styles.warn.Render(fmt.Sprintf("Failed checks: %d", m.stats.Errors)))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, errLine, helpView)
}
