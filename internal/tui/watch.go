// Package tui renders the live `bulkd watch` view: daemon health, recent
// batches, and the event stream, fed by the HTTP API.
package tui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/bulkd/internal/events"
	"github.com/mattjoyce/bulkd/internal/journal"
)

// --- Styles ---

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	statusOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	statusFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// --- Types ---

type batchRow struct {
	FileName     string
	SessionID    string
	CommandCount int
	At           time.Time
}

type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	batches   []batchRow
	eventLog  []events.Event
	hubEvents chan events.Event

	health struct {
		Status            string
		UptimeSeconds     int64
		Sessions          int
		ConsoleQueueDepth int
		FileQueueDepth    int
		BatchesRecorded   int
	}

	batchTable table.Model
	mu         sync.Mutex
}

type eventMsg events.Event
type healthMsg struct {
	Status            string `json:"status"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	Sessions          int    `json:"sessions"`
	ConsoleQueueDepth int    `json:"console_queue_depth"`
	FileQueueDepth    int    `json:"file_queue_depth"`
	BatchesRecorded   int    `json:"batches_recorded"`
}
type batchesMsg []journal.Entry
type errMsg error

// --- Init ---

func NewWatch(apiURL, apiKey string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "File", Width: 24},
			{Title: "Session", Width: 10},
			{Title: "Cmds", Width: 5},
			{Title: "When", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		batches:    make([]batchRow, 0),
		eventLog:   make([]events.Event, 0),
		hubEvents:  make(chan events.Event, 100),
		batchTable: t,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.subscribeToEvents(),
		m.receiveNextEvent(),
		m.pollHealth(),
		m.fetchBatches(),
		tea.EnterAltScreen,
	)
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetchBatches()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.batchTable.SetWidth(m.width - 6)

	case eventMsg:
		m.handleEvent(events.Event(msg))
		m.updateTable()
		return m, m.receiveNextEvent()

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.Sessions = msg.Sessions
		m.health.ConsoleQueueDepth = msg.ConsoleQueueDepth
		m.health.FileQueueDepth = msg.FileQueueDepth
		m.health.BatchesRecorded = msg.BatchesRecorded
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return m.fetchHealth()
		})

	case batchesMsg:
		m.setBatches(msg)
		m.updateTable()

	case errMsg:
		// Shown implicitly: the header stays DEGRADED until a poll succeeds.
	}

	m.batchTable, cmd = m.batchTable.Update(msg)
	return m, cmd
}

func (m *Model) setBatches(entries []journal.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches = m.batches[:0]
	for _, e := range entries {
		m.batches = append(m.batches, batchRow{
			FileName:     e.FileName,
			SessionID:    e.SessionID,
			CommandCount: e.CommandCount,
			At:           e.CreatedAt,
		})
	}
}

func (m *Model) handleEvent(e events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.eventLog = append([]events.Event{e}, m.eventLog...)
	if len(m.eventLog) > 50 {
		m.eventLog = m.eventLog[:50]
	}

	if e.Type != events.TypeBatchFlushed {
		return
	}

	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	row := batchRow{At: e.At}
	if v, ok := data["file_name"].(string); ok {
		row.FileName = v
	}
	if v, ok := data["session_id"].(string); ok {
		row.SessionID = v
	}
	if v, ok := data["command_count"].(float64); ok {
		row.CommandCount = int(v)
	}

	m.batches = append([]batchRow{row}, m.batches...)
	if len(m.batches) > 100 {
		m.batches = m.batches[:100]
	}
}

func (m *Model) updateTable() {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]table.Row, 0, len(m.batches))
	for _, b := range m.batches {
		session := b.SessionID
		if len(session) > 8 {
			session = session[:8]
		}
		rows = append(rows, table.Row{
			b.FileName,
			session,
			fmt.Sprintf("%d", b.CommandCount),
			b.At.Format("15:04:05"),
		})
	}
	m.batchTable.SetRows(rows)
}

// --- View ---

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := m.renderHeader()
	batchesView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Recent Batches"),
			m.batchTable.View(),
		),
	)

	eventsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Event Stream"),
			m.renderEvents(),
		),
	)

	help := helpStyle.Render(" [q] Quit • [r] Refresh • [↑/↓] Scroll")

	return docStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			batchesView,
			eventsView,
			help,
		),
	)
}

func (m Model) renderHeader() string {
	status := statusOK.Render("RUNNING")
	if m.health.Status != "ok" && m.health.Status != "" {
		status = statusFailed.Render("DEGRADED")
	}

	uptime := time.Duration(m.health.UptimeSeconds) * time.Second

	items := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Uptime: %s", uptime.String()),
		fmt.Sprintf("Sessions: %d", m.health.Sessions),
		fmt.Sprintf("Queues: con %d / file %d", m.health.ConsoleQueueDepth, m.health.FileQueueDepth),
		fmt.Sprintf("Batches: %d", m.health.BatchesRecorded),
	}

	cells := make([]string, len(items))
	cellWidth := (m.width - 4) / len(items)
	for i, item := range items {
		cells[i] = lipgloss.NewStyle().Width(cellWidth).Render(item)
	}

	return borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, cells...),
	)
}

func (m Model) renderEvents() string {
	var lines []string
	for i, e := range m.eventLog {
		if i >= 10 {
			break
		}
		ts := e.At.Format("15:04:05")
		lines = append(lines, fmt.Sprintf("%s | %-22s | %s", ts, e.Type, string(e.Data)))
	}
	if len(lines) == 0 {
		return "  No events yet..."
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// --- Commands ---

func (m Model) subscribeToEvents() tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{}
		req, _ := http.NewRequest("GET", m.apiURL+"/v1/events", nil)
		if m.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+m.apiKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			return errMsg(err)
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data: ") {
				var ev events.Event
				if err := json.Unmarshal([]byte(line[6:]), &ev); err == nil {
					m.hubEvents <- ev
				}
			}
		}
		return nil
	}
}

func (m Model) receiveNextEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-m.hubEvents)
	}
}

func (m Model) pollHealth() tea.Cmd {
	return func() tea.Msg {
		return m.fetchHealth()
	}
}

func (m Model) fetchHealth() tea.Msg {
	client := &http.Client{Timeout: 2 * time.Second}
	req, _ := http.NewRequest("GET", m.apiURL+"/healthz", nil)

	resp, err := client.Do(req)
	if err != nil {
		return errMsg(err)
	}
	defer resp.Body.Close()

	var h healthMsg
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return errMsg(err)
	}
	return h
}

func (m Model) fetchBatches() tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{Timeout: 2 * time.Second}
		req, _ := http.NewRequest("GET", m.apiURL+"/v1/batches?limit=100", nil)
		if m.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+m.apiKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			return errMsg(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			// Journal disabled; the table fills from live events instead.
			return nil
		}

		var entries []journal.Entry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return errMsg(err)
		}
		return batchesMsg(entries)
	}
}
