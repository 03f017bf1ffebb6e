// package ui implements the interactive terminal frontend for refresh runs.
//
// The flow is topic review, confirmation, live progress, result summary.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/openclaw/playlister/internal/shared"
	"github.com/openclaw/playlister/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TopicListView ViewState = iota
	ConfirmView
	RefreshView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	config       *shared.Config
	engine       *tasks.RefreshEngine
	width        int
	height       int
	topicList    list.Model
	progressChan chan tasks.ProgressUpdate
	done         chan refreshCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.RefreshResult
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "refresh"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "again"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.yes, k.no},
		{k.restart, k.quit},
	}
}

// topicItem wraps a topic keyword to implement list.Item.
type topicItem struct {
	topic    string
	perTopic int
}

func (i topicItem) FilterValue() string { return i.topic }
func (i topicItem) Title() string       { return i.topic }
func (i topicItem) Description() string {
	return fmt.Sprintf("up to %d episodes per refresh", i.perTopic)
}

type progressUpdateMsg tasks.ProgressUpdate

type refreshCompleteMsg struct {
	result *tasks.RefreshResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, config *shared.Config, engine *tasks.RefreshEngine) *Model {
	m := &Model{
		ctx:    ctx,
		view:   TopicListView,
		config: config,
		engine: engine,
		help:   help.New(),
		keys:   newKeyMap(),
	}

	items := make([]list.Item, len(config.Playlist.Topics))
	for i, topic := range config.Playlist.Topics {
		items[i] = topicItem{topic: topic, perTopic: config.Playlist.EpisodesPerTopic}
	}
	m.topicList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.topicList.Title = fmt.Sprintf("Topics for '%s'", config.Playlist.Name)

	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.topicList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TopicListView:
			return m.handleTopicListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case refreshCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.done = nil
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == TopicListView {
		m.topicList, cmd = m.topicList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case TopicListView:
		return m.renderTopicList()
	case ConfirmView:
		return m.renderConfirm()
	case RefreshView:
		return m.renderRefresh()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTopicListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if len(m.config.Playlist.Topics) == 0 {
			m.err = fmt.Errorf("no topics configured, add some with 'playlister topic add'")
			m.view = ResultView
			return m, nil
		}
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.topicList, cmd = m.topicList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = TopicListView
		return m, nil
	case "y":
		m.view = RefreshView
		return m, m.startRefresh()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	case "r":
		m.view = TopicListView
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) startRefresh() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progress := m.progressChan

	done := make(chan refreshCompleteMsg, 1)
	go func() {
		playlist := m.config.Playlist
		strategy, err := tasks.StrategyFromConfig(playlist.SearchStrategy, playlist.EpisodesPerTopic, len(playlist.Topics))
		if err != nil {
			done <- refreshCompleteMsg{err: err}
			close(progress)
			return
		}
		sortBy, err := tasks.ParseSortMode(playlist.SortBy)
		if err != nil {
			done <- refreshCompleteMsg{err: err}
			close(progress)
			return
		}

		result, err := m.engine.Refresh(m.ctx, progress, tasks.RefreshOptions{
			PlaylistName: playlist.Name,
			Topics:       playlist.Topics,
			Strategy:     strategy,
			Sort:         sortBy,
			Public:       playlist.Public(),
		})
		done <- refreshCompleteMsg{result: result, err: err}
		close(progress)
	}()

	m.done = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	done := m.done
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderTopicList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.topicList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	playlist := m.config.Playlist
	title := styles.title.Render(fmt.Sprintf("Refresh '%s' now?", playlist.Name))
	info := fmt.Sprintf("\nTopics: %d\nStrategy: %s\nSort: %s\nVisibility: %s\n",
		len(playlist.Topics), playlist.SearchStrategy, playlist.SortBy,
		shared.VisibilityString(playlist.Public()))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRefresh() string {
	title := styles.title.Render("Refreshing Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.SearchTopics:
		phase = "Searching episodes..."
	case tasks.FindPlaylist:
		phase = "Looking up playlist..."
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.FetchSnapshot:
		phase = "Reading current playlist contents..."
	case tasks.InsertEpisodes:
		phase = fmt.Sprintf("Inserting episodes (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.UpdateDescription:
		phase = "Updating description..."
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.err.Render(fmt.Sprintf("Refresh failed: %v", m.err)), helpView)
	}

	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Refresh Complete")
	verb := "updated"
	if m.result.Created {
		verb = "created"
	}
	info := fmt.Sprintf("\nPlaylist %s: %s\nFound: %d\nInserted: %d\nAlready present: %d",
		verb, m.result.Playlist.Name, len(m.result.Candidates), m.result.Inserted, m.result.AlreadyPresent)

	var counts string
	for _, tc := range m.result.TopicCounts {
		counts += fmt.Sprintf("\n  %s: %d", tc.Topic, tc.Found)
	}
	if counts != "" {
		counts = "\n\nTopics:" + counts
	}

	var link string
	if m.result.Playlist.URL != "" {
		link = fmt.Sprintf("\n\n%s", styles.help.Render(m.result.Playlist.URL))
	}

	return fmt.Sprintf("%s%s%s%s\n\n%s", title, info, counts, link, helpView)
}
