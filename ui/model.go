// Package ui implements the Bubbletea TUI for the Onyx terminal music player.
// The shell is a thin consumer of the engine: it polls position and duration
// on a tick and learns about track completion through a buffered notification
// channel drained on the UI goroutine.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yummyactually/onyx/engine"
	"github.com/yummyactually/onyx/playlist"
)

type focusArea int

const (
	focusPlaylist focusArea = iota
	focusEQ
)

type tickMsg time.Time

// TrackAddedMsg is sent from outside the TUI (the directory watcher)
// when a new audio file appears.
type TrackAddedMsg struct {
	Track playlist.Track
}

// Model is the Bubbletea model for the Onyx TUI.
type Model struct {
	eng      engine.Engine
	playlist *playlist.Playlist
	vis      *Visualizer

	// finished receives the engine's completion notification. Capacity 1:
	// if a stale notification is still queued the drain advances past both
	// tracks on consecutive ticks.
	finished chan struct{}

	focus     focusArea
	eqCursor  int   // selected EQ band (0-4)
	plCursor  int   // selected track index into the playlist
	plScroll  int   // scroll offset within the filtered view
	plVisible int   // max visible playlist items
	visible   []int // track indices matching the search query

	searching bool
	query     string

	titleOff int // scroll offset for long track titles
	err      error
	quitting bool
	mini     bool
	width    int
	height   int
}

// NewModel creates a Model wired to the given engine and playlist.
func NewModel(eng engine.Engine, pl *playlist.Playlist) Model {
	m := Model{
		eng:       eng,
		playlist:  pl,
		vis:       NewVisualizer(float64(engine.DefaultSampleRate)),
		finished:  make(chan struct{}, 1),
		plVisible: 5,
	}
	m.visible = pl.Search("")

	finished := m.finished
	eng.OnFinished(func() {
		select {
		case finished <- struct{}{}:
		default:
		}
	})
	return m
}

// Init starts the tick timer and requests the terminal size.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.WindowSize())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages: key presses, ticks, resizes, and new tracks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if m.quitting {
			return m, tea.Quit
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TrackAddedMsg:
		m.playlist.Add(msg.Track)
		m.refreshFilter()

	case tickMsg:
		select {
		case <-m.finished:
			m.nextTrack()
		default:
		}
		m.titleOff++
		return m, tickCmd()
	}

	return m, nil
}

// refreshFilter recomputes the filtered playlist view and keeps the
// cursor on a visible track.
func (m *Model) refreshFilter() {
	m.visible = m.playlist.Search(m.query)
	if len(m.visible) == 0 {
		return
	}
	if m.cursorPos() < 0 {
		m.plCursor = m.visible[0]
		m.plScroll = 0
	}
	m.adjustScroll()
}

// cursorPos returns the cursor's position within the filtered view, or -1.
func (m *Model) cursorPos() int {
	for pos, idx := range m.visible {
		if idx == m.plCursor {
			return pos
		}
	}
	return -1
}

// nextTrack advances to the next playlist track and starts playing it.
func (m *Model) nextTrack() {
	track, ok := m.playlist.Next()
	if !ok {
		m.eng.Stop()
		return
	}
	m.plCursor = m.playlist.Index()
	m.adjustScroll()
	if err := m.eng.Play(track.Path); err != nil {
		m.err = err
	}
}

// prevTrack goes to the previous track, or restarts if >3s into the current one.
func (m *Model) prevTrack() {
	if m.eng.Position() > 3*time.Second {
		m.eng.Seek(0)
		return
	}
	track, ok := m.playlist.Prev()
	if !ok {
		return
	}
	m.plCursor = m.playlist.Index()
	m.adjustScroll()
	if err := m.eng.Play(track.Path); err != nil {
		m.err = err
	}
}

// playCursorTrack starts playing whatever track the cursor points to.
func (m *Model) playCursorTrack() {
	if m.cursorPos() < 0 {
		return
	}
	m.playlist.SetIndex(m.plCursor)
	track, idx := m.playlist.Current()
	if idx < 0 {
		return
	}
	m.titleOff = 0
	m.err = nil
	if err := m.eng.Play(track.Path); err != nil {
		m.err = err
	}
}

// adjustScroll ensures the cursor stays visible in the playlist view.
func (m *Model) adjustScroll() {
	pos := m.cursorPos()
	if pos < 0 {
		return
	}
	if pos < m.plScroll {
		m.plScroll = pos
	}
	if pos >= m.plScroll+m.plVisible {
		m.plScroll = pos - m.plVisible + 1
	}
}
