package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yummyactually/onyx/engine"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 0.05
	gainStep   = 1.0
)

// handleKey processes a key press and mutates the model in place.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.searching {
		m.handleSearchKey(msg)
		return nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.eng.Stop()

	case " ":
		m.togglePlayback()

	case "enter":
		if m.focus == focusPlaylist {
			m.playCursorTrack()
		}

	case "n", ">":
		m.nextTrack()

	case "b", "<":
		m.prevTrack()

	case "left":
		if m.focus == focusEQ {
			m.eqCursor = (m.eqCursor + engine.NumBands - 1) % engine.NumBands
		} else {
			m.eng.Seek(m.eng.Position() - seekStep)
		}

	case "right":
		if m.focus == focusEQ {
			m.eqCursor = (m.eqCursor + 1) % engine.NumBands
		} else {
			m.eng.Seek(m.eng.Position() + seekStep)
		}

	case "up":
		if m.focus == focusEQ {
			m.adjustGain(gainStep)
		} else {
			m.moveCursor(-1)
		}

	case "down":
		if m.focus == focusEQ {
			m.adjustGain(-gainStep)
		} else {
			m.moveCursor(1)
		}

	case "+", "=":
		m.eng.SetVolume(m.eng.Volume() + volumeStep)

	case "-", "_":
		m.eng.SetVolume(m.eng.Volume() - volumeStep)

	case "0":
		m.eng.SetGains([engine.NumBands]float64{})

	case "tab":
		if m.focus == focusPlaylist {
			m.focus = focusEQ
		} else {
			m.focus = focusPlaylist
		}

	case "s":
		m.playlist.ToggleShuffle()

	case "r":
		m.playlist.CycleRepeat()

	case "m":
		m.mini = !m.mini

	case "/":
		m.searching = true
		m.query = ""
		m.refreshFilter()
	}

	return nil
}

// handleSearchKey edits the search query while search mode is active.
func (m *Model) handleSearchKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEscape:
		// Esc cancels the filter entirely.
		m.searching = false
		m.query = ""
		m.refreshFilter()

	case tea.KeyEnter:
		// Enter keeps the filter and returns to navigation.
		m.searching = false

	case tea.KeyBackspace:
		if len(m.query) > 0 {
			runes := []rune(m.query)
			m.query = string(runes[:len(runes)-1])
			m.refreshFilter()
		}

	case tea.KeyUp:
		m.moveCursor(-1)

	case tea.KeyDown:
		m.moveCursor(1)

	case tea.KeySpace:
		m.query += " "
		m.refreshFilter()

	case tea.KeyRunes:
		m.query += string(msg.Runes)
		m.refreshFilter()
	}
}

// togglePlayback maps the spacebar to the right transport action for the
// current engine state.
func (m *Model) togglePlayback() {
	switch m.eng.State() {
	case engine.StatePlaying:
		m.eng.Pause()
	case engine.StatePaused:
		m.eng.Resume()
	default:
		m.playCursorTrack()
	}
}

// moveCursor moves the playlist cursor within the filtered view.
func (m *Model) moveCursor(delta int) {
	if len(m.visible) == 0 {
		return
	}
	pos := m.cursorPos()
	if pos < 0 {
		pos = 0
	} else {
		pos += delta
	}
	pos = max(0, min(pos, len(m.visible)-1))
	m.plCursor = m.visible[pos]
	m.adjustScroll()
}

// adjustGain nudges the selected EQ band. The engine clamps the result.
func (m *Model) adjustGain(delta float64) {
	gains := m.eng.Gains()
	gains[m.eqCursor] += delta
	m.eng.SetGains(gains)
}
