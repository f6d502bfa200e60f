package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yummyactually/onyx/engine"
)

const (
	panelWidth        = 60 // usable inner width (66 frame - 2 border - 4 padding)
	miniPanelMinW     = 28 // minimum usable inner width for mini mode
	miniFrameOverhead = 4  // border (2) + padding (2×1) for mini frame
)

// Pre-built styles for elements created per-render to avoid repeated allocation.
var (
	seekFillStyle = lipgloss.NewStyle().Foreground(colorSeekBar)
	seekDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	volBarStyle   = lipgloss.NewStyle().Foreground(colorVolume)
	activeToggle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)

// eqLabels are the display names of the five equalizer bands.
var eqLabels = [engine.NumBands]string{"60", "250", "1k", "4k", "16k"}

// pw returns the usable inner panel width for the current mode.
func (m Model) pw() int {
	if m.mini {
		w := m.width - miniFrameOverhead
		if w < miniPanelMinW {
			w = miniPanelMinW
		}
		return w
	}
	return panelWidth
}

// miniFrameW returns the outer frame width for mini mode.
func (m Model) miniFrameW() int {
	w := m.width
	if w < miniPanelMinW+miniFrameOverhead {
		w = miniPanelMinW + miniFrameOverhead
	}
	return w
}

// View renders the full TUI frame.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sections []string
	if m.mini {
		sections = []string{
			m.renderTitle(),
			m.renderTrackInfo(),
			m.renderTimeStatus(),
			m.renderSpectrum(),
			m.renderSeekBar(),
			m.renderVolume(),
			m.renderPlaylistHeader(),
			m.renderPlaylist(),
			m.renderHelp(),
		}
	} else {
		sections = []string{
			m.renderTitle(),
			m.renderTrackInfo(),
			m.renderTimeStatus(),
			"",
			m.renderSpectrum(),
			m.renderSeekBar(),
			"",
			m.renderVolume(),
			m.renderEQ(),
			"",
			m.renderPlaylistHeader(),
			m.renderPlaylist(),
			m.renderHelp(),
		}
	}

	if m.searching || m.query != "" {
		sections = append(sections, m.renderSearch())
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("ERR: %s", m.err)))
	}

	content := strings.Join(sections, "\n")
	if m.mini {
		return miniFrameStyle.Width(m.miniFrameW()).Render(content)
	}
	return frameStyle.Render(content)
}

func (m Model) renderTitle() string {
	return titleStyle.Render("O N Y X")
}

func (m Model) renderTrackInfo() string {
	track, _ := m.playlist.Current()
	name := track.DisplayName()
	if name == "" {
		name = "No track loaded"
	}

	pw := m.pw()
	prefix := "\U000f0e1e "
	if m.mini {
		prefix = "♫ "
	}
	maxW := pw - len([]rune(prefix))
	runes := []rune(name)

	if len(runes) <= maxW {
		return trackStyle.Render(prefix + name)
	}

	// Cyclic scrolling for long titles
	sep := []rune("   \U000f0e1e   ")
	if m.mini {
		sep = []rune("  ♫  ")
	}
	padded := append(runes, sep...)
	total := len(padded)
	off := m.titleOff % total

	display := make([]rune, maxW)
	for i := range maxW {
		display[i] = padded[(off+i)%total]
	}
	return trackStyle.Render(prefix + string(display))
}

func (m Model) renderTimeStatus() string {
	pos := m.eng.Position()
	dur := m.eng.Duration()

	posMin := int(pos.Minutes())
	posSec := int(pos.Seconds()) % 60
	durMin := int(dur.Minutes())
	durSec := int(dur.Seconds()) % 60

	timeStr := fmt.Sprintf("%02d:%02d / %02d:%02d", posMin, posSec, durMin, durSec)

	var status string
	state := m.eng.State()
	if m.mini {
		switch state {
		case engine.StatePaused:
			status = statusStyle.Render("")
		case engine.StatePlaying, engine.StateLoading:
			status = statusStyle.Render("")
		default:
			status = dimStyle.Render("")
		}
	} else {
		switch state {
		case engine.StatePaused:
			status = statusStyle.Render(" Paused")
		case engine.StatePlaying, engine.StateLoading:
			status = statusStyle.Render(" Playing")
		case engine.StateFinished:
			status = dimStyle.Render(" Finished")
		default:
			status = dimStyle.Render(" Stopped")
		}
	}

	left := timeStyle.Render(timeStr)
	gap := m.pw() - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return left + strings.Repeat(" ", gap) + status
}

func (m Model) renderSpectrum() string {
	bands := m.vis.Analyze(m.eng.Samples(fftSize))
	if m.mini {
		return m.vis.RenderDynamic(bands, m.pw())
	}
	return m.vis.Render(bands)
}

func (m Model) renderSeekBar() string {
	pos := m.eng.Position()
	dur := m.eng.Duration()

	var progress float64
	if dur > 0 {
		progress = float64(pos) / float64(dur)
	}
	progress = max(0, min(1, progress))

	pw := m.pw()
	filled := int(progress * float64(pw-1))

	return seekFillStyle.Render(strings.Repeat("━", filled)) +
		seekFillStyle.Render("●") +
		seekDimStyle.Render(strings.Repeat("━", max(0, pw-filled-1)))
}

func (m Model) renderVolume() string {
	vol := m.eng.Volume()
	frac := max(0, min(1, vol))

	if m.mini {
		// "V " (2) + bar + " 100%" (5) = 7 overhead
		barW := m.pw() - 7
		if barW < 4 {
			barW = 4
		}
		filled := int(frac * float64(barW))
		bar := volBarStyle.Render(strings.Repeat("█", filled)) +
			dimStyle.Render(strings.Repeat("░", barW-filled))
		return labelStyle.Render("V ") + bar + dimStyle.Render(fmt.Sprintf(" %3.0f%%", frac*100))
	}

	barW := 22
	filled := int(frac * float64(barW))
	bar := volBarStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", barW-filled))
	return labelStyle.Render("VOL ") + bar + dimStyle.Render(fmt.Sprintf(" %3.0f%%", frac*100))
}

func (m Model) renderEQ() string {
	gains := m.eng.Gains()

	parts := make([]string, len(eqLabels))
	for i, label := range eqLabels {
		style := eqInactiveStyle
		if gains[i] != 0 {
			label = fmt.Sprintf("%s%+.0f", label, gains[i])
			style = eqSetStyle
		}
		if m.focus == focusEQ && i == m.eqCursor {
			style = eqActiveStyle
			label = fmt.Sprintf("[%s %+.0fdB]", eqLabels[i], gains[i])
		}
		parts[i] = style.Render(label)
	}

	return labelStyle.Render("EQ  ") + strings.Join(parts, " ")
}

func (m Model) renderPlaylistHeader() string {
	var shuffle string
	if m.playlist.Shuffled() {
		shuffle = activeToggle.Render("[S]")
	} else {
		shuffle = dimStyle.Render("[S]")
	}

	if m.mini {
		var repeat string
		if m.playlist.Repeat() != 0 {
			repeat = activeToggle.Render(fmt.Sprintf("[R:%s]", m.playlist.Repeat()))
		} else {
			repeat = dimStyle.Render("[R]")
		}
		return dimStyle.Render("─ Playlist ─ ") + shuffle + " " + repeat
	}

	if m.playlist.Shuffled() {
		shuffle = activeToggle.Render("[Shuffle]")
	} else {
		shuffle = dimStyle.Render("[Shuffle]")
	}

	repeatStr := fmt.Sprintf("[Repeat: %s]", m.playlist.Repeat())
	if m.playlist.Repeat() != 0 {
		repeatStr = activeToggle.Render(repeatStr)
	} else {
		repeatStr = dimStyle.Render(repeatStr)
	}

	return dimStyle.Render("── Playlist ── ") + shuffle + " " + repeatStr + " " + dimStyle.Render("──")
}

func (m Model) renderPlaylist() string {
	tracks := m.playlist.Tracks()
	if len(tracks) == 0 {
		return dimStyle.Render("  No tracks loaded")
	}
	if len(m.visible) == 0 {
		return dimStyle.Render("  No matches")
	}

	currentIdx := m.playlist.Index()
	playing := m.eng.State() == engine.StatePlaying || m.eng.State() == engine.StatePaused
	visible := min(m.plVisible, len(m.visible))

	scroll := m.plScroll
	if scroll+visible > len(m.visible) {
		scroll = len(m.visible) - visible
	}
	scroll = max(0, scroll)

	lines := make([]string, 0, visible)
	for pos := scroll; pos < scroll+visible && pos < len(m.visible); pos++ {
		idx := m.visible[pos]
		prefix := "  "
		style := playlistItemStyle

		if idx == currentIdx && playing {
			prefix = " "
			style = playlistActiveStyle
		}

		if m.focus == focusPlaylist && idx == m.plCursor {
			style = playlistSelectedStyle
		}

		name := tracks[idx].DisplayName()
		maxW := m.pw() - 6
		nameRunes := []rune(name)
		if len(nameRunes) > maxW {
			name = string(nameRunes[:maxW-1]) + "…"
		}

		lines = append(lines, style.Render(fmt.Sprintf("%s%d. %s", prefix, idx+1, name)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderSearch() string {
	cursor := ""
	if m.searching {
		cursor = "▌"
	}
	return searchStyle.Render("/" + m.query + cursor)
}

func (m Model) renderHelp() string {
	if m.mini {
		return helpStyle.Render("[Spc]Play [<>]Trk [Q]Quit")
	}
	return helpStyle.Render("[Spc]\U000f040e  [<>]Trk []Seek [+-]Vol [Tab]Focus [/]Find [Q]Quit")
}
