// Package tui renders a live terminal view of the analyzer's band
// snapshot, one bar per configured band.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spectra/internal/analysis"
)

// refreshInterval paces view updates. Snapshots arrive faster than this;
// the view always shows the latest one.
const refreshInterval = 33 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Width(14).
			Align(lipgloss.Right)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))

	peakBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75")).
			Bold(true)
)

// Analyzer is the slice of the analysis engine the view reads from.
type Analyzer interface {
	LatestBands() []analysis.FrequencyBand
	SampleRate() float64
	BufferSize() int
	FrequencyResolution() float64
	IsRecording() bool
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// SpectrumModel is the Bubble Tea model for the live band display.
type SpectrumModel struct {
	analyzer Analyzer
	bands    []analysis.FrequencyBand
	width    int
	height   int
	ready    bool
	keys     keyMap
}

type keyMap struct {
	quit key.Binding
}

// NewSpectrumModel creates the model. The analyzer should already be
// running; the view only reads snapshots.
func NewSpectrumModel(analyzer Analyzer) SpectrumModel {
	return SpectrumModel{
		analyzer: analyzer,
		keys: keyMap{
			quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
		},
	}
}

// Init starts the refresh ticker.
func (m SpectrumModel) Init() tea.Cmd {
	return tick()
}

// Update handles ticks, resizes and key input.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case tickMsg:
		m.bands = m.analyzer.LatestBands()
		return m, tick()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders one bar per band, scaled so a fully normalized band spans
// the available width.
func (m SpectrumModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Spectrum"))
	sb.WriteString("\n\n")

	barWidth := m.width - 22
	if barWidth < 10 {
		barWidth = 10
	}

	if len(m.bands) == 0 {
		sb.WriteString(infoStyle.Render("Waiting for audio..."))
		sb.WriteString("\n")
	}
	for _, band := range m.bands {
		filled := int(band.NormalizedAmplitude / analysis.NormalizedScale * float64(barWidth))
		if filled > barWidth {
			filled = barWidth
		}

		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		style := barStyle
		if band.NormalizedAmplitude >= analysis.NormalizedScale {
			style = peakBarStyle
		}

		sb.WriteString(labelStyle.Render(band.Name))
		sb.WriteString(" ")
		sb.WriteString(style.Render(bar))
		sb.WriteString(fmt.Sprintf(" %4.1f\n", band.NormalizedAmplitude))
	}

	sb.WriteString("\n")
	status := fmt.Sprintf("%.0f Hz • %d samples/frame • %.1f Hz/bin",
		m.analyzer.SampleRate(), m.analyzer.BufferSize(), m.analyzer.FrequencyResolution())
	if m.analyzer.IsRecording() {
		status += " • recording"
	}
	sb.WriteString(infoStyle.Render(status))
	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render("q: Quit"))
	return sb.String()
}

// StartSpectrumUI runs the live view until the user quits.
func StartSpectrumUI(analyzer Analyzer) error {
	p := tea.NewProgram(
		NewSpectrumModel(analyzer),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
