// ============================================================================
// meinCODEWERK (mCW) - Lokale G-Code-Annotationsplattform
// ============================================================================
//
// Package:     annotview
// Description: Main Bubbletea model for the annotation viewer
// Author:      Mike Stoffels with Claude
// Created:     2026-03-08
// License:     MIT
// ============================================================================

package annotview

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/mCW/foundation/gcode"
	"github.com/msto63/mCW/foundation/utils/stringx"
	"github.com/msto63/mCW/internal/jacquard/service"
	"github.com/msto63/mCW/pkg/core/version"
)

// Model is the main Bubbletea model for the annotation viewer
type Model struct {
	// State
	width     int
	height    int
	ready     bool
	loading   bool
	prompting bool
	showCarry bool
	err       error

	// Components
	viewport  viewport.Model
	spinner   spinner.Model
	pathInput textinput.Model

	// Document state
	path        string
	text        string
	annotations []gcode.LineAnnotation
	duration    time.Duration
	cached      bool

	// Profile state
	profile  string
	profiles []string

	// Backend
	service *service.Service
}

// Config holds annotation viewer configuration
type Config struct {
	Path      string
	Profile   string
	ShowCarry bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Profile:   "Standard",
		ShowCarry: true,
	}
}

// New creates a new annotation viewer model
func New(svc *service.Service, cfg Config) Model {
	// Setup spinner
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	// Setup file prompt
	ti := textinput.New()
	ti.Placeholder = "Pfad zur G-Code-Datei..."
	ti.CharLimit = 512
	ti.Width = 48

	return Model{
		spinner:   sp,
		pathInput: ti,
		path:      cfg.Path,
		profile:   cfg.Profile,
		showCarry: cfg.ShowCarry,
		loading:   cfg.Path != "",
		service:   svc,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.loadProfiles,
		tea.EnterAltScreen,
	}
	if m.path != "" {
		cmds = append(cmds, m.loadFile(m.path))
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4 // Title panel
		footerHeight := 4 // Status bar + help
		viewportHeight := msg.Height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case profilesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.profiles = msg.names
			if m.profile == "" && len(m.profiles) > 0 {
				m.profile = m.profiles[0]
			}
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
		} else {
			m.path = msg.path
			m.text = msg.text
			m.err = nil
			cmds = append(cmds, m.annotate(msg.text))
		}

	case annotatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.annotations = msg.resp.Lines
			m.profile = msg.resp.Profile
			m.duration = msg.resp.Duration
			m.cached = msg.resp.Cached
			m.err = nil
			m.updateViewportContent()
			m.viewport.GotoTop()
		}
	}

	// Update viewport
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	// Keep the prompt caret blinking
	if m.prompting {
		m.pathInput, cmd = m.pathInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompting {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEsc:
			m.prompting = false
			m.pathInput.Blur()
			return m, nil

		case tea.KeyEnter:
			path := strings.TrimSpace(m.pathInput.Value())
			m.prompting = false
			m.pathInput.Blur()
			if path == "" {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadFile(path))
		}

		var cmd tea.Cmd
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit

		// Profile cycling
		case "p":
			return m.cycleProfile(1)
		case "P":
			return m.cycleProfile(-1)

		// Carry marker visibility
		case "c":
			m.showCarry = !m.showCarry
			m.updateViewportContent()
			return m, nil

		// Reload from disk
		case "r":
			if m.path == "" {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadFile(m.path))

		// Open file prompt
		case "o":
			m.prompting = true
			m.pathInput.SetValue("")
			m.pathInput.Focus()
			return m, textinput.Blink

		// Go to top
		case "g":
			m.viewport.GotoTop()
			return m, nil

		// Go to bottom
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.KeyPgUp:
		m.viewport.ViewUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.ViewDown()
		return m, nil

	case tea.KeyUp:
		m.viewport.LineUp(1)
		return m, nil

	case tea.KeyDown:
		m.viewport.LineDown(1)
		return m, nil
	}

	return m, nil
}

// cycleProfile switches the active profile and re-annotates
func (m Model) cycleProfile(step int) (tea.Model, tea.Cmd) {
	if len(m.profiles) < 2 {
		return m, nil
	}

	idx := 0
	for i, name := range m.profiles {
		if name == m.profile {
			idx = i
			break
		}
	}
	idx = (idx + step + len(m.profiles)) % len(m.profiles)
	m.profile = m.profiles[idx]

	if m.text == "" {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.annotate(m.text))
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Lade Annotationsansicht..."
	}

	var b strings.Builder

	// Header with logo and profile
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Annotation viewport
	b.WriteString(m.renderViewArea())
	b.WriteString("\n")

	// Status bar
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	// Prompt or help bar
	if m.prompting {
		b.WriteString(m.renderPrompt())
	} else {
		b.WriteString(m.renderHelpBar())
	}

	return b.String()
}

// renderHeader renders the header with logo, profile and file name
func (m Model) renderHeader() string {
	logo := LogoStyle.Render(Logo)
	profile := ProfileBadgeStyle.Render("Profil: " + m.profile)
	file := HelpDescStyle.Render(m.displayPath())

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		logo,
		strings.Repeat(" ", 3),
		profile,
		strings.Repeat(" ", 3),
		file,
	)

	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

// renderViewArea renders the main annotation viewport
func (m Model) renderViewArea() string {
	style := ViewPanelStyle.Width(m.width - 2).Height(m.viewport.Height + 2)
	return style.Render(m.viewport.View())
}

// renderStatusBar renders the status bar
func (m Model) renderStatusBar() string {
	// Left: Line count
	leftPart := HelpDescStyle.Render(fmt.Sprintf("Zeilen: %d", len(m.annotations)))

	// Center: Version
	centerPart := HelpDescStyle.Render("v" + version.TUI)

	// Right: Annotation state
	var rightPart string
	switch {
	case m.loading:
		rightPart = m.spinner.View() + " Annotiere..."
	case m.err != nil:
		rightPart = ErrorStyle.Render("Fehler: " + stringx.Truncate(m.err.Error(), 48, "~"))
	case len(m.annotations) > 0:
		rightPart = HelpDescStyle.Render(m.duration.Round(time.Millisecond).String())
		if m.cached {
			rightPart += " " + StatusCachedStyle.Render("[Cache]")
		}
	}

	// Calculate padding
	leftLen := lipgloss.Width(leftPart)
	centerLen := lipgloss.Width(centerPart)
	rightLen := lipgloss.Width(rightPart)
	totalLen := leftLen + centerLen + rightLen
	availableSpace := m.width - totalLen - 4
	if availableSpace < 2 {
		availableSpace = 2
	}
	leftPadding := availableSpace / 2
	rightPadding := availableSpace - leftPadding

	content := leftPart + strings.Repeat(" ", leftPadding) + centerPart + strings.Repeat(" ", rightPadding) + rightPart

	return StatusBarStyle.Width(m.width - 2).Render(content)
}

// renderHelpBar renders the help shortcuts bar
func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint("↑/↓", "Blättern"),
		RenderKeyHint("p/P", "Profil"),
		RenderKeyHint("c", "Übernahme-Marker"),
		RenderKeyHint("o", "Öffnen"),
		RenderKeyHint("r", "Neu laden"),
		RenderKeyHint("g/G", "Anfang/Ende"),
		RenderKeyHint("q", "Beenden"),
	}

	return HelpStyle.Render(strings.Join(items, "  "))
}

// renderPrompt renders the file open prompt
func (m Model) renderPrompt() string {
	return HelpStyle.Render(InputPromptStyle.Render("Datei öffnen: ") + m.pathInput.View())
}

// updateViewportContent renders the annotated document into the viewport
func (m *Model) updateViewportContent() {
	if len(m.annotations) == 0 {
		m.viewport.SetContent(HelpDescStyle.Render("Keine Datei geladen. Mit 'o' eine G-Code-Datei öffnen."))
		return
	}

	srcWidth := m.sourceWidth()
	var content strings.Builder

	for _, la := range m.annotations {
		lineNo := LineNumberStyle.Render(fmt.Sprintf("%4d", la.Line.Number))
		src := renderSource(la, srcWidth)
		notes := m.renderNotes(la)

		content.WriteString(fmt.Sprintf("%s %s %s %s", lineNo, src, SeparatorStyle.Render("│"), notes))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// sourceWidth computes the width of the source column
func (m Model) sourceWidth() int {
	max := 8
	for _, la := range m.annotations {
		if len(la.Line.Raw) > max {
			max = len(la.Line.Raw)
		}
	}

	limit := m.width / 3
	if limit < 16 {
		limit = 16
	}
	if max > limit {
		max = limit
	}
	return max
}

// sourceSpan is one styled region of a source line
type sourceSpan struct {
	start int
	text  string
	style lipgloss.Style
}

// sourceSpans merges token and comment spans in column order
func sourceSpans(la gcode.LineAnnotation) []sourceSpan {
	tokens := la.Line.Tokens
	comments := la.Line.Comments

	spans := make([]sourceSpan, 0, len(tokens)+len(comments))
	ti, ci := 0, 0
	for ti < len(tokens) || ci < len(comments) {
		if ci >= len(comments) || (ti < len(tokens) && tokens[ti].Column <= comments[ci].Column) {
			tok := tokens[ti]
			spans = append(spans, sourceSpan{start: tok.Column, text: tok.Raw, style: StyleForToken(tok)})
			ti++
		} else {
			c := comments[ci]
			spans = append(spans, sourceSpan{start: c.Column, text: c.Raw, style: CommentStyle})
			ci++
		}
	}
	return spans
}

// renderSource renders one source line with letter class coloring,
// padded or truncated to the given column width
func renderSource(la gcode.LineAnnotation, width int) string {
	raw := la.Line.Raw

	var b strings.Builder
	cursor := 0
	for _, span := range sourceSpans(la) {
		if span.start > cursor && cursor < len(raw) {
			end := span.start
			if end > len(raw) {
				end = len(raw)
			}
			b.WriteString(SourceGapStyle.Render(raw[cursor:end]))
			cursor = end
		}
		b.WriteString(span.style.Render(span.text))
		cursor = span.start + len(span.text)
	}
	if cursor < len(raw) {
		b.WriteString(SourceGapStyle.Render(raw[cursor:]))
	}

	rendered := b.String()
	visible := lipgloss.Width(rendered)
	if visible > width {
		return lipgloss.NewStyle().MaxWidth(width).Render(rendered)
	}
	return rendered + strings.Repeat(" ", width-visible)
}

// renderNotes renders the annotations of one line
func (m Model) renderNotes(la gcode.LineAnnotation) string {
	if len(la.Results) == 0 {
		if comment := la.Comment(); comment != "" {
			return CommentStyle.Render(comment)
		}
		return ""
	}

	parts := make([]string, 0, len(la.Results))
	for _, res := range la.Results {
		note := StyleForToken(res.Token).Render(res.Token.Raw) + " " + NoteStyle.Render(res.Description)
		if m.showCarry && res.ModalCarry {
			note += " " + CarryStyle.Render(IconCarry)
		}
		parts = append(parts, note)
	}

	return strings.Join(parts, SeparatorStyle.Render("  ·  "))
}

// displayPath renders the current file path for the header
func (m Model) displayPath() string {
	if m.path == "" {
		return "(keine Datei)"
	}
	runes := []rune(m.path)
	if len(runes) > 40 {
		return "…" + string(runes[len(runes)-39:])
	}
	return m.path
}

// loadProfiles loads the profile catalog from the annotation service
func (m Model) loadProfiles() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profiles, err := m.service.ListProfiles(ctx)
	if err != nil {
		return profilesLoadedMsg{err: err}
	}

	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return profilesLoadedMsg{names: names}
}

// loadFile reads a G-code file from disk
func (m Model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return fileLoadedMsg{path: path, err: err}
		}
		return fileLoadedMsg{path: path, text: string(data)}
	}
}

// annotate runs one annotation pass over the loaded document
func (m Model) annotate(text string) tea.Cmd {
	profile := m.profile
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := m.service.AnnotateDocument(ctx, &service.AnnotateRequest{
			Profile: profile,
			Text:    text,
		})
		if err != nil {
			return annotatedMsg{err: err}
		}
		return annotatedMsg{resp: resp}
	}
}

// Run starts the annotation viewer TUI
func Run(svc *service.Service, cfg Config) error {
	p := tea.NewProgram(New(svc, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
