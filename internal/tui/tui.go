// Package tui is the terminal frontend. It implements the engine's
// presentation sink and turns its views into a scrolling log with a
// numbered choice list and a state sidebar.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kereth/troubles-sim/internal/engine"
	"github.com/kereth/troubles-sim/internal/event"
	"github.com/kereth/troubles-sim/internal/models"
	"github.com/kereth/troubles-sim/internal/story"
)

type sessionState int

const (
	statePlaying sessionState = iota
	stateEnded
	stateError
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Strikethrough(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00"))

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FFF87"))
)

// option is one selectable line in the numbered list.
type option struct {
	label     string
	choice    models.Choice
	available bool
}

// recorder buffers what the engine pushes through the sink so the
// model can drain it after each synchronous engine call. The engine
// holds this pointer; the bubbletea model is a value.
type recorder struct {
	lines   []string
	options []option
	player  *models.Player
	stats   *models.GameStats
	ended   bool
}

func (r *recorder) line(s string) { r.lines = append(r.lines, s) }

func (r *recorder) setResolved(choices []story.ResolvedChoice) {
	r.options = nil
	for _, c := range choices {
		r.options = append(r.options, option{label: c.ResolvedText, choice: c.Choice, available: c.Available})
	}
}

func (r *recorder) ShowNode(n *story.ResolvedNode) {
	if n.Node.Title != "" {
		r.line(titleStyle.Render(n.Node.Title))
	}
	r.line(gameStyle.Render(n.Text))
	r.setResolved(n.Choices)
}

func (r *recorder) ShowHub(v *engine.HubView) {
	r.line(titleStyle.Render(v.Location.Name))
	r.line(gameStyle.Render(v.Text))
	r.options = nil
	for _, a := range v.Actions {
		r.options = append(r.options, option{label: a.Text, choice: a, available: true})
	}
}

func (r *recorder) ShowDialogue(v *engine.DialogueView) {
	name := v.NPCName
	if name == "" {
		name = v.NPCID
	}
	r.line(titleStyle.Render(name) + gameStyle.Render(": "+v.Text))
	r.setResolved(v.Choices)
}

func (r *recorder) ShowEvent(v *engine.EventView) {
	r.line(eventStyle.Render("! " + v.Def.Title))
	r.line(gameStyle.Render(v.Description))
	r.setResolved(v.Choices)
}

func (r *recorder) ShowEventResult(res *event.Result) {
	if res.Consequence != "" {
		r.line(gameStyle.Italic(true).Render(res.Consequence))
	}
}

func (r *recorder) ShowEnding(v *engine.EndingView) {
	r.line(eventStyle.Render(v.Node.Title))
	r.line(gameStyle.Render(v.Text))

	summary := fmt.Sprintf("Choices made: %d   Locations seen: %d   Trauma: %d",
		v.Session.ChoicesMade, len(v.Session.LocationsVisited), v.TraumaScore)
	r.line(helpStyle.Render(summary))
	if len(v.Achievements) > 0 {
		r.line(goodStyle.Render("Unlocked: " + strings.Join(v.Achievements, ", ")))
	}

	r.options = nil
	r.player = v.Player
	r.ended = true
}

func (r *recorder) Notify(level engine.NotifyLevel, msg string) {
	switch level {
	case engine.NotifyWarning, engine.NotifyError:
		r.line(warnStyle.Render(msg))
	case engine.NotifySuccess:
		r.line(goodStyle.Render(msg))
	default:
		r.line(helpStyle.Render(msg))
	}
}

func (r *recorder) StateChanged(p *models.Player, gs *models.GameStats) {
	r.player = p
	r.stats = gs
}

func (r *recorder) LocationChanged(loc models.Location) {
	r.line(helpStyle.Render("You make your way to " + loc.Name + "."))
}

type model struct {
	state     sessionState
	engine    *engine.Engine
	sink      *recorder
	textInput textinput.Model
	viewport  viewport.Model
	err       error
	gameLog   string
	options   []option
	width     int
	height    int
}

// NewModel wires a model over an engine that was built with sink as
// its presentation sink.
func NewModel(eng *engine.Engine, sink *recorder) model {
	ti := textinput.New()
	ti.Placeholder = "Enter a number..."
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	return model{
		state:     statePlaying,
		engine:    eng,
		sink:      sink,
		textInput: ti,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.run(func() { m.engine.Start() }))
}

type engineRanMsg struct{}

type errMsg struct {
	err error
}

// run executes an engine call off the update loop and signals the
// model to drain the sink afterwards.
func (m model) run(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return engineRanMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.textInput.Reset()
			return m.handleInput(input)
		}

	case tea.BlurMsg:
		m.engine.Pause()
		return m, nil

	case tea.FocusMsg:
		m.engine.Resume()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.75)
		m.viewport.Height = msg.Height - 8
		m.viewport.SetContent(m.gameLog)

	case engineRanMsg:
		m = m.drain()
		return m, nil

	case errMsg:
		m.err = msg.err
		m.state = stateError
		return m, nil
	}

	if m.state != stateError {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

// drain moves everything the engine pushed since the last call into
// the log and choice list.
func (m model) drain() model {
	logWidth := int(float64(m.width) * 0.75)
	if logWidth <= 0 {
		logWidth = 80
	}
	if m.viewport.Width == 0 {
		m.viewport = viewport.New(logWidth, max(m.height-8, 10))
	}

	for _, l := range m.sink.lines {
		m.gameLog += lipgloss.NewStyle().Width(logWidth).Render(l) + "\n\n"
	}
	m.sink.lines = nil
	m.options = m.sink.options

	if m.sink.ended {
		m.state = stateEnded
	}

	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
	return m
}

func (m model) handleInput(input string) (tea.Model, tea.Cmd) {
	logWidth := int(float64(m.width) * 0.75)
	m.gameLog += userStyle.Width(logWidth).Render("> "+input) + "\n\n"
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(m.options) {
		m.gameLog += warnStyle.Render("Pick a number from the list.") + "\n\n"
		m.viewport.SetContent(m.gameLog)
		return m, nil
	}
	opt := m.options[n-1]
	if !opt.available {
		m.gameLog += warnStyle.Render("That option is out of reach right now.") + "\n\n"
		m.viewport.SetContent(m.gameLog)
		return m, nil
	}
	return m, m.run(func() { m.engine.SelectChoice(opt.choice) })
}

func (m model) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	arg := "quicksave"
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit":
		return m, tea.Quit

	case "/restart":
		m.state = statePlaying
		m.gameLog = ""
		m.options = nil
		m.sink.ended = false
		return m, m.run(func() { m.engine.Restart() })

	case "/save":
		name := arg
		return m, m.run(func() {
			if err := m.engine.Save(name); err != nil {
				m.sink.Notify(engine.NotifyError, "Save failed: "+err.Error())
			} else {
				m.sink.Notify(engine.NotifySuccess, "Saved as "+name+".")
			}
		})

	case "/load":
		name := arg
		m.state = statePlaying
		m.sink.ended = false
		return m, m.run(func() {
			if err := m.engine.Load(name); err != nil {
				m.sink.Notify(engine.NotifyError, "Load failed: "+err.Error())
			}
		})

	case "/saves":
		saves := m.engine.Saves()
		if len(saves) == 0 {
			m.gameLog += helpStyle.Render("No saved games.") + "\n\n"
		}
		for _, s := range saves {
			m.gameLog += helpStyle.Render(fmt.Sprintf("%s  (%s at %s, %d choices)",
				s.Name, s.CharacterName, s.Location, s.ChoicesMade)) + "\n"
		}
		m.gameLog += "\n"
		m.viewport.SetContent(m.gameLog)
		m.viewport.GotoBottom()
		return m, nil

	case "/journal":
		m.gameLog += m.renderJournal()
		m.viewport.SetContent(m.gameLog)
		m.viewport.GotoBottom()
		return m, nil

	default:
		m.gameLog += warnStyle.Render("Commands: /save, /load, /saves, /journal, /restart, /quit") + "\n\n"
		m.viewport.SetContent(m.gameLog)
		return m, nil
	}
}

// renderJournal shows the last few entries in their subjective form.
func (m model) renderJournal() string {
	p := m.engine.Player()
	if p == nil || len(p.Journal) == 0 {
		return helpStyle.Render("The journal is empty.") + "\n\n"
	}

	const tail = 8
	entries := p.Journal
	if len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}

	out := titleStyle.Render("JOURNAL") + "\n"
	for _, e := range entries {
		out += helpStyle.Render(e.Timestamp.Format("15:04")) + " " + gameStyle.Render(e.Text) + "\n"
	}
	return out + "\n"
}

func (m model) View() string {
	switch m.state {
	case stateError:
		return fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.\n", m.err)
	}

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewport.View(),
		m.renderState(),
	)

	var help string
	if m.state == stateEnded {
		help = helpStyle.Render("The story is over. /restart to begin again, /quit to leave.")
	} else {
		help = helpStyle.Render("Type a number to choose. Commands: /save, /load, /journal, /quit.")
	}

	return "\n" + lipgloss.JoinVertical(lipgloss.Left,
		mainView,
		m.renderOptions(),
		m.textInput.View(),
		help,
	) + "\n"
}

func (m model) renderOptions() string {
	if len(m.options) == 0 {
		return ""
	}
	var b strings.Builder
	for i, opt := range m.options {
		line := fmt.Sprintf("%d. %s", i+1, opt.label)
		if opt.available {
			b.WriteString(gameStyle.Render(line))
		} else {
			b.WriteString(lockedStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderState() string {
	p := m.sink.player
	if p == nil {
		return ""
	}

	location := titleStyle.Render("LOCATION") + "\n"
	if loc, ok := m.engine.Location(); ok {
		location += loc.Name + "\n\n"
	} else {
		location += p.Location + "\n\n"
	}

	stats := titleStyle.Render("STATS") + "\n"
	for _, name := range []string{models.StatTension, models.StatMorale, models.StatPtsd} {
		stats += fmt.Sprintf("%s: %d\n", name, p.Stats[name])
	}
	stats += "\n"

	standing := ""
	if len(p.Reputation) > 0 {
		standing = titleStyle.Render("STANDING") + "\n"
		for faction, v := range p.Reputation {
			standing += fmt.Sprintf("%s: %+d\n", faction, v)
		}
		standing += "\n"
	}

	inventory := titleStyle.Render("INVENTORY") + "\n"
	if len(p.Inventory) == 0 {
		inventory += "(empty)"
	} else {
		for _, item := range p.Inventory {
			inventory += "- " + item + "\n"
		}
	}

	content := location + stats + standing + inventory

	stateWidth := int(float64(m.width) * 0.23)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(content)
}

// Run builds the sink/engine/model trio and enters the program loop.
// The caller constructs the engine through Wire so the sink pointer is
// shared. Focus reporting is on so the engine pauses while the
// terminal is in the background.
func Run(eng *engine.Engine, sink *recorder) error {
	p := tea.NewProgram(NewModel(eng, sink), tea.WithAltScreen(), tea.WithReportFocus())
	_, err := p.Run()
	return err
}

// NewSink returns the presentation sink to hand to engine.Options.
func NewSink() *recorder { return &recorder{} }
