package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LyesMestiri/atom/internal/automation"
	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/experiment"
)

var presetInfo = map[string]string{
	"gyration":   "uniform B, one orbit",
	"exb_drift":  "crossed E and B",
	"mirror":     "magnetic bottle",
	"wave":       "plane wave surfing",
	"accelerate": "pure E acceleration",
	"beam":       "thermal beam in B",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// model is the preset picker wrapped around a live Model.
type model struct {
	state, cursor int
	presets       []string
	cfg           *config.Config
	paramNames    []string
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	liveModel     Model
}

func NewInteractiveApp() *model {
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		cfg, err := config.GetPreset(m.presets[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		m.cfg, m.err = cfg, nil
		m.state, m.paramCursor = stateConfig, 0
		m.paramNames = paramsFor(cfg.Field.Kind)
	}
	return m, nil
}

// paramsFor lists the parameters worth tuning for a field kind.
func paramsFor(kind string) []string {
	names := []string{"dt", "duration"}
	switch kind {
	case config.FieldMirror:
		names = append(names, "b0", "length")
	case config.FieldWave:
		names = append(names, "amplitude", "k", "omega")
	}
	return append(names, "ex", "ey", "ez", "hx", "hy", "hz")
}

func paramValue(cfg *config.Config, name string) float64 {
	f := cfg.Field
	switch name {
	case "dt":
		return cfg.Dt
	case "duration":
		return cfg.Duration
	case "b0":
		return f.B0
	case "length":
		return f.Length
	case "amplitude":
		return f.Amplitude
	case "k":
		return f.K
	case "omega":
		return f.Omega
	case "ex", "ey", "ez":
		return f.E[name[1]-'x']
	case "hx", "hy", "hz":
		return f.H[name[1]-'x']
	}
	return 0
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	name := m.paramNames[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			if val, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.err = automation.SetParam(m.cfg, name, val)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, strconv.FormatFloat(paramValue(m.cfg, name), 'g', -1, 64)
	case "s":
		return m.start()
	case "left", "h":
		m.err = automation.SetParam(m.cfg, name, paramValue(m.cfg, name)-0.1)
	case "right", "l":
		m.err = automation.SetParam(m.cfg, name, paramValue(m.cfg, name)+0.1)
	}
	return m, nil
}

func (m model) start() (model, tea.Cmd) {
	exp, err := experiment.Prepare(m.cfg)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.liveModel = NewModel(exp.GetSimulator(), exp.Population(), m.cfg.Dt, m.cfg.Duration, m.cfg.Name)
	m.state = stateSim
	return m, m.liveModel.Init()
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

func (m model) viewMenu() string {
	st := stylesFor(CurrentTheme)
	muted := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)

	var b strings.Builder
	b.WriteString("\n\n    " + st.header.Render("ATOM") + "\n    " + muted.Render("relativistic particle pusher") + "\n\n")
	for i, name := range m.presets {
		line := fmt.Sprintf("%-12s %s", name, presetInfo[name])
		if i == m.cursor {
			b.WriteString("    " + st.selected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("      " + muted.Render(line) + "\n")
		}
	}
	b.WriteString("\n    " + st.help.Render("j/k navigate  enter select  q quit") + "\n")
	return b.String()
}

func (m model) viewConfig() string {
	st := stylesFor(CurrentTheme)
	muted := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)

	var b strings.Builder
	b.WriteString("\n\n    " + st.header.Render(strings.ToUpper(m.cfg.Name)) + "\n    " + muted.Render(presetInfo[m.cfg.Name]) + "\n\n")
	for i, name := range m.paramNames {
		valStr := fmt.Sprintf("%10.4g", paramValue(m.cfg, name))
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		line := fmt.Sprintf("%-10s %s", name, valStr)
		if i == m.paramCursor {
			b.WriteString("    " + st.selected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("      " + muted.Render(line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + st.failed.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + st.help.Render("j/k select  h/l adjust  enter edit  s start  esc back") + "\n")
	return b.String()
}

func RunInteractive() error {
	_, err := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen()).Run()
	return err
}
