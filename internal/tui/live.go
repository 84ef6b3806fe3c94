// Package tui renders a projection live in the terminal while it
// integrates.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/integrators"
	"github.com/overstory/standsim/internal/scenario"
	"github.com/overstory/standsim/internal/units"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	faultStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

type tickMsg time.Time

type liveModel struct {
	modelID   string
	sys       dynamics.System
	stoch     dynamics.Stochastic
	em        *integrators.Maruyama
	rk        *integrators.RK45
	x         dynamics.State
	t, t1, h  float64
	perFrame  int
	fieldIdx  int
	fieldName string
	fieldUnit string
	series    []float64
	fps       int
	done      bool
	faulted   bool
}

// Run animates a problem stepping to its horizon. field names the state
// to chart; h is the display step in seconds.
func Run(p *scenario.Problem, method scenario.Method, field string, h float64, fps int) error {
	sys := p.System()
	schema := sys.Schema()
	idx := schema.StateIndex(field)
	if idx < 0 {
		return fmt.Errorf("tui: no state named %q in model %s", field, p.ModelID())
	}
	t0, t1 := p.Span()

	if fps <= 0 {
		fps = 20
	}
	// cover the span in roughly fifteen seconds of animation
	perFrame := int((t1 - t0) / h / float64(15*fps))
	if perFrame < 1 {
		perFrame = 1
	}

	m := &liveModel{
		modelID:   p.ModelID(),
		sys:       sys,
		rk:        integrators.NewRK45(),
		x:         p.Initial(),
		t:         t0,
		t1:        t1,
		h:         h,
		perFrame:  perFrame,
		fieldIdx:  idx,
		fieldName: field,
		fieldUnit: schema.States[idx].Unit,
		fps:       fps,
	}
	if st, ok := sys.(dynamics.Stochastic); ok {
		m.stoch = st
		m.em = integrators.NewMaruyama(method.Seed)
	}
	m.series = append(m.series, m.display(m.x[idx]))

	_, err := tea.NewProgram(m).Run()
	return err
}

func (m *liveModel) display(si float64) float64 {
	v, err := units.FromSI(si, m.fieldUnit)
	if err != nil {
		return si
	}
	return v
}

func (m *liveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *liveModel) Init() tea.Cmd {
	return m.tick()
}

func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		for i := 0; i < m.perFrame && m.t < m.t1; i++ {
			h := m.h
			if m.t+h > m.t1 {
				h = m.t1 - m.t
			}
			var next dynamics.State
			if m.stoch != nil {
				next = m.em.StepSDE(m.stoch, m.x, m.t, h)
			} else {
				next = m.rk.Step(m.sys, m.x, m.t, h)
			}
			if !next.IsValid() {
				m.faulted = true
				m.done = true
				break
			}
			m.x = next
			m.t += h
		}
		m.series = append(m.series, m.display(m.x[m.fieldIdx]))
		if m.t >= m.t1 {
			m.done = true
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *liveModel) View() string {
	head := titleStyle.Render(fmt.Sprintf("standsim live  %s", m.modelID))

	graph := asciigraph.Plot(m.series,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption(fmt.Sprintf("%s [%s]", m.fieldName, m.fieldUnit)),
	)

	status := statusStyle.Render(fmt.Sprintf("year %.1f / %.1f", m.t/units.Year, m.t1/units.Year)) +
		"  " + valueStyle.Render(fmt.Sprintf("%s=%.3f %s", m.fieldName, m.display(m.x[m.fieldIdx]), m.fieldUnit))
	if m.faulted {
		status += "  " + faultStyle.Render("non-finite state, stopped")
	} else if m.done {
		status += "  " + statusStyle.Render("done (q to quit)")
	}

	return head + "\n\n" + graph + "\n\n" + status + "\n"
}
