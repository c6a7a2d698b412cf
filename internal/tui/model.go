// Package tui is the terminal surface: a functionality selector, the selected form, and the rendered
// outcome of the last submission.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/morezero/course-recommender/pkg/dispatcher"
	"github.com/morezero/course-recommender/pkg/form"
	"github.com/morezero/course-recommender/pkg/interpreter"
)

const logPrefix = "tui:model"

// Dispatcher is the part of *dispatcher.Controller the terminal UI drives.
type Dispatcher interface {
	Names() []string
	Form(name string) (*dispatcher.FormView, error)
	Dispatch(ctx context.Context, req *dispatcher.DispatchRequest) (*interpreter.Presentation, error)
}

type focusArea int

const (
	focusSelector focusArea = iota
	focusForm
)

// dispatchDoneMsg carries the outcome of a submission back into Update.
type dispatchDoneMsg struct {
	name string
	pres *interpreter.Presentation
	err  error
}

// Model is the bubbletea model. Moving the selector only changes which form is shown; the backend
// is called only on submit.
type Model struct {
	ctx    context.Context
	d      Dispatcher
	names  []string
	titles []string

	cursor int
	focus  focusArea
	form   *dispatcher.FormView
	inputs []textinput.Model
	field  int

	busy   bool
	pres   *interpreter.Presentation
	errMsg *dispatcher.ErrorDetail
	status string
	width  int
}

// New creates a Model showing the first functionality's form.
func New(ctx context.Context, d Dispatcher) Model {
	m := Model{ctx: ctx, d: d, names: d.Names()}
	m.titles = make([]string, len(m.names))
	for i, n := range m.names {
		m.titles[i] = n
		if fv, err := d.Form(n); err == nil && fv.DisplayTitle != "" {
			m.titles[i] = fv.DisplayTitle
		}
	}
	if len(m.names) > 0 {
		m.selectForm(0)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case dispatchDoneMsg:
		m.busy = false
		if m.form == nil || msg.name != m.form.Name {
			return m, nil
		}
		if msg.err != nil {
			m.pres, m.errMsg = nil, dispatcher.ErrorDetailFor(msg.err)
		} else {
			m.pres, m.errMsg = msg.pres, nil
		}
		m.status = ""
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.focus == focusSelector {
			return m.updateSelector(msg)
		}
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 && !m.busy {
			m.selectForm(m.cursor - 1)
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 && !m.busy {
			m.selectForm(m.cursor + 1)
		}
	case "enter", "tab", "right", "l":
		if m.form != nil && len(m.inputs) > 0 {
			m.focus = focusForm
			return m, m.focusField(0)
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.blurAll()
		m.focus = focusSelector
		return m, nil
	case "tab", "down":
		return m, m.focusField((m.field + 1) % len(m.inputs))
	case "shift+tab", "up":
		return m, m.focusField((m.field - 1 + len(m.inputs)) % len(m.inputs))
	case "enter":
		return m.submit()
	}
	var cmd tea.Cmd
	m.inputs[m.field], cmd = m.inputs[m.field].Update(msg)
	return m, cmd
}

// submit starts a dispatch in a command so the UI keeps rendering while the backend is called.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy || m.form == nil {
		return m, nil
	}
	req := &dispatcher.DispatchRequest{Functionality: m.form.Name, Values: m.values()}
	m.busy = true
	m.status = "Submitting..."
	ctx, d := m.ctx, m.d
	slog.Debug(fmt.Sprintf("%s - submit %s", logPrefix, req.Functionality))
	return m, func() tea.Msg {
		pres, err := d.Dispatch(ctx, req)
		return dispatchDoneMsg{name: req.Functionality, pres: pres, err: err}
	}
}

// selectForm switches the active functionality and clears the previous outcome.
func (m *Model) selectForm(i int) {
	m.cursor = i
	m.pres, m.errMsg, m.status = nil, nil, ""
	fv, err := m.d.Form(m.names[i])
	if err != nil {
		m.form, m.inputs = nil, nil
		m.errMsg = dispatcher.ErrorDetailFor(err)
		return
	}
	m.form = fv
	m.field = 0
	m.inputs = make([]textinput.Model, len(fv.Fields))
	for j, f := range fv.Fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = form.MaxChars
		ti.Width = form.MaxChars + 1
		ti.Prompt = ""
		m.inputs[j] = ti
	}
}

func (m *Model) focusField(i int) tea.Cmd {
	m.blurAll()
	m.field = i
	return m.inputs[i].Focus()
}

func (m *Model) blurAll() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m Model) values() map[string]string {
	out := make(map[string]string, len(m.inputs))
	for i, f := range m.form.Fields {
		out[f.Name] = m.inputs[i].Value()
	}
	return out
}

// View implements tea.Model.
func (m Model) View() string {
	side := sidebarStyle
	if m.focus == focusSelector {
		side = sidebarFocusedStyle
	}
	sidebar := side.Render(m.viewSelector())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, m.viewMain()) + "\n" + m.viewHelp()
}

func (m Model) viewSelector() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Functionalities"))
	b.WriteString("\n")
	for i, t := range m.titles {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + t))
		} else {
			b.WriteString(itemStyle.Render(t))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewMain() string {
	if m.form == nil {
		if m.errMsg != nil {
			return failureStyle.Render(m.errMsg.Message)
		}
		return noticeStyle.Render("No functionalities are registered.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.form.DisplayTitle))
	b.WriteString("\n")

	fields := make([]string, len(m.inputs))
	for i, f := range m.form.Fields {
		fields[i] = lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render(f.Label), m.inputs[i].View())
	}
	if m.form.Layout == form.LayoutColumns {
		for i := range fields {
			fields[i] = lipgloss.NewStyle().MarginRight(3).Render(fields[i])
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, fields...))
	} else {
		b.WriteString(strings.Join(fields, "\n"))
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("[ " + m.form.SubmitLabel + " ]"))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString("\n" + mutedStyle.Render(m.status) + "\n")
	}
	if out := m.viewOutcome(); out != "" {
		b.WriteString("\n" + out + "\n")
	}
	return b.String()
}

func (m Model) viewOutcome() string {
	if m.errMsg != nil {
		return failureStyle.Render("Error: " + m.errMsg.Message)
	}
	if m.pres == nil {
		return ""
	}
	switch m.pres.Kind {
	case interpreter.KindTable:
		return renderTable(m.pres)
	case interpreter.KindEmptyNotice:
		return noticeStyle.Render(m.pres.Message)
	case interpreter.KindSuccess:
		return successStyle.Render(m.pres.Message)
	case interpreter.KindFailure:
		out := failureStyle.Render(m.pres.Message)
		if m.pres.Detail != nil {
			out += "\n" + mutedStyle.Render(*m.pres.Detail)
		}
		return out
	}
	return ""
}

func renderTable(p *interpreter.Presentation) string {
	cols := p.Records.Columns()
	rows := make([][]string, len(p.Records))
	for r, rec := range p.Records {
		rows[r] = make([]string, len(cols))
		for i, c := range cols {
			v, _ := rec.Get(c)
			rows[r][i] = interpreter.FormatValue(v)
		}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(cols...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			// Row 0 is the header.
			if row == 0 {
				return headerCellStyle
			}
			return cellStyle
		}).
		Render()
}

func (m Model) viewHelp() string {
	if m.focus == focusSelector {
		return helpStyle.Render("up/down select  enter edit form  q quit")
	}
	return helpStyle.Render("tab next field  enter submit  esc back  ctrl+c quit")
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, d Dispatcher) error {
	p := tea.NewProgram(New(ctx, d), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("%s - terminal UI failed: %w", logPrefix, err)
	}
	return nil
}
