package main

import (
	"fmt"
	"strconv"
	"strings"

	"quizsystem"
	"quizsystem/virtuallist"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	browseTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	browseHeaderStyle = lipgloss.NewStyle().Bold(true)
	browseTypeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	browseAnswerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	browseStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	browseRowStyle    = lipgloss.NewStyle().PaddingLeft(1).PaddingBottom(1)
)

// bankRow adapts a question to the list's identity interface so measured
// heights follow the question rather than its position.
type bankRow struct {
	quizsystem.Question
}

func (r bankRow) ID() string { return r.Question.ID }

func newBrowseCmd(a *app) *cobra.Command {
	var showAnswers bool

	cmd := &cobra.Command{
		Use:   "browse <bank-id>",
		Short: "Scroll through a bank in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			bank, err := db.GetBank(cmd.Context(), args[0])
			db.Close()
			if err != nil {
				return err
			}

			m := newBrowseModel(bank, showAnswers)
			defer m.list.Close()
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&showAnswers, "answers", true, "show reference answers")
	return cmd
}

type scrollEndMsg struct{}

// browseModel renders a bank as a line-addressed virtual list. Row heights
// are measured in terminal lines after rendering and cached per question.
type browseModel struct {
	bank    *quizsystem.QuestionBank
	rows    []bankRow
	list    *virtuallist.List[bankRow]
	heights *virtuallist.HeightCache[bankRow]
	settled chan struct{}

	top         float64
	width       int
	height      int
	showAnswers bool

	jumping bool
	jump    textinput.Model
}

func newBrowseModel(bank *quizsystem.QuestionBank, showAnswers bool) *browseModel {
	rows := make([]bankRow, len(bank.Questions))
	for i, q := range bank.Questions {
		rows[i] = bankRow{Question: q}
	}

	jump := textinput.New()
	jump.Prompt = "Go to question: "
	jump.CharLimit = 6

	m := &browseModel{
		bank:        bank,
		rows:        rows,
		heights:     virtuallist.NewHeightCache[bankRow](4),
		settled:     make(chan struct{}, 1),
		width:       80,
		height:      24,
		showAnswers: showAnswers,
		jump:        jump,
	}
	m.list = virtuallist.New(rows,
		virtuallist.WithHeightFunc[bankRow](m.heights.Height),
		virtuallist.WithContainerHeight[bankRow](float64(m.viewHeight())),
		virtuallist.WithOverscan[bankRow](2),
		virtuallist.WithOnScrollEnd[bankRow](m.onScrollEnd),
	)
	m.list.Attach(m)
	return m
}

// ScrollTop and SetScrollTop make the model the list's viewport.
func (m *browseModel) ScrollTop() float64 { return m.top }

func (m *browseModel) SetScrollTop(offset float64) {
	maxTop := max(0, m.list.TotalHeight()-float64(m.viewHeight()))
	m.top = min(max(0, offset), maxTop)
	m.list.HandleScroll(m.top)
}

func (m *browseModel) onScrollEnd() {
	select {
	case m.settled <- struct{}{}:
	default:
	}
}

func (m *browseModel) waitSettled() tea.Cmd {
	return func() tea.Msg {
		<-m.settled
		return scrollEndMsg{}
	}
}

func (m *browseModel) Init() tea.Cmd {
	return m.waitSettled()
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width != m.width {
			m.heights.Clear()
		}
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetContainerHeight(float64(m.viewHeight()))
		m.SetScrollTop(m.top)
		return m, nil

	case scrollEndMsg:
		return m, m.waitSettled()

	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := float64(m.viewHeight())

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.list.Close()
		return m, tea.Quit
	case "j", "down":
		m.SetScrollTop(m.top + 1)
	case "k", "up":
		m.SetScrollTop(m.top - 1)
	case "pgdown", " ", "f":
		m.SetScrollTop(m.top + page)
	case "pgup", "b":
		m.SetScrollTop(m.top - page)
	case "g", "home":
		m.list.ScrollToTop()
	case "G", "end":
		m.list.ScrollToBottom()
	case "n":
		m.list.ScrollToItem(min(m.currentIndex()+1, len(m.rows)-1))
	case "p":
		m.list.ScrollToItem(max(m.currentIndex()-1, 0))
	case "a":
		m.showAnswers = !m.showAnswers
		m.heights.Clear()
	case ":":
		m.jumping = true
		m.jump.SetValue("")
		return m, m.jump.Focus()
	}
	return m, nil
}

func (m *browseModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.jumping = false
		m.jump.Blur()
		return m, nil
	case "enter":
		m.jumping = false
		m.jump.Blur()
		if n, err := strconv.Atoi(strings.TrimSpace(m.jump.Value())); err == nil && n >= 1 && n <= len(m.rows) {
			m.list.ScrollToItem(n - 1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

// currentIndex returns the question at the top edge of the viewport
func (m *browseModel) currentIndex() int {
	if len(m.rows) == 0 {
		return 0
	}
	lo, hi := 0, len(m.rows)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.list.ItemOffset(mid) <= m.top {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// viewHeight is the number of lines available to rows, excluding the
// title and status lines.
func (m *browseModel) viewHeight() int {
	return max(1, m.height-2)
}

func (m *browseModel) renderRow(r bankRow, index int) string {
	var b strings.Builder
	b.WriteString(browseHeaderStyle.Render(fmt.Sprintf("%d.", index+1)))
	b.WriteString(" ")
	b.WriteString(browseTypeStyle.Render("[" + string(r.Type) + "]"))
	b.WriteString("\n")
	b.WriteString(r.Question.Question)
	for i, opt := range r.Options {
		fmt.Fprintf(&b, "\n  %c) %s", 'A'+i, opt)
	}
	if m.showAnswers {
		b.WriteString("\n")
		b.WriteString(browseAnswerStyle.Render("✔ " + r.Answer))
	}
	return browseRowStyle.Width(max(20, m.width-1)).Render(b.String())
}

func (m *browseModel) View() string {
	// the window starts at the overscanned row; drop the lines above the viewport
	skip := max(0, int(m.top-m.list.OffsetY()))
	need := skip + m.viewHeight()

	var lines []string
	r := m.list.VisibleRange()
	// tall overscan rows can end the window early, so keep going until the viewport is full
	for i := r.Start; i < len(m.rows) && (i < r.End || len(lines) < need); i++ {
		rendered := m.renderRow(m.rows[i], i)
		m.heights.Set(m.rows[i], i, float64(lipgloss.Height(rendered)))
		lines = append(lines, strings.Split(rendered, "\n")...)
	}

	lines = lines[min(skip, len(lines)):]
	if h := m.viewHeight(); len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < m.viewHeight() {
		lines = append(lines, "")
	}

	title := browseTitleStyle.Render(fmt.Sprintf("📚 %s (%d questions)", m.bank.Name, len(m.rows)))
	return title + "\n" + strings.Join(lines, "\n") + "\n" + m.statusLine()
}

func (m *browseModel) statusLine() string {
	if m.jumping {
		return m.jump.View()
	}
	state := "idle"
	if m.list.IsScrolling() {
		state = "scrolling"
	}
	current := 0
	if len(m.rows) > 0 {
		current = m.currentIndex() + 1
	}
	return browseStatusStyle.Render(fmt.Sprintf(
		"%d/%d · %s · j/k scroll · pgup/pgdn page · g/G ends · n/p question · : jump · a answers · q quit",
		current, len(m.rows), state))
}
