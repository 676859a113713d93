package tui

import (
	"fmt"
	"strings"

	"rwm/internal/core"
	"rwm/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxVisible = 10

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("205")).Bold(true)
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(4)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// Picker lists the candidates an identifier matched and lets the user pick
// one. "/" narrows the list by fuzzy matching title and author.
type Picker struct {
	identifier string
	all        []domain.Candidate
	shown      []domain.Candidate
	selected   int
	offset     int

	filter    textinput.Model
	filtering bool

	keys      *KeyMap
	chosen    *domain.Candidate
	cancelled bool
}

// NewPicker creates a picker over candidates
func NewPicker(identifier string, candidates []domain.Candidate, keys *KeyMap) Picker {
	if keys == nil {
		keys = NewKeyMap("")
	}
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 100
	ti.Width = 40

	return Picker{
		identifier: identifier,
		all:        candidates,
		shown:      candidates,
		filter:     ti,
		keys:       keys,
	}
}

// Chosen returns the picked candidate, if any
func (p Picker) Chosen() (domain.Candidate, bool) {
	if p.chosen == nil {
		return domain.Candidate{}, false
	}
	return *p.chosen, true
}

// Cancelled reports whether the user backed out without picking
func (p Picker) Cancelled() bool {
	return p.cancelled
}

// Selected returns the highlighted index within the shown list
func (p Picker) Selected() int {
	return p.selected
}

// Shown returns the candidates left after filtering
func (p Picker) Shown() []domain.Candidate {
	return p.shown
}

// Init implements tea.Model
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	if key.Type == tea.KeyCtrlC {
		p.cancelled = true
		return p, tea.Quit
	}
	if p.filtering {
		return p.updateFilter(key)
	}

	switch {
	case p.keys.IsQuit(key), p.keys.IsCancel(key):
		p.cancelled = true
		return p, tea.Quit
	case p.keys.IsConfirm(key):
		if len(p.shown) == 0 {
			return p, nil
		}
		c := p.shown[p.selected]
		p.chosen = &c
		return p, tea.Quit
	case p.keys.IsSearch(key):
		p.filtering = true
		return p, p.filter.Focus()
	case p.keys.IsUp(key):
		p.move(p.selected - 1)
	case p.keys.IsDown(key):
		p.move(p.selected + 1)
	case p.keys.IsHome(key):
		p.move(0)
	case p.keys.IsEnd(key):
		p.move(len(p.shown) - 1)
	}
	return p, nil
}

func (p Picker) updateFilter(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		p.filtering = false
		p.filter.Blur()
		p.filter.SetValue("")
		p.applyFilter()
		return p, nil
	case tea.KeyEnter:
		p.filtering = false
		p.filter.Blur()
		return p, nil
	}

	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(key)
	p.applyFilter()
	return p, cmd
}

func (p *Picker) applyFilter() {
	query := strings.TrimSpace(p.filter.Value())
	if query == "" {
		p.shown = p.all
	} else {
		spec := domain.FilterSpec{Enabled: true, Fields: domain.FieldTitle | domain.FieldAuthor}
		p.shown = core.Filter(p.all, spec, query).Records
	}
	p.selected = 0
	p.offset = 0
}

func (p *Picker) move(to int) {
	if len(p.shown) == 0 {
		return
	}
	p.selected = max(0, min(to, len(p.shown)-1))
	if p.selected < p.offset {
		p.offset = p.selected
	}
	if p.selected >= p.offset+maxVisible {
		p.offset = p.selected - maxVisible + 1
	}
}

// View implements tea.Model
func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%q matches %d mods", p.identifier, len(p.all))) + "\n\n")

	if p.filtering || p.filter.Value() != "" {
		b.WriteString("Filter: " + p.filter.View() + "\n\n")
	}

	if len(p.shown) == 0 {
		b.WriteString(itemStyle.Render("Nothing matches the filter.") + "\n")
	}

	end := min(p.offset+maxVisible, len(p.shown))
	for i := p.offset; i < end; i++ {
		c := p.shown[i]
		cursor, style := "  ", itemStyle
		if i == p.selected {
			cursor, style = "▸ ", selectedStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s (%d)", cursor, c.Title, c.ID)) + "\n")

		if i == p.selected && c.Author != "" {
			b.WriteString(detailStyle.Render("by "+c.Author) + "\n")
		}
	}
	if len(p.shown) > maxVisible {
		b.WriteString(detailStyle.Render(fmt.Sprintf("%d-%d of %d", p.offset+1, end, len(p.shown))) + "\n")
	}

	b.WriteString(helpStyle.Render(p.keys.Help()))
	return b.String()
}
