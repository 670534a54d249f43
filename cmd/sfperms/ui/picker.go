package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"sfperms/internal/generate"
	"sfperms/internal/metadata"
)

// ErrCancelled is returned when the user leaves the picker without choosing.
var ErrCancelled = errors.New("selection cancelled")

// Choice is what the picker resolved to.
type Choice struct {
	Mode   generate.Mode
	Entity string
}

// choiceItem adapts a Choice to list.Item.
type choiceItem struct {
	choice Choice
	title  string
	desc   string
}

func (i choiceItem) Title() string       { return i.title }
func (i choiceItem) Description() string { return i.desc }
func (i choiceItem) FilterValue() string { return i.title }

// PickerModel lets the user choose one entity, every entity, or every
// entity as one summary report.
type PickerModel struct {
	list      list.Model
	styles    Styles
	choice    *Choice
	cancelled bool
}

// NewPickerModel builds the picker for the given manifest entities.
func NewPickerModel(kind metadata.Kind, entities []string) PickerModel {
	items := make([]list.Item, 0, len(entities)+2)
	for _, name := range entities {
		items = append(items, choiceItem{
			choice: Choice{Mode: generate.ModeSingle, Entity: name},
			title:  name,
			desc:   fmt.Sprintf("%s report in its own directory", kind),
		})
	}
	items = append(items,
		choiceItem{
			choice: Choice{Mode: generate.ModeEach},
			title:  "All entities",
			desc:   fmt.Sprintf("one report per %s (%d)", kind, len(entities)),
		},
		choiceItem{
			choice: Choice{Mode: generate.ModeSummary},
			title:  "All as one summary",
			desc:   "a single matrix with one column per entity",
		},
	)

	styles := DefaultStyles()
	l := list.New(items, list.NewDefaultDelegate(), 60, 20)
	l.Title = fmt.Sprintf("Generate %s permission report", kind)
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = styles.Title

	return PickerModel{list: l, styles: styles}
}

// Init initializes the model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// keys belong to the filter input while filtering
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(choiceItem); ok {
				c := item.choice
				m.choice = &c
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the picker.
func (m PickerModel) View() string {
	if m.choice != nil || m.cancelled {
		return ""
	}
	return m.list.View()
}

// Choice returns the selection, or false when none was made.
func (m PickerModel) Choice() (Choice, bool) {
	if m.choice == nil {
		return Choice{}, false
	}
	return *m.choice, true
}

// RunPicker runs the picker program on the given terminal streams.
func RunPicker(kind metadata.Kind, entities []string, in io.Reader, out io.Writer) (Choice, error) {
	p := tea.NewProgram(NewPickerModel(kind, entities), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return Choice{}, fmt.Errorf("run picker: %w", err)
	}
	m, ok := final.(PickerModel)
	if !ok {
		return Choice{}, ErrCancelled
	}
	c, ok := m.Choice()
	if !ok {
		return Choice{}, ErrCancelled
	}
	return c, nil
}
