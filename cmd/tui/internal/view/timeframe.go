package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TimeframeSelectedMsg is emitted when the user has selected a valid date range.
// Start and End are zero values when All is true.
type TimeframeSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
}

type timeframeState int

const (
	timeframeStateSelect timeframeState = iota
	timeframeStateCustom
)

// TimeframePicker is a reusable component for selecting a date range.
type TimeframePicker struct {
	state    timeframeState
	selected Timeframe
	minFrame Timeframe
	now      func() time.Time

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	err error
}

// NewTimeframePicker creates a picker starting from the given minimum timeframe.
func NewTimeframePicker(minFrame Timeframe) TimeframePicker {
	return TimeframePicker{
		state:      timeframeStateSelect,
		selected:   minFrame,
		minFrame:   minFrame,
		now:        time.Now,
		startInput: dateInput("Start Date: "),
		endInput:   dateInput("End Date:   "),
	}
}

func dateInput(prompt string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "YYYY-MM-DD"
	ti.CharLimit = 10
	ti.Width = 12
	ti.Prompt = prompt

	return ti
}

func (m TimeframePicker) Init() tea.Cmd {
	return nil
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case timeframeStateSelect:
			return m.updateSelect(msg)
		case timeframeStateCustom:
			if next, cmd, handled := m.updateCustom(msg); handled {
				return next, cmd
			}
		}
	}

	if m.state == timeframeStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m TimeframePicker) updateSelect(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > m.minFrame {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < TimeframeCustom {
			m.selected++
		}
	case tea.KeyEnter:
		switch m.selected {
		case TimeframeCustom:
			m.state = timeframeStateCustom
			m.focusIndex = 0
			m.startInput.Focus()

			return m, textinput.Blink
		case TimeframeAll:
			return m, func() tea.Msg {
				return TimeframeSelectedMsg{All: true}
			}
		}

		start, end := TimeframeToDateRange(m.selected, m.now())

		return m, func() tea.Msg {
			return TimeframeSelectedMsg{Start: start, End: end}
		}
	}

	return m, nil
}

func (m TimeframePicker) updateCustom(msg tea.KeyMsg) (TimeframePicker, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
		} else {
			m.endInput.Focus()
		}

		return m, textinput.Blink, true

	case "enter":
		start, err := time.Parse(time.DateOnly, m.startInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid start date (YYYY-MM-DD)")
			return m, nil, true
		}

		end, err := time.Parse(time.DateOnly, m.endInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid end date (YYYY-MM-DD)")
			return m, nil, true
		}

		m.err = nil
		start, end = NormalizeDateRange(start, end)

		return m, func() tea.Msg {
			return TimeframeSelectedMsg{Start: start, End: end}
		}, true

	case "esc":
		m.state = timeframeStateSelect
		m.err = nil

		return m, nil, true
	}

	return m, nil, false
}

func (m TimeframePicker) updateInputs(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	var c1, c2 tea.Cmd

	m.startInput, c1 = m.startInput.Update(msg)
	m.endInput, c2 = m.endInput.Update(msg)

	return m, tea.Batch(c1, c2)
}

func (m TimeframePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = "\n\n" + errorStyle(fmt.Sprintf("Error: %v", m.err))
	}

	if m.state == timeframeStateCustom {
		return fmt.Sprintf(
			"Enter Custom Range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	s := "Select Timeframe:\n\n"
	for i := m.minFrame; i <= TimeframeCustom; i++ {
		cursor := " "
		if m.selected == i {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, i)
	}

	s += "\n(Enter to select, Esc to back)"

	return s + errStr
}

// IsSelecting returns true if the picker is in the selection state (not custom input).
func (m TimeframePicker) IsSelecting() bool {
	return m.state == timeframeStateSelect
}

// Reset returns the picker to its initial selection state.
func (m *TimeframePicker) Reset() {
	m.state = timeframeStateSelect
	m.selected = m.minFrame
	m.err = nil
	m.startInput.SetValue("")
	m.endInput.SetValue("")
}
