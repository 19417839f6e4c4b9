package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/manekat/internal/master"
	"github.com/MrJamesThe3rd/manekat/internal/report"
)

type settingsAction string

const (
	actionAddCategory    settingsAction = "add-category"
	actionRemoveCategory settingsAction = "remove-category"
	actionAddMember      settingsAction = "add-member"
	actionRemoveMember   settingsAction = "remove-member"
	actionMinTransfer    settingsAction = "min-transfer"
)

func (a settingsAction) field() master.Field {
	switch a {
	case actionAddCategory, actionRemoveCategory:
		return master.FieldCategories
	case actionAddMember, actionRemoveMember:
		return master.FieldMembers
	}

	return master.FieldMinTransfer
}

func (a settingsAction) removes() bool {
	return a == actionRemoveCategory || a == actionRemoveMember
}

type settingsFields struct {
	action  settingsAction
	value   string
	removed string
}

// SettingsModel edits the master configuration. Changes made elsewhere arrive
// as MasterChangedMsg and are shown immediately.
type SettingsModel struct {
	CommonModel
	manager       *master.Manager
	reportService *report.Service

	config master.Config
	form   *huh.Form
	fields *settingsFields
	busy   bool
	status string
	err    error
}

func NewSettingsModel(mgr *master.Manager, reportSvc *report.Service, cfg master.Config) SettingsModel {
	m := SettingsModel{
		manager:       mgr,
		reportService: reportSvc,
		config:        cfg,
	}
	m.resetForm()

	return m
}

func (m *SettingsModel) resetForm() {
	f := &settingsFields{action: actionAddCategory}
	cfg := m.config

	m.fields = f
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[settingsAction]().
				Title("Change").
				Options(
					huh.NewOption("Add category", actionAddCategory),
					huh.NewOption("Remove category", actionRemoveCategory),
					huh.NewOption("Add member", actionAddMember),
					huh.NewOption("Remove member", actionRemoveMember),
					huh.NewOption("Set minimum deposit", actionMinTransfer),
				).
				Value(&f.action),
		),
		huh.NewGroup(
			huh.NewInput().
				TitleFunc(func() string {
					if f.action == actionMinTransfer {
						return "Minimum deposit (Rp)"
					}

					return "New value"
				}, &f.action).
				Validate(func(s string) error {
					if f.action != actionMinTransfer {
						return huh.ValidateNotEmpty()(s)
					}

					if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
						return errors.New("must be a whole number")
					}

					return nil
				}).
				Value(&f.value),
		).WithHideFunc(func() bool { return f.action.removes() }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Value to remove").
				OptionsFunc(func() []huh.Option[string] {
					if f.action == actionRemoveMember {
						return huh.NewOptions(cfg.Members.Values()...)
					}

					return huh.NewOptions(cfg.Categories.Values()...)
				}, &f.action).
				Value(&f.removed),
		).WithHideFunc(func() bool { return !f.action.removes() }),
	).WithWidth(45).WithShowHelp(false)
}

func (m SettingsModel) Title() string     { return "Settings" }
func (m SettingsModel) ShortHelp() string { return "Esc: back" }

func (m SettingsModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MasterChangedMsg:
		m.config = msg.Config
		return m, nil

	case settingsResultMsg:
		m.busy = false
		m.err = msg.err
		m.status = ""

		if msg.err == nil {
			m.config = msg.config
			m.status = "Saved"
		}

		m.resetForm()

		return m, m.form.Init()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.busy = true

	return m, m.applyCmd()
}

func (m SettingsModel) View() string {
	cfg := m.config

	current := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Current configuration"),
		"",
		"Categories:       "+strings.Join(cfg.Categories.Values(), ", "),
		"Members:          "+strings.Join(cfg.Members.Values(), ", "),
		"Minimum deposit:  "+m.reportService.Money(cfg.MinTransfer),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, boxed(current), "", m.form.View())

	switch {
	case m.err != nil:
		content += "\n\n" + errorStyle(fmt.Sprintf("Error: %v", m.err))
	case m.status != "":
		content += "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type settingsResultMsg struct {
	config master.Config
	err    error
}

func (m SettingsModel) applyCmd() tea.Cmd {
	f := *m.fields

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var err error

		switch {
		case f.action == actionMinTransfer:
			var v int64
			if v, err = strconv.ParseInt(strings.TrimSpace(f.value), 10, 64); err == nil {
				err = m.manager.SetScalar(ctx, master.FieldMinTransfer, v)
			}
		case f.action.removes():
			err = m.manager.RemoveFromSet(ctx, f.action.field(), f.removed)
		default:
			err = m.manager.AddToSet(ctx, f.action.field(), f.value)
		}

		if err != nil {
			return settingsResultMsg{err: err}
		}

		cfg, err := m.manager.Current(ctx)

		return settingsResultMsg{config: cfg, err: err}
	}
}
