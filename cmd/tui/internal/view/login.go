package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
)

// loginFields lives on the heap so the form bindings survive model copies.
type loginFields struct {
	role     auth.Role
	username string
	password string
}

type LoginModel struct {
	CommonModel
	authService *auth.Service
	appName     string

	form   *huh.Form
	fields *loginFields
	busy   bool
	err    error
}

func NewLoginModel(authSvc *auth.Service, appName string) LoginModel {
	fields := &loginFields{role: auth.RoleFamily}

	return LoginModel{
		authService: authSvc,
		appName:     appName,
		fields:      fields,
		form:        buildLoginForm(fields),
	}
}

func buildLoginForm(f *loginFields) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[auth.Role]().
				Title("Sign in as").
				Options(
					huh.NewOption("Family member", auth.RoleFamily),
					huh.NewOption("Administrator", auth.RoleAdmin),
				).
				Value(&f.role),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Validate(huh.ValidateNotEmpty()).
				Value(&f.username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(huh.ValidateNotEmpty()).
				Value(&f.password),
		).WithHideFunc(func() bool { return f.role != auth.RoleAdmin }),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) Title() string     { return "Sign In" }
func (m LoginModel) ShortHelp() string { return "Enter: continue | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		if res.err != nil {
			m.busy = false
			m.err = res.err
			m.fields.password = ""
			m.form = buildLoginForm(m.fields)

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return SessionStartedMsg{Session: res.session} }
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

	return m, m.startCmd()
}

func (m LoginModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render(m.appName)

	content := header + "\n\n" + m.form.View()
	if m.err != nil {
		content += "\n\n" + errorStyle(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

type loginResultMsg struct {
	session auth.Session
	err     error
}

func (m LoginModel) startCmd() tea.Cmd {
	var username, password string
	if m.fields.role == auth.RoleAdmin {
		username, password = m.fields.username, m.fields.password
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		session, err := m.authService.Start(ctx, username, password)

		return loginResultMsg{session: session, err: err}
	}
}
