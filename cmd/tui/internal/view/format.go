package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

const dbTimeout = 10 * time.Second

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// ErrorText turns a service error into the line shown under a form.
func ErrorText(err error) string {
	var verr *transaction.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("%s %s", verr.Field, verr.Reason)
	}

	return err.Error()
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func statusStyle(s transaction.Status) string {
	color := lipgloss.Color("214")

	switch s {
	case transaction.StatusApproved:
		color = lipgloss.Color("46")
	case transaction.StatusRejected:
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().Foreground(color).Render(s.Label())
}

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func boxed(s string) string {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(s)
}
