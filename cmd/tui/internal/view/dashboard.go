package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/report"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

// DashboardModel shows the running balance and the latest records. It is
// redrawn on every LedgerChangedMsg.
type DashboardModel struct {
	CommonModel
	reportService *report.Service

	snapshot ledger.Snapshot
	loaded   bool
	table    table.Model
}

func NewDashboardModel(reportSvc *report.Service, snap ledger.Snapshot, loaded bool) DashboardModel {
	m := DashboardModel{
		reportService: reportSvc,
		table: newTable([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Member", Width: 12},
			{Title: "Category", Width: 14},
			{Title: "Description", Width: 30},
			{Title: "Amount", Width: 16},
			{Title: "Status", Width: 8},
		}, ledger.RecentLimit+1),
	}

	if loaded {
		m.setSnapshot(snap)
	}

	return m
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back" }

func (m DashboardModel) Init() tea.Cmd {
	return nil
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LedgerChangedMsg:
		m.setSnapshot(msg.Snapshot)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *DashboardModel) setSnapshot(snap ledger.Snapshot) {
	m.snapshot = snap
	m.loaded = true
	m.table.SetRows(recordRows(m.reportService, snap.Recent()))
}

func recordRows(svc *report.Service, records []*transaction.Transaction) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, tx := range records {
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			tx.Member,
			tx.Category,
			tx.Description,
			svc.Signed(tx),
			tx.Status.Label(),
		})
	}

	return rows
}

func (m DashboardModel) View() string {
	if !m.loaded {
		return lipgloss.NewStyle().Padding(2).Render("Loading ledger...")
	}

	stats := m.snapshot.Stats

	balance := lipgloss.NewStyle().Bold(true).Render("Saldo: " + m.reportService.Money(stats.Balance))
	totals := fmt.Sprintf("Simpanan: %s  |  Pengeluaran: %s",
		m.reportService.Money(stats.Deposits),
		m.reportService.Money(stats.Expenses),
	)

	badge := "No submissions awaiting review"
	if m.snapshot.Pending > 0 {
		badge = activeStyle(fmt.Sprintf("%d submission(s) awaiting review", m.snapshot.Pending))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		balance,
		totals,
		badge,
		"",
		"Recent history:",
		boxed(m.table.View()),
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}
