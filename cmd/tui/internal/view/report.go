package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/master"
	"github.com/MrJamesThe3rd/manekat/internal/report"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

type reportState int

const (
	reportStateTimeframe reportState = iota
	reportStateBrowse
	reportStatePath
	reportStateExporting
	reportStateResult
)

var reportTypes = []transaction.Type{"", transaction.TypeDeposit, transaction.TypeExpense}

type ReportModel struct {
	CommonModel
	reportService *report.Service

	state           reportState
	timeframePicker TimeframePicker

	snapshot ledger.Snapshot
	members  []string
	filter   ledger.Filter
	current  *report.Report

	memberIdx int
	typeIdx   int
	showShare bool

	table   table.Model
	form    *huh.Form
	path    *string
	spinner spinner.Model
	summary string
	err     error
}

func NewReportModel(svc *report.Service, snap ledger.Snapshot, cfg master.Config) ReportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ReportModel{
		reportService:   svc,
		state:           reportStateTimeframe,
		timeframePicker: NewTimeframePicker(TimeframeThisWeek),
		snapshot:        snap,
		members:         append([]string{""}, cfg.Members.Values()...),
		path:            new("./exports"),
		spinner:         s,
		table: newTable([]table.Column{
			{Title: "Tanggal", Width: 12},
			{Title: "Nama", Width: 12},
			{Title: "Kategori", Width: 14},
			{Title: "Keterangan", Width: 30},
			{Title: "Nominal", Width: 16},
		}, 12),
	}
}

func (m ReportModel) Title() string { return "Report" }

func (m ReportModel) ShortHelp() string {
	switch m.state {
	case reportStateBrowse:
		return "m: member | t: type | s: share text | d: download | Esc: timeframe"
	case reportStateExporting:
		return "Exporting..."
	case reportStateResult:
		return "Esc: back to report"
	}

	return "Esc: back | Enter: confirm"
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.filter.StartDate, m.filter.EndDate = nil, nil
		if !msg.All {
			m.filter.StartDate = new(msg.Start)
			m.filter.EndDate = new(msg.End)
		}

		m.state = reportStateBrowse
		m.rebuild()

		return m, nil

	case LedgerChangedMsg:
		m.snapshot = msg.Snapshot
		if m.state == reportStateBrowse {
			m.rebuild()
		}

		return m, nil

	case MasterChangedMsg:
		m.members = append([]string{""}, msg.Config.Members.Values()...)
		if m.memberIdx >= len(m.members) {
			m.memberIdx = 0
		}

		return m, nil
	}

	switch m.state {
	case reportStateTimeframe:
		return m.updateTimeframe(msg)
	case reportStateBrowse:
		return m.updateBrowse(msg)
	case reportStatePath:
		return m.updatePath(msg)
	case reportStateExporting:
		return m.updateExporting(msg)
	case reportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			m.state = reportStateBrowse
		}
	}

	return m, nil
}

func (m ReportModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m ReportModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = reportStateTimeframe
			m.timeframePicker.Reset()

			return m, nil
		case "m":
			m.memberIdx = (m.memberIdx + 1) % len(m.members)
			m.rebuild()

			return m, nil
		case "t":
			m.typeIdx = (m.typeIdx + 1) % len(reportTypes)
			m.rebuild()

			return m, nil
		case "s":
			m.showShare = !m.showShare
			return m, nil
		case "d":
			m.form = buildPathForm(m.path)
			m.state = reportStatePath

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ReportModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = reportStateBrowse
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = reportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(m.current, *m.path))
}

func (m ReportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = reportStateResult
		m.err = result.err
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m *ReportModel) rebuild() {
	m.filter.Member = m.members[m.memberIdx]
	m.filter.Type = reportTypes[m.typeIdx]
	m.current = m.reportService.FromSnapshot(m.snapshot, m.filter)

	rows := make([]table.Row, 0, len(m.current.Records))
	for _, tx := range m.current.Records {
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			tx.Member,
			tx.Category,
			tx.Description,
			m.reportService.Signed(tx),
		})
	}

	m.table.SetRows(rows)
}

func buildPathForm(path *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ReportModel) View() string {
	switch m.state {
	case reportStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())
	case reportStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case reportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Writing report and proof images...", m.spinner.View()),
		)
	case reportStateResult:
		return m.viewResult()
	}

	return m.viewBrowse()
}

func (m ReportModel) viewBrowse() string {
	member := m.filter.Member
	if member == "" {
		member = "Semua"
	}

	kind := "Semua"
	if m.filter.Type != "" {
		kind = report.TypeLabel(m.filter.Type)
	}

	header := fmt.Sprintf("Filter: [m] Member: %s | [t] Type: %s", activeStyle(member), activeStyle(kind))

	stats := m.current.Stats
	totals := fmt.Sprintf("Simpanan: %s  |  Pengeluaran: %s  |  Saldo: %s",
		m.reportService.Money(stats.Deposits),
		m.reportService.Money(stats.Expenses),
		lipgloss.NewStyle().Bold(true).Render(m.reportService.Money(stats.Balance)),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
		totals,
		lipgloss.NewStyle().Faint(true).Render(m.reportService.PrintFooter(m.current)),
	)

	if m.showShare {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.reportService.ShareText(m.current) + "\n\n" + m.reportService.ShareURL(m.current))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ReportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", m.summary),
	)
}

type exportResultMsg struct {
	body string
	err  error
}

const exportTimeout = 2 * time.Minute

func (m ReportModel) runExportCmd(r *report.Report, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportResultMsg{err: fmt.Errorf("creating output directory: %w", err)}
		}

		path := filepath.Join(dir, fmt.Sprintf("laporan_%s.zip", r.GeneratedAt.Format("20060102_150405")))

		if err := writeArchive(ctx, m.reportService, r, path); err != nil {
			return exportResultMsg{err: err}
		}

		body := fmt.Sprintf("%d record(s) written to %s", len(r.Records), path)

		return exportResultMsg{body: body}
	}
}

func writeArchive(ctx context.Context, svc *report.Service, r *report.Report, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}

		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return svc.WriteArchive(ctx, f, r)
}
