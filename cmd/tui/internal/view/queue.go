package view

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/report"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

// QueueModel lists pending submissions oldest first for an administrator to
// approve or reject.
type QueueModel struct {
	CommonModel
	txService     *transaction.Service
	reportService *report.Service
	principal     auth.Principal

	table   table.Model
	pending []*transaction.Transaction
	loaded  bool
	busy    bool
	status  string
}

func NewQueueModel(
	txSvc *transaction.Service, reportSvc *report.Service, principal auth.Principal, snap ledger.Snapshot, loaded bool,
) QueueModel {
	m := QueueModel{
		txService:     txSvc,
		reportService: reportSvc,
		principal:     principal,
		table: newTable([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Member", Width: 12},
			{Title: "Category", Width: 14},
			{Title: "Description", Width: 30},
			{Title: "Amount", Width: 16},
		}, 15),
	}

	if loaded {
		m.setPending(snap.Queue())
	}

	return m
}

func (m QueueModel) Title() string { return "Review Queue" }
func (m QueueModel) ShortHelp() string {
	return "a: approve | x: reject | Esc: back"
}

func (m QueueModel) Init() tea.Cmd {
	return nil
}

func (m QueueModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LedgerChangedMsg:
		m.setPending(msg.Snapshot.Queue())
		return m, nil

	case decisionMsg:
		m.busy = false

		switch {
		case errors.Is(msg.err, transaction.ErrInvalidTransition):
			m.status = "Already decided by someone else"
		case msg.err != nil:
			m.status = fmt.Sprintf("Error: %v", msg.err)
		default:
			m.status = fmt.Sprintf("%s: %s", msg.tx.Status.Label(), msg.tx.Description)
			m.drop(msg.tx.ID)
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.decide(transaction.StatusApproved)
		case "x":
			return m.decide(transaction.StatusRejected)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m QueueModel) decide(to transaction.Status) (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if m.busy || idx < 0 || idx >= len(m.pending) {
		return m, nil
	}

	m.busy = true
	id := m.pending[idx].ID
	actor := m.principal.Subject

	return m, func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			tx  *transaction.Transaction
			err error
		)

		if to == transaction.StatusApproved {
			tx, err = m.txService.Approve(ctx, id, actor)
		} else {
			tx, err = m.txService.Reject(ctx, id, actor)
		}

		return decisionMsg{tx: tx, err: err}
	}
}

// drop removes a decided record locally so the cursor moves on before the
// feed delivers the next snapshot.
func (m *QueueModel) drop(id uuid.UUID) {
	kept := m.pending[:0:0]
	for _, tx := range m.pending {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}

	m.setPending(kept)
}

func (m *QueueModel) setPending(pending []*transaction.Transaction) {
	m.pending = pending
	m.loaded = true

	rows := make([]table.Row, 0, len(pending))
	for _, tx := range pending {
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

func (m QueueModel) View() string {
	if !m.loaded {
		return lipgloss.NewStyle().Padding(2).Render("Loading queue...")
	}

	header := fmt.Sprintf("Pending: %s", activeStyle(fmt.Sprint(len(m.pending))))

	body := boxed(m.table.View())
	if len(m.pending) == 0 {
		body = "Nothing to review."
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		body,
	)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type decisionMsg struct {
	tx  *transaction.Transaction
	err error
}
