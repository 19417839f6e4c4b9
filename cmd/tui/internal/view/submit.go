package view

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/master"
	"github.com/MrJamesThe3rd/manekat/internal/proof"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

type submitFields struct {
	txType      transaction.Type
	member      string
	category    string
	amount      string
	description string
	date        string
	proofPath   string
}

type submitState int

const (
	submitStateForm submitState = iota
	submitStateSaving
	submitStateDone
)

type SubmitModel struct {
	CommonModel
	txService *transaction.Service
	principal auth.Principal
	config    master.Config

	state  submitState
	form   *huh.Form
	fields *submitFields
	saved  *transaction.Transaction
	err    error
}

// NewSubmitModel preselects the first member and category and today's date.
func NewSubmitModel(txSvc *transaction.Service, principal auth.Principal, cfg master.Config) SubmitModel {
	fields := &submitFields{
		txType:   transaction.TypeExpense,
		member:   cfg.Members.First(),
		category: cfg.Categories.First(),
		date:     FormatDate(time.Now()),
	}

	return SubmitModel{
		txService: txSvc,
		principal: principal,
		config:    cfg,
		fields:    fields,
		form:      buildSubmitForm(fields, cfg),
	}
}

func buildSubmitForm(f *submitFields, cfg master.Config) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[transaction.Type]().
				Title("Type").
				Options(
					huh.NewOption("Pengeluaran (expense)", transaction.TypeExpense),
					huh.NewOption("Simpanan (deposit)", transaction.TypeDeposit),
				).
				Value(&f.txType),
			huh.NewSelect[string]().
				Title("Member").
				Options(huh.NewOptions(cfg.Members.Values()...)...).
				Value(&f.member),
			huh.NewSelect[string]().
				Title("Category").
				Options(huh.NewOptions(cfg.Categories.Values()...)...).
				Value(&f.category),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Amount (Rp)").
				Placeholder("50000").
				Validate(func(s string) error {
					if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
						return errors.New("amount must be a number")
					}

					return nil
				}).
				Value(&f.amount),
			huh.NewInput().
				Title("Description").
				Value(&f.description),
			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}

					if _, err := time.Parse(time.DateOnly, s); err != nil {
						return errors.New("date must be YYYY-MM-DD")
					}

					return nil
				}).
				Value(&f.date),
			huh.NewInput().
				Title("Proof image").
				Description("Path to a photo of the receipt or transfer").
				Value(&f.proofPath),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m SubmitModel) Title() string { return "New Submission" }

func (m SubmitModel) ShortHelp() string {
	if m.state == submitStateDone {
		return "Enter: submit another | Esc: back"
	}

	return "Esc: back"
}

func (m SubmitModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SubmitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MasterChangedMsg:
		if m.state == submitStateForm {
			m.config = msg.Config
		}

		return m, nil

	case submitResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = submitStateForm
			m.form = buildSubmitForm(m.fields, m.config)

			return m, m.form.Init()
		}

		m.saved = msg.tx
		m.err = nil
		m.state = submitStateDone

		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyEnter:
			if m.state == submitStateDone {
				next := NewSubmitModel(m.txService, m.principal, m.config)
				return next, next.Init()
			}
		}
	}

	if m.state != submitStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = submitStateSaving

	return m, m.submitCmd()
}

func (m SubmitModel) View() string {
	var content string

	switch m.state {
	case submitStateSaving:
		content = "Saving submission..."
	case submitStateDone:
		content = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Render("Submission recorded"),
			"",
			fmt.Sprintf("%s  %s  %s", FormatDate(m.saved.Date), m.saved.Member, m.saved.Description),
			"Status: "+statusStyle(m.saved.Status),
			"",
			"An administrator will review it shortly.",
		)
	default:
		content = m.form.View()
		if m.err != nil {
			content += "\n\n" + errorStyle("Error: "+ErrorText(m.err))
		}
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type submitResultMsg struct {
	tx  *transaction.Transaction
	err error
}

func (m SubmitModel) submitCmd() tea.Cmd {
	f := *m.fields
	submitter := m.principal.Subject

	return func() tea.Msg {
		c := transaction.Candidate{
			Type:        f.txType,
			Description: f.description,
			Category:    f.category,
			Member:      f.member,
			SubmitterID: submitter,
		}

		c.Amount, _ = decimal.NewFromString(strings.TrimSpace(f.amount))

		if f.date != "" {
			c.Date, _ = time.Parse(time.DateOnly, f.date)
		}

		if path := strings.TrimSpace(f.proofPath); path != "" {
			uri, err := readProof(path)
			if err != nil {
				return submitResultMsg{err: err}
			}

			c.ProofImage = uri
		}

		ctx, cancel := DbCtx()
		defer cancel()

		tx, err := m.txService.Submit(ctx, c)

		return submitResultMsg{tx: tx, err: err}
	}
}

func readProof(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening proof image: %w", err)
	}
	defer f.Close()

	return proof.EncodeReader(f)
}
