package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/manekat/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/config"
	"github.com/MrJamesThe3rd/manekat/internal/database"
	"github.com/MrJamesThe3rd/manekat/internal/feed"
	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/master"
	masterStore "github.com/MrJamesThe3rd/manekat/internal/master/store"
	"github.com/MrJamesThe3rd/manekat/internal/report"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
	txStore "github.com/MrJamesThe3rd/manekat/internal/transaction/store"
)

type model struct {
	appName       string
	authService   *auth.Service
	txService     *transaction.Service
	reportService *report.Service
	masterManager *master.Manager

	snapshots *feed.Mirror[ledger.Snapshot]
	configs   *feed.Mirror[master.Config]
	ledgerCh  <-chan struct{}
	masterCh  <-chan struct{}
	unsub     []func()

	session *auth.Session

	currentView View
	active      view.View
	loginView   view.LoginModel
}

type View int

const (
	ViewLogin     View = 0
	ViewMenu      View = 1
	ViewDashboard View = 2
	ViewSubmit    View = 3
	ViewReport    View = 4
	ViewQueue     View = 5
	ViewSettings  View = 6
)

type ledgerTickMsg struct{}

type masterTickMsg struct{}

func waitFor(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return msg
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.loginView.Init(),
		waitFor(m.ledgerCh, ledgerTickMsg{}),
		waitFor(m.masterCh, masterTickMsg{}),
	)
}

func (m model) can(c auth.Capability) bool {
	return m.session != nil && m.session.Principal.Role.Can(c)
}

func (m model) snapshot() (ledger.Snapshot, bool) {
	return m.snapshots.Current()
}

func (m model) config() master.Config {
	if cfg, ok := m.configs.Current(); ok {
		return cfg
	}

	ctx, cancel := view.DbCtx()
	defer cancel()

	cfg, err := m.configs.Get(ctx)
	if err != nil {
		slog.Error("failed to load master configuration", "error", err)
	}

	return cfg
}

func (m model) open(v View) (tea.Model, tea.Cmd) {
	snap, loaded := m.snapshot()

	switch v {
	case ViewDashboard:
		m.active = view.NewDashboardModel(m.reportService, snap, loaded)
	case ViewSubmit:
		m.active = view.NewSubmitModel(m.txService, m.session.Principal, m.config())
	case ViewReport:
		m.active = view.NewReportModel(m.reportService, snap, m.config())
	case ViewQueue:
		m.active = view.NewQueueModel(m.txService, m.reportService, m.session.Principal, snap, loaded)
	case ViewSettings:
		m.active = view.NewSettingsModel(m.masterManager, m.reportService, m.config())
	default:
		return m, nil
	}

	m.currentView = v

	return m, m.active.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "l":
				m.session = nil
				m.currentView = ViewLogin
				m.loginView = view.NewLoginModel(m.authService, m.appName)

				return m, m.loginView.Init()
			case "1":
				return m.open(ViewDashboard)
			case "2":
				return m.open(ViewSubmit)
			case "3":
				return m.open(ViewReport)
			case "4":
				if m.can(auth.CanDecide) {
					return m.open(ViewQueue)
				}
			case "5":
				if m.can(auth.CanManageMaster) {
					return m.open(ViewSettings)
				}
			}

			return m, nil
		}

	case view.SessionStartedMsg:
		m.session = &msg.Session
		m.currentView = ViewMenu
		slog.Info("session started", "subject", msg.Session.Principal.Subject, "role", msg.Session.Principal.Role)

		return m, nil

	case view.BackMsg:
		m.currentView = ViewMenu
		m.active = nil

		return m, nil

	case ledgerTickMsg:
		next := waitFor(m.ledgerCh, ledgerTickMsg{})

		snap, ok := m.snapshot()
		if !ok || m.active == nil {
			return m, next
		}

		return m.forward(view.LedgerChangedMsg{Snapshot: snap}, next)

	case masterTickMsg:
		next := waitFor(m.masterCh, masterTickMsg{})

		cfg, ok := m.configs.Current()
		if !ok || m.active == nil {
			return m, next
		}

		return m.forward(view.MasterChangedMsg{Config: cfg}, next)
	}

	switch m.currentView {
	case ViewLogin:
		newModel, cmd := m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)

		return m, cmd
	case ViewMenu:
		return m, nil
	}

	return m.forward(msg, nil)
}

func (m model) forward(msg tea.Msg, extra tea.Cmd) (tea.Model, tea.Cmd) {
	if m.active == nil {
		return m, extra
	}

	newModel, cmd := m.active.Update(msg)
	m.active = newModel.(view.View)

	return m, tea.Batch(cmd, extra)
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return m.menu()
	}

	if m.active == nil {
		return "Unknown View"
	}

	title := lipgloss.NewStyle().Bold(true).PaddingLeft(1).Render(m.active.Title())
	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(m.active.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, m.active.View(), help)
}

// close releases the mirror subscriptions held by the console.
func (m model) close() {
	for _, unsubscribe := range m.unsub {
		unsubscribe()
	}
}

func (m model) menu() string {
	p := m.session.Principal

	s := fmt.Sprintf("%s\nSigned in as %s (%s)\n\n", m.appName, p.Subject, p.Role)
	s += "1. Dashboard\n" +
		"2. New Submission\n" +
		"3. Report\n"

	if m.can(auth.CanDecide) {
		badge := ""
		if snap, ok := m.snapshot(); ok && snap.Pending > 0 {
			badge = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(fmt.Sprintf(" (%d)", snap.Pending))
		}

		s += "4. Review Queue" + badge + "\n"
	}

	if m.can(auth.CanManageMaster) {
		s += "5. Settings\n"
	}

	s += "\nl. Sign out\nq. Quit"

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile(cfg.Log.File, "manekat")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := initialModel(ctx, cfg)
	if err != nil {
		slog.Error("failed to start console", "error", err)
		os.Exit(1)
	}
	defer m.close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

// initialModel wires the services and starts the change feed that keeps the
// console live while other clients submit and decide.
func initialModel(ctx context.Context, cfg *config.Config) (model, error) {
	if err := database.Migrate(cfg.ConnectionString()); err != nil {
		return model{}, fmt.Errorf("migrating database: %w", err)
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return model{}, fmt.Errorf("connecting to database: %w", err)
	}

	retry := database.RetryPolicy{
		Timeout:    cfg.Store.WriteTimeout,
		MaxRetries: cfg.Store.MaxRetries,
	}

	defaults := master.Config{
		Categories:  master.NewSet(cfg.Master.Categories...),
		Members:     master.NewSet(cfg.Master.Members...),
		MinTransfer: cfg.Master.MinTransfer,
	}

	var (
		masterManager = master.NewManager(masterStore.New(db), defaults, master.WithRetry(retry))
		txService     = transaction.NewService(txStore.New(db), masterManager, transaction.WithRetry(retry))
		reportService = report.NewService(txService, cfg.App.Name, language.Make(cfg.App.Locale))
		issuer        = auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		authService   = auth.NewService(auth.NewLocalPolicy(cfg.Auth.AdminUsername, cfg.Auth.AdminPasswordHash), issuer)
	)

	if err := masterManager.Bootstrap(ctx); err != nil {
		return model{}, fmt.Errorf("bootstrapping master configuration: %w", err)
	}

	hub := feed.NewHub()

	var (
		listener  = feed.NewListener(cfg.ConnectionString(), database.ChangeChannel, hub)
		snapshots = feed.NewMirror(hub, feed.TopicTransactions, func(ctx context.Context) (ledger.Snapshot, error) {
			records, err := txService.All(ctx)
			if err != nil {
				return ledger.Snapshot{}, err
			}

			return ledger.Build(records), nil
		})
		configs = feed.NewMirror(hub, feed.TopicMaster, masterManager.Current)
	)

	ledgerCh, unsubLedger := snapshots.Subscribe()
	masterCh, unsubMaster := configs.Subscribe()

	go func() {
		if err := listener.Run(ctx); err != nil {
			slog.Error("change feed stopped", "error", err)
		}
	}()

	go func() { _ = snapshots.Run(ctx) }()
	go func() { _ = configs.Run(ctx) }()

	return model{
		appName:       cfg.App.Name,
		authService:   authService,
		txService:     txService,
		reportService: reportService,
		masterManager: masterManager,
		snapshots:     snapshots,
		configs:       configs,
		ledgerCh:      ledgerCh,
		masterCh:      masterCh,
		unsub:         []func(){unsubLedger, unsubMaster},
		currentView:   ViewLogin,
		loginView:     view.NewLoginModel(authService, cfg.App.Name),
	}, nil
}
