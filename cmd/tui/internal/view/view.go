package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/master"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// LedgerChangedMsg carries a replaced ledger snapshot to the active view.
type LedgerChangedMsg struct {
	Snapshot ledger.Snapshot
}

// MasterChangedMsg carries a replaced master configuration to the active view.
type MasterChangedMsg struct {
	Config master.Config
}

// SessionStartedMsg is emitted once the login form has produced a session.
type SessionStartedMsg struct {
	Session auth.Session
}
