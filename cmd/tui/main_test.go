package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/manekat/internal/feed"
	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/master"
)

func signalled(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestModelCloseReleasesSubscriptions(t *testing.T) {
	ctx := context.Background()
	hub := feed.NewHub()

	snapshots := feed.NewMirror(hub, feed.TopicTransactions, func(context.Context) (ledger.Snapshot, error) {
		return ledger.Build(nil), nil
	})
	configs := feed.NewMirror(hub, feed.TopicMaster, func(context.Context) (master.Config, error) {
		return master.Config{Members: master.NewSet("A")}, nil
	})

	ledgerCh, unsubLedger := snapshots.Subscribe()
	masterCh, unsubMaster := configs.Subscribe()

	m := model{
		snapshots: snapshots,
		configs:   configs,
		ledgerCh:  ledgerCh,
		masterCh:  masterCh,
		unsub:     []func(){unsubLedger, unsubMaster},
	}

	snapshots.Refresh(ctx)
	configs.Refresh(ctx)
	assert.True(t, signalled(ledgerCh))
	assert.True(t, signalled(masterCh))

	m.close()
	m.close()

	snapshots.Refresh(ctx)
	configs.Refresh(ctx)
	assert.False(t, signalled(ledgerCh))
	assert.False(t, signalled(masterCh))
}
