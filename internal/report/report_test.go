package report_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/proof"
	"github.com/MrJamesThe3rd/manekat/internal/report"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

var png = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeSource struct {
	records []*transaction.Transaction
	err     error
}

func (f *fakeSource) All(context.Context) ([]*transaction.Transaction, error) {
	return f.records, f.err
}

func (f *fakeSource) GetProof(context.Context, uuid.UUID) (proof.Image, error) {
	return proof.Image{MIME: "image/png", Extension: ".png", Data: png}, nil
}

func records() []*transaction.Transaction {
	return []*transaction.Transaction{
		{
			ID: uuid.New(), Type: transaction.TypeDeposit, Amount: 50000, Member: "A", Category: "Food",
			Description: "Setoran bulanan", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Status: transaction.StatusApproved,
		},
		{
			ID: uuid.New(), Type: transaction.TypeExpense, Amount: 20000, Member: "B", Category: "Food",
			Description: "Belanja pasar", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Status: transaction.StatusApproved,
		},
		{
			ID: uuid.New(), Type: transaction.TypeExpense, Amount: 999, Member: "A", Category: "Food",
			Description: "Masih diproses", Date: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
			Status: transaction.StatusPending,
		},
	}
}

func newService(src report.Source) *report.Service {
	return report.NewService(src, "E-Manekat", language.English)
}

func TestService_Build(t *testing.T) {
	svc := newService(&fakeSource{records: records()})

	r, err := svc.Build(context.Background(), ledger.Filter{})
	require.NoError(t, err)

	require.Len(t, r.Records, 2)
	assert.Equal(t, "B", r.Records[0].Member)
	assert.Equal(t, ledger.Stats{Deposits: 50000, Expenses: 20000, Balance: 30000}, r.Stats)

	_, err = newService(&fakeSource{err: errors.New("db down")}).Build(context.Background(), ledger.Filter{})
	assert.Error(t, err)
}

func TestService_ShareText(t *testing.T) {
	svc := newService(&fakeSource{records: records()})
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	r, err := svc.Build(context.Background(), ledger.Filter{Member: "A", StartDate: &start})
	require.NoError(t, err)

	text := svc.ShareText(r)

	assert.True(t, strings.HasPrefix(text, "*LAPORAN KAS E-MANEKAT*\n"))
	assert.Contains(t, text, "Filter: A (2024-03-01 s/d Sekarang)")
	assert.Contains(t, text, "*Total Saldo Filter:* Rp 50,000")

	u, err := url.Parse(svc.ShareURL(r))
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, text, u.Query().Get("text"))
}

func TestService_WriteCSV(t *testing.T) {
	svc := newService(&fakeSource{records: records()})

	r, err := svc.Build(context.Background(), ledger.Filter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(&buf, r))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 5)
	assert.Equal(t, "Nominal", rows[0][5])
	assert.Equal(t, "-20000", rows[1][5])
	assert.Equal(t, "50000", rows[2][5])
	assert.Equal(t, []string{"", "", "", "", "Total Filter", "30000"}, rows[3])
	assert.True(t, strings.HasPrefix(rows[4][0], "Dicetak pada: "))
}

func TestService_WriteArchive(t *testing.T) {
	svc := newService(&fakeSource{records: records()})

	r, err := svc.Build(context.Background(), ledger.Filter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteArchive(context.Background(), &buf, r))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	require.Len(t, names, 4)
	assert.Equal(t, "report.csv", names[0])
	assert.Equal(t, "share.txt", names[1])
	assert.True(t, strings.HasPrefix(names[2], "proofs/20240302_B_"))
	assert.True(t, strings.HasSuffix(names[3], ".png"))
}
