package report

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/proof"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

const shareBaseURL = "https://wa.me/"

// Source supplies the record set and proof images a report is built from.
type Source interface {
	All(ctx context.Context) ([]*transaction.Transaction, error)
	GetProof(ctx context.Context, id uuid.UUID) (proof.Image, error)
}

// Report is a filtered, totalled view of the approved records.
type Report struct {
	Filter      ledger.Filter
	Records     []*transaction.Transaction
	Stats       ledger.Stats
	GeneratedAt time.Time
}

type Service struct {
	source  Source
	appName string
	printer *message.Printer
	now     func() time.Time
}

func NewService(source Source, appName string, lang language.Tag) *Service {
	return &Service{
		source:  source,
		appName: appName,
		printer: message.NewPrinter(lang),
		now:     time.Now,
	}
}

func (s *Service) Build(ctx context.Context, f ledger.Filter) (*Report, error) {
	records, err := s.source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}

	return s.FromSnapshot(ledger.Build(records), f), nil
}

// FromSnapshot builds a report from records already held in memory.
func (s *Service) FromSnapshot(snap ledger.Snapshot, f ledger.Filter) *Report {
	records, stats := snap.Report(f)

	return &Report{Filter: f, Records: records, Stats: stats, GeneratedAt: s.now()}
}

// Money formats an amount for display, e.g. "Rp 50.000".
func (s *Service) Money(amount int64) string {
	return s.printer.Sprintf("Rp %d", amount)
}

// Signed formats an amount with the sign its type contributes to the balance.
func (s *Service) Signed(tx *transaction.Transaction) string {
	sign := "+"
	if tx.Type == transaction.TypeExpense {
		sign = "-"
	}

	return s.printer.Sprintf("%s %d", sign, tx.Amount)
}

func TypeLabel(t transaction.Type) string {
	switch t {
	case transaction.TypeDeposit:
		return "Simpanan"
	case transaction.TypeExpense:
		return "Pengeluaran"
	}

	return string(t)
}

// ShareText renders the message handed to the messaging deep link.
func (s *Service) ShareText(r *Report) string {
	member := r.Filter.Member
	if member == "" {
		member = "Semua"
	}

	start, end := "Awal", "Sekarang"
	if r.Filter.StartDate != nil {
		start = r.Filter.StartDate.Format(time.DateOnly)
	}

	if r.Filter.EndDate != nil {
		end = r.Filter.EndDate.Format(time.DateOnly)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "*LAPORAN KAS %s*\n", strings.ToUpper(s.appName))
	fmt.Fprintf(&sb, "Filter: %s (%s s/d %s)\n", member, start, end)

	if r.Filter.Type != "" {
		fmt.Fprintf(&sb, "Jenis: %s\n", TypeLabel(r.Filter.Type))
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Simpanan: %s\n", s.Money(r.Stats.Deposits))
	fmt.Fprintf(&sb, "Pengeluaran: %s\n", s.Money(r.Stats.Expenses))
	fmt.Fprintf(&sb, "*Total Saldo Filter:* %s\n\n", s.Money(r.Stats.Balance))
	fmt.Fprintf(&sb, "_Dibuat via Sistem %s_", s.appName)

	return sb.String()
}

func (s *Service) ShareURL(r *Report) string {
	return shareBaseURL + "?text=" + url.QueryEscape(s.ShareText(r))
}

// PrintFooter is the line stamped under a printed report.
func (s *Service) PrintFooter(r *Report) string {
	return fmt.Sprintf("Dicetak pada: %s • %s", r.GeneratedAt.Format("02/01/2006 15.04.05"), s.appName)
}

// WriteCSV writes the printable table: one row per record, then the filter
// total and the print footer. Amounts are signed plain integers.
func (s *Service) WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Tanggal", "Nama", "Kategori", "Keterangan", "Jenis", "Nominal"}); err != nil {
		return err
	}

	for _, tx := range r.Records {
		amount := tx.Amount
		if tx.Type == transaction.TypeExpense {
			amount = -amount
		}

		row := []string{
			tx.Date.Format(time.DateOnly),
			tx.Member,
			tx.Category,
			tx.Description,
			TypeLabel(tx.Type),
			strconv.FormatInt(amount, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	if err := cw.Write([]string{"", "", "", "", "Total Filter", strconv.FormatInt(r.Stats.Balance, 10)}); err != nil {
		return err
	}

	if err := cw.Write([]string{s.PrintFooter(r), "", "", "", "", ""}); err != nil {
		return err
	}

	cw.Flush()

	return cw.Error()
}

// WriteArchive streams a zip holding the CSV table, the share text and every
// record's proof image.
func (s *Service) WriteArchive(ctx context.Context, w io.Writer, r *Report) error {
	zw := zip.NewWriter(w)

	f, err := zw.Create("report.csv")
	if err != nil {
		return err
	}

	if err := s.WriteCSV(f, r); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	f, err = zw.Create("share.txt")
	if err != nil {
		return err
	}

	if _, err := io.WriteString(f, s.ShareText(r)); err != nil {
		return err
	}

	for _, tx := range r.Records {
		img, err := s.source.GetProof(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("loading proof for %s: %w", tx.ID, err)
		}

		f, err := zw.Create(proofName(tx, img))
		if err != nil {
			return err
		}

		if _, err := f.Write(img.Data); err != nil {
			return err
		}
	}

	return zw.Close()
}

// proofName yields e.g. "proofs/20240314_A_1b4e28ba.png".
func proofName(tx *transaction.Transaction, img proof.Image) string {
	member := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, tx.Member)

	return fmt.Sprintf("proofs/%s_%s_%s%s", tx.Date.Format("20060102"), member, tx.ID.String()[:8], img.Extension)
}
