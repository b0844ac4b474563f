// Package output prints colored status lines and tables for the
// non-interactive subcommands.
package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/verte-zerg/tuifit/internal/gems"
)

// UI writes messages to Out and warnings or errors to ErrOut.
type UI struct {
	Out    io.Writer
	ErrOut io.Writer
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Amount renders a signed wallet movement: earnings green, spends red.
func Amount(tx gems.Transaction) string {
	s := strconv.Itoa(tx.Amount)
	if tx.Type == gems.TxSpend {
		return red("-" + s)
	}
	return green("+" + s)
}

// Check renders a done/pending marker.
func Check(done bool) string {
	if done {
		return green("✓")
	}
	return yellow("·")
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

// Table creates a borderless left-aligned table with the given headers.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// Transactions prints wallet movements, newest first.
func (u *UI) Transactions(txs []gems.Transaction) error {
	if len(txs) == 0 {
		u.Info("No transactions yet.")
		return nil
	}
	table := u.Table([]string{"Date", "Amount", "Title", "Reason"})
	for _, tx := range txs {
		when := tx.TS
		if t := tx.Time(); !t.IsZero() {
			when = t.Local().Format("2006-01-02 15:04")
		}
		if err := table.Append([]string{when, Amount(tx), tx.Title, tx.Reason}); err != nil {
			return err
		}
	}
	return table.Render()
}

// Rows prints a plain table of pre-formatted rows.
func (u *UI) Rows(headers []string, rows [][]string) error {
	table := u.Table(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
