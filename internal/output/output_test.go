package output

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuifit/internal/gems"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestMessagesGoToTheRightStream(t *testing.T) {
	u, out, errOut := newTestUI()
	u.Info("hello %s", "world")
	u.Success("done %d", 42)
	u.Warning("careful %s", "now")
	u.Error("failed %s", "badly")

	assert.Contains(t, out.String(), "hello world")
	assert.Contains(t, out.String(), "done 42")
	assert.NotContains(t, out.String(), "careful")
	assert.Contains(t, errOut.String(), "careful now")
	assert.Contains(t, errOut.String(), "failed badly")
}

func TestAmountSign(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	assert.Equal(t, "+10", Amount(gems.Transaction{Type: gems.TxEarn, Amount: 10}))
	assert.Equal(t, "-3", Amount(gems.Transaction{Type: gems.TxSpend, Amount: 3}))
}

func TestTransactionsTable(t *testing.T) {
	u, out, _ := newTestUI()
	err := u.Transactions([]gems.Transaction{
		{ID: "earn_1", TS: "2026-03-14T09:30:00.000Z", Type: gems.TxEarn, Amount: 2, Title: "Бонус за тренировку", Reason: "workout_day"},
		{ID: "spend_1", TS: "bad", Type: gems.TxSpend, Amount: 1, Title: "Покупка", Reason: "shop"},
	})
	require.NoError(t, err)

	result := out.String()
	assert.Contains(t, result, "Бонус за тренировку")
	assert.Contains(t, result, "workout_day")
	assert.Contains(t, result, "bad")
}

func TestTransactionsEmpty(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.Transactions(nil))
	assert.Contains(t, out.String(), "No transactions yet.")
}

func TestRows(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.Rows([]string{"Badge", "Status"}, [][]string{{"first", "yes"}, {"night", "no"}}))
	assert.Contains(t, out.String(), "first")
	assert.Contains(t, out.String(), "night")
}
