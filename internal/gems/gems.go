// Package gems implements the local gems wallet: a clamped balance, a
// capped transaction log and idempotency keys for one-time rewards.
package gems

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/verte-zerg/tuifit/internal/store"
)

// Store keys.
const (
	WalletKey       = "user_gems_wallet"
	TransactionsKey = "user_gems_transactions"
	IdempotencyKey  = "user_gems_idempotency"
)

// Limits on stored data.
const (
	MaxTransactions   = 200
	MaxIdempotency    = 400
	MaxBalance        = 1_000_000_000
	DefaultHistoryLen = 20
)

var (
	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientFunds is returned when a spend exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// TxType distinguishes earning from spending.
type TxType string

// Transaction types.
const (
	TxEarn  TxType = "earn"
	TxSpend TxType = "spend"
)

// Transaction is one wallet movement.
type Transaction struct {
	ID     string          `json:"id"`
	TS     string          `json:"ts"`
	Type   TxType          `json:"type"`
	Amount int             `json:"amount"`
	Reason string          `json:"reason"`
	Title  string          `json:"title"`
	Meta   json.RawMessage `json:"meta"`
}

// Time parses the transaction timestamp.
func (t Transaction) Time() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, t.TS)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Options describe a wallet movement.
type Options struct {
	Reason         string
	Title          string
	IdempotencyKey string
	Meta           any
}

// Result is the outcome of AddGems or SpendGems.
type Result struct {
	OK      bool
	Skipped bool
	Balance int
	Tx      *Transaction
}

type wallet struct {
	Balance   int    `json:"balance"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Ledger is the wallet over a KV store.
type Ledger struct {
	kv  store.KV
	now func() time.Time
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a Ledger over kv.
func New(kv store.KV, opts ...Option) *Ledger {
	l := &Ledger{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddGems credits amount. A repeated idempotency key is reported as
// Skipped and leaves the wallet untouched.
func (l *Ledger) AddGems(ctx context.Context, amount int, opts Options) (Result, error) {
	w, err := l.readWallet(ctx)
	if err != nil {
		return Result{}, err
	}
	if amount <= 0 {
		return Result{Balance: w.Balance}, ErrInvalidAmount
	}
	key := strings.TrimSpace(opts.IdempotencyKey)
	var keys []string
	if key != "" {
		keys, err = l.readKeys(ctx)
		if err != nil {
			return Result{}, err
		}
		for _, k := range keys {
			if k == key {
				return Result{OK: true, Skipped: true, Balance: w.Balance}, nil
			}
		}
	}
	title := opts.Title
	if title == "" {
		title = "Начисление гемов"
	}
	tx, err := l.newTx(TxEarn, amount, opts.Reason, title, opts.Meta)
	if err != nil {
		return Result{}, err
	}
	// The key is recorded before the credit so a partial write can never
	// be credited twice; it is withdrawn if the credit fails.
	if key != "" {
		next := append([]string{key}, keys...)
		if len(next) > MaxIdempotency {
			next = next[:MaxIdempotency]
		}
		if err := store.SaveJSON(ctx, l.kv, IdempotencyKey, next); err != nil {
			return Result{}, err
		}
	}
	balance, err := l.apply(ctx, w, amount, tx)
	if err != nil {
		if key != "" {
			if rbErr := store.SaveJSON(ctx, l.kv, IdempotencyKey, keys); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
		}
		return Result{}, err
	}
	return Result{OK: true, Balance: balance, Tx: &tx}, nil
}

// SpendGems debits amount if the balance covers it.
func (l *Ledger) SpendGems(ctx context.Context, amount int, opts Options) (Result, error) {
	w, err := l.readWallet(ctx)
	if err != nil {
		return Result{}, err
	}
	if amount <= 0 {
		return Result{Balance: w.Balance}, ErrInvalidAmount
	}
	if w.Balance < amount {
		return Result{Balance: w.Balance}, ErrInsufficientFunds
	}
	title := opts.Title
	if title == "" {
		title = "Списание гемов"
	}
	tx, err := l.newTx(TxSpend, amount, opts.Reason, title, opts.Meta)
	if err != nil {
		return Result{}, err
	}
	balance, err := l.apply(ctx, w, -amount, tx)
	if err != nil {
		return Result{}, err
	}
	return Result{OK: true, Balance: balance, Tx: &tx}, nil
}

// Balance returns the current balance.
func (l *Ledger) Balance(ctx context.Context) (int, error) {
	w, err := l.readWallet(ctx)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// Transactions returns up to limit transactions, newest first. A
// non-positive limit returns DefaultHistoryLen.
func (l *Ledger) Transactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLen
	}
	list, err := l.readTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Claimed reports whether an idempotency key has been used.
func (l *Ledger) Claimed(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}
	keys, err := l.readKeys(ctx)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

func (l *Ledger) apply(ctx context.Context, w wallet, delta int, tx Transaction) (int, error) {
	w.Balance = clamp(w.Balance+delta, 0, MaxBalance)
	w.UpdatedAt = tx.TS
	if err := store.SaveJSON(ctx, l.kv, WalletKey, w); err != nil {
		return 0, err
	}
	list, err := l.readTransactions(ctx)
	if err != nil {
		return 0, err
	}
	list = append([]Transaction{tx}, list...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Time().After(list[j].Time())
	})
	if len(list) > MaxTransactions {
		list = list[:MaxTransactions]
	}
	if err := store.SaveJSON(ctx, l.kv, TransactionsKey, list); err != nil {
		return 0, err
	}
	return w.Balance, nil
}

func (l *Ledger) newTx(typ TxType, amount int, reason, title string, meta any) (Transaction, error) {
	now := l.now()
	tx := Transaction{
		ID:     string(typ) + "_" + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		TS:     now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Type:   typ,
		Amount: amount,
		Reason: reason,
		Title:  title,
		Meta:   json.RawMessage("null"),
	}
	if meta != nil {
		data, err := json.Marshal(meta)
		if err != nil {
			return Transaction{}, err
		}
		tx.Meta = data
	}
	return tx, nil
}

func (l *Ledger) readWallet(ctx context.Context) (wallet, error) {
	var w wallet
	if _, err := store.LoadJSON(ctx, l.kv, WalletKey, &w); err != nil {
		return wallet{}, err
	}
	w.Balance = clamp(w.Balance, 0, MaxBalance)
	return w, nil
}

func (l *Ledger) readTransactions(ctx context.Context) ([]Transaction, error) {
	var raw []json.RawMessage
	if _, err := store.LoadJSON(ctx, l.kv, TransactionsKey, &raw); err != nil {
		return nil, err
	}
	list := make([]Transaction, 0, len(raw))
	for _, item := range raw {
		var tx Transaction
		if err := json.Unmarshal(item, &tx); err != nil {
			continue
		}
		if tx.ID == "" || tx.TS == "" {
			continue
		}
		list = append(list, tx)
	}
	return list, nil
}

func (l *Ledger) readKeys(ctx context.Context) ([]string, error) {
	var raw []any
	if _, err := store.LoadJSON(ctx, l.kv, IdempotencyKey, &raw); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			keys = append(keys, s)
		}
	}
	if len(keys) > MaxIdempotency {
		keys = keys[:MaxIdempotency]
	}
	return keys, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
