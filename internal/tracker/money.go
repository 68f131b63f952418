package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/reconcile"
)

// lendingNote is attached to lend events created from the transaction log.
const lendingNote = "Added from Transaction Log"

// Money owns transactions, cards and lending records. Balance side effects
// of a transaction (card used/total spend, lending totals) are written as a
// second request after the transaction itself. If that follow-up fails the
// whole page is refetched.
type Money struct {
	deps    Deps
	txs     *reconcile.Coordinator[api.Transaction]
	cards   *reconcile.Coordinator[api.CreditCard]
	lending *reconcile.Coordinator[api.LendingRecord]

	mu     sync.Mutex
	month  derive.Month
	assets []api.Asset
}

func NewMoney(d Deps) *Money {
	d = d.withDefaults()
	return &Money{
		deps:    d,
		txs:     reconcile.New(func(t api.Transaction) string { return t.ID }, options[api.Transaction](d, "transaction", nil)),
		cards:   reconcile.New(func(c api.CreditCard) string { return c.ID }, options[api.CreditCard](d, "card", nil)),
		lending: reconcile.New(func(r api.LendingRecord) string { return r.ID }, options(d, "lending", cloneLending)),
		month:   derive.MonthOf(d.Now()),
	}
}

func cloneLending(r api.LendingRecord) api.LendingRecord {
	r.History = append([]api.LendingEvent(nil), r.History...)
	return r
}

func (m *Money) Load(ctx context.Context) error {
	data, err := m.deps.API.MoneyData(ctx)
	if err != nil {
		return fmt.Errorf("load money: %w", err)
	}
	m.txs.Replace(data.Transactions)
	m.cards.Replace(data.CreditCards)
	m.lending.Replace(data.LendingRecords)
	m.mu.Lock()
	m.assets = data.Assets
	m.mu.Unlock()
	return nil
}

// refetch re-converges on server state after a partial two-step write.
func (m *Money) refetch(ctx context.Context, cause error) error {
	m.deps.Log.Warn("balance follow-up failed, refetching", zap.Error(cause))
	if err := m.Load(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (m *Money) Month() derive.Month {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.month
}

func (m *Money) SetMonth(mo derive.Month) {
	m.mu.Lock()
	m.month = mo
	m.mu.Unlock()
}

func (m *Money) NextMonth() { m.SetMonth(m.Month().Next()) }
func (m *Money) PrevMonth() { m.SetMonth(m.Month().Prev()) }

// Transactions returns the selected month, newest first.
func (m *Money) Transactions() []api.Transaction {
	out := derive.FilterByMonth(m.txs.Items(), m.Month())
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (m *Money) Cards() []api.CreditCard      { return m.cards.Items() }
func (m *Money) Lending() []api.LendingRecord { return m.lending.Items() }

func (m *Money) Assets() []api.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]api.Asset(nil), m.assets...)
}

func (m *Money) Totals() derive.MoneyTotals {
	return derive.Totals(m.Transactions(), m.Assets())
}

func (m *Money) Breakdown() []api.NameValue {
	return derive.ExpenseBreakdown(m.Transactions())
}

// Series returns income and expense for the n months ending at the selected one.
func (m *Money) Series(n int) []derive.MonthPoint {
	return derive.MonthlySeries(m.txs.Items(), m.Month(), n)
}

func (m *Money) CardTransactions(cardID string) []api.Transaction {
	card, ok := m.cards.Get(cardID)
	if !ok {
		return nil
	}
	return derive.CardTransactions(m.txs.Items(), card)
}

// PaymentMethod is one choice in the expense payment picker.
type PaymentMethod struct {
	Value string
	Label string
}

func (m *Money) PaymentMethods() []PaymentMethod {
	out := []PaymentMethod{{derive.PayCash, "Cash"}, {derive.PayBank, "Bank Account"}}
	for _, c := range m.cards.Items() {
		out = append(out, PaymentMethod{c.ID, c.Name})
	}
	return out
}

func (m *Money) suffix(method string) string {
	name := ""
	if card, ok := m.cards.Get(method); ok {
		name = card.Name
	}
	return derive.PaymentSuffix(method, name)
}

func (m *Money) persistCard(ctx context.Context, c api.CreditCard) (api.CreditCard, error) {
	return m.deps.API.UpdateCard(ctx, c)
}

func (m *Money) persistLending(ctx context.Context, r api.LendingRecord) (api.LendingRecord, error) {
	return m.deps.API.UpdateLending(ctx, r)
}

func validTransaction(tx api.Transaction) error {
	if strings.TrimSpace(tx.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if !tx.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if _, ok := derive.ParseDate(tx.Date, time.UTC); !ok {
		return fmt.Errorf("%w: date %q", ErrInvalidInput, tx.Date)
	}
	return nil
}

// AddTransaction records tx. Expenses carry the payment method as a category
// suffix and charge the card when paid by card. Lending transactions add to
// the borrower's lending record, creating it when needed.
func (m *Money) AddTransaction(ctx context.Context, tx api.Transaction, method string) (api.Transaction, error) {
	tx.Category = strings.TrimSpace(derive.BaseCategory(tx.Category))
	if tx.Date == "" {
		tx.Date = m.deps.today()
	}
	if err := validTransaction(tx); err != nil {
		return api.Transaction{}, err
	}
	if tx.Type == api.TxExpense {
		tx.Category += m.suffix(method)
	}

	created, err := m.deps.API.CreateTransaction(ctx, tx)
	if err != nil {
		return api.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if created.ID == "" {
		return api.Transaction{}, fmt.Errorf("create transaction: server returned no id")
	}
	m.txs.Insert(created)

	switch {
	case tx.Type == api.TxExpense:
		if _, ok := m.cards.Get(method); ok {
			err = m.cards.Apply(method, func(c *api.CreditCard) { *c = derive.CardAfterCreate(*c, created.Amount) }, m.persistCard)
		}
	case tx.Type == api.TxLending:
		err = m.lendFromTransaction(ctx, created)
	}
	if err != nil {
		return created, m.refetch(ctx, fmt.Errorf("update balance: %w", err))
	}
	return created, nil
}

func (m *Money) lendFromTransaction(ctx context.Context, tx api.Transaction) error {
	rec, ok := derive.LendingFor(m.lending.Items(), tx.Category)
	if !ok {
		created, err := m.deps.API.CreateLending(ctx, api.LendingRecord{
			Borrower:  tx.Category,
			TotalLent: tx.Amount,
			Notes:     lendingNote,
		})
		if err != nil {
			return err
		}
		m.lending.Insert(created)
		return nil
	}
	total := derive.LendingAfterCreate(rec, tx.Amount).TotalLent
	updated, err := m.deps.API.AdjustLending(ctx, rec.ID, total, tx.Date, lendingNote)
	if err != nil {
		return err
	}
	return m.lending.Confirm(rec.ID, func(r *api.LendingRecord) {
		if updated.ID != "" {
			*r = updated
			return
		}
		r.TotalLent = total
	})
}

// EditTransaction replaces a transaction. tx.Category is the base category;
// the payment suffix is re-applied for expenses.
func (m *Money) EditTransaction(tx api.Transaction, method string) error {
	prev, ok := m.txs.Get(tx.ID)
	if !ok {
		return fmt.Errorf("transaction %s: %w", tx.ID, reconcile.ErrNotFound)
	}
	tx.Category = strings.TrimSpace(derive.BaseCategory(tx.Category))
	if err := validTransaction(tx); err != nil {
		return err
	}
	if tx.Type == api.TxExpense {
		if method == "" {
			_, label := derive.SplitCategory(prev.Category)
			if label != "" {
				tx.Category += " (" + label + ")"
			}
		} else {
			tx.Category += m.suffix(method)
		}
	}
	return m.txs.Apply(tx.ID, func(t *api.Transaction) { *t = tx }, m.deps.API.UpdateTransaction)
}

// DeleteTransaction removes a transaction and reverses its effect on the
// card or lending record it touched.
func (m *Money) DeleteTransaction(ctx context.Context, id string) error {
	tx, ok := m.txs.Get(id)
	if !ok {
		return fmt.Errorf("transaction %s: %w", id, reconcile.ErrNotFound)
	}
	if err := m.txs.Remove(id, m.deps.API.DeleteTransaction); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	var err error
	if card, ok := derive.CardForCategory(m.cards.Items(), tx.Category); ok && tx.Type == api.TxExpense {
		err = m.cards.Apply(card.ID, func(c *api.CreditCard) { *c = derive.CardAfterDelete(*c, tx) }, m.persistCard)
	} else if tx.Type == api.TxLending {
		if rec, ok := derive.LendingFor(m.lending.Items(), tx.Category); ok {
			err = m.lending.Apply(rec.ID, func(r *api.LendingRecord) { *r = derive.LendingAfterDelete(*r, tx.Amount) }, m.persistLending)
		}
	}
	if err != nil {
		return m.refetch(ctx, fmt.Errorf("reverse balance: %w", err))
	}
	return nil
}

func (m *Money) AddCard(ctx context.Context, card api.CreditCard) (api.CreditCard, error) {
	card.Name = strings.TrimSpace(card.Name)
	if card.Name == "" || !card.Limit.IsPositive() {
		return api.CreditCard{}, fmt.Errorf("%w: card needs a name and a positive limit", ErrInvalidInput)
	}
	created, err := m.deps.API.CreateCard(ctx, card)
	if err != nil {
		return api.CreditCard{}, fmt.Errorf("create card: %w", err)
	}
	m.cards.Insert(created)
	return created, nil
}

func (m *Money) EditCard(id string, mutate func(*api.CreditCard)) error {
	return m.cards.Apply(id, mutate, m.persistCard)
}

func (m *Money) DeleteCard(id string) error {
	return m.cards.Remove(id, m.deps.API.DeleteCard)
}

// PayBill lowers the card balance, then records the payment as an expense.
func (m *Money) PayBill(ctx context.Context, cardID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	card, ok := m.cards.Get(cardID)
	if !ok {
		return fmt.Errorf("card %s: %w", cardID, reconcile.ErrNotFound)
	}
	if err := m.cards.Apply(cardID, func(c *api.CreditCard) { *c = derive.CardAfterBillPayment(*c, amount) }, m.persistCard); err != nil {
		return fmt.Errorf("pay bill: %w", err)
	}
	created, err := m.deps.API.CreateTransaction(ctx, derive.BillTransaction(card, amount, m.deps.Now()))
	if err != nil {
		return m.refetch(ctx, fmt.Errorf("record bill payment: %w", err))
	}
	m.txs.Insert(created)
	return nil
}

func (m *Money) AddLending(ctx context.Context, r api.LendingRecord) (api.LendingRecord, error) {
	r.Borrower = strings.TrimSpace(r.Borrower)
	if r.Borrower == "" || !r.TotalLent.IsPositive() {
		return api.LendingRecord{}, fmt.Errorf("%w: lending needs a borrower and a positive amount", ErrInvalidInput)
	}
	created, err := m.deps.API.CreateLending(ctx, r)
	if err != nil {
		return api.LendingRecord{}, fmt.Errorf("create lending: %w", err)
	}
	m.lending.Insert(created)
	return created, nil
}

// RecordReturn logs money paid back by a borrower.
func (m *Money) RecordReturn(ctx context.Context, id string, amount decimal.Decimal, date, notes string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if date == "" {
		date = m.deps.today()
	}
	updated, err := m.deps.API.RecordLendingReturn(ctx, id, api.LendingEvent{Amount: amount, Type: "return", Date: date, Notes: notes})
	if err != nil {
		return fmt.Errorf("record return: %w", err)
	}
	return m.lending.Confirm(id, func(r *api.LendingRecord) { *r = updated })
}

func (m *Money) DeleteLending(id string) error {
	return m.lending.Remove(id, m.deps.API.DeleteLending)
}

// SetAssets replaces the asset allocation amounts.
func (m *Money) SetAssets(ctx context.Context, assets []api.Asset) error {
	for _, a := range assets {
		if a.Amount.IsNegative() {
			return fmt.Errorf("%w: %s amount is negative", ErrInvalidInput, a.Type)
		}
	}
	saved, err := m.deps.API.UpdateAssets(ctx, assets)
	if err != nil {
		return fmt.Errorf("update assets: %w", err)
	}
	if len(saved) == 0 {
		saved = assets
	}
	m.mu.Lock()
	m.assets = saved
	m.mu.Unlock()
	return nil
}

func (m *Money) Flush() {
	m.txs.Flush()
	m.cards.Flush()
	m.lending.Flush()
}

// Drain sends pending edits of every collection and closes them.
func (m *Money) Drain(ctx context.Context) error {
	return errors.Join(m.txs.Drain(ctx), m.cards.Drain(ctx), m.lending.Drain(ctx))
}

func (m *Money) Close() {
	m.txs.Close()
	m.cards.Close()
	m.lending.Close()
}
