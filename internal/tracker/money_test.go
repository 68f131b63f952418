package tracker

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func moneyFixture() api.MoneyData {
	return api.MoneyData{
		CreditCards: []api.CreditCard{
			{ID: "c1", Name: "VISA", Limit: dec("10000"), Used: dec("500"), TotalSpend: dec("500")},
		},
		Transactions: []api.Transaction{
			{ID: "t1", Type: api.TxExpense, Category: "Food (VISA)", Amount: dec("500"), Date: "2024-03-10"},
			{ID: "t2", Type: api.TxIncome, Category: "Salary", Amount: dec("1000"), Date: "2024-03-01"},
			{ID: "t3", Type: api.TxExpense, Category: "Rent (Cash)", Amount: dec("300"), Date: "2024-02-01"},
		},
		LendingRecords: []api.LendingRecord{
			{ID: "l1", Borrower: "Ravi", TotalLent: dec("1000")},
		},
		Assets: []api.Asset{{Type: "stocks", Amount: dec("2500")}},
	}
}

func newMoney(t *testing.T) (*Money, *backend) {
	return newMoneyWith(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, bodyOf[api.CreditCard](r))
	})
}

// newMoneyWith loads the fixture with cardUpdate answering card writes.
func newMoneyWith(t *testing.T, cardUpdate http.HandlerFunc) (*Money, *backend) {
	t.Helper()
	b, deps, _ := newBackend(t)
	b.handle("GET /api/money/data", ok(moneyFixture()))
	b.handle("PUT /api/money/cards/{id}", cardUpdate)
	b.handle("DELETE /api/money/transactions/{id}", ok(nil))
	m := NewMoney(deps)
	t.Cleanup(m.Close)
	require.NoError(t, m.Load(t.Context()))
	return m, b
}

func card(t *testing.T, m *Money, id string) api.CreditCard {
	t.Helper()
	c, found := m.cards.Get(id)
	require.True(t, found)
	return c
}

func TestMoneyMonthView(t *testing.T) {
	m, _ := newMoney(t)
	assert.Equal(t, derive.Month{Year: 2024, Month: 3}, m.Month())

	txs := m.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "t1", txs[0].ID)

	totals := m.Totals()
	assert.True(t, totals.Income.Equal(dec("1000")))
	assert.True(t, totals.Expense.Equal(dec("500")))
	assert.True(t, totals.Invested.Equal(dec("2500")))

	m.PrevMonth()
	require.Len(t, m.Transactions(), 1)
	assert.Equal(t, "Rent", m.Breakdown()[0].Name)
}

func TestDeleteCardPurchaseLowersBalance(t *testing.T) {
	m, b := newMoney(t)

	require.NoError(t, m.DeleteTransaction(t.Context(), "t1"))

	c := card(t, m, "c1")
	assert.True(t, c.Used.IsZero())
	assert.True(t, c.TotalSpend.IsZero())
	calls := b.calls(http.MethodPut, "/api/money/cards/c1")
	require.Len(t, calls, 1)
	assert.True(t, decode[api.CreditCard](t, calls[0].Body).Used.IsZero())
}

func TestDeleteBillPaymentRestoresBalance(t *testing.T) {
	m, b := newMoney(t)
	b.handle("POST /api/money/transactions", func(w http.ResponseWriter, r *http.Request) {
		tx := bodyOf[api.Transaction](r)
		tx.ID = "bill1"
		reply(w, http.StatusCreated, tx)
	})

	require.NoError(t, m.PayBill(t.Context(), "c1", dec("500")))
	assert.True(t, card(t, m, "c1").Used.IsZero())

	bill, found := m.txs.Get("bill1")
	require.True(t, found)
	assert.Equal(t, "Credit Card Bill (VISA)", bill.Category)
	assert.Equal(t, "2024-03-15", bill.Date)

	require.NoError(t, m.DeleteTransaction(t.Context(), "bill1"))
	c := card(t, m, "c1")
	assert.True(t, c.Used.Equal(dec("500")))
	assert.True(t, c.TotalSpend.Equal(dec("500")))
}

func TestAddCardExpenseChargesCard(t *testing.T) {
	m, b := newMoney(t)
	b.handle("POST /api/money/transactions", func(w http.ResponseWriter, r *http.Request) {
		tx := bodyOf[api.Transaction](r)
		tx.ID = "t9"
		reply(w, http.StatusCreated, tx)
	})

	created, err := m.AddTransaction(t.Context(), api.Transaction{
		Type: api.TxExpense, Category: "Coffee", Amount: dec("120"),
	}, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Coffee (VISA)", created.Category)
	assert.Equal(t, "2024-03-15", created.Date)

	c := card(t, m, "c1")
	assert.True(t, c.Used.Equal(dec("620")))
	assert.True(t, c.TotalSpend.Equal(dec("620")))

	_, err = m.AddTransaction(t.Context(), api.Transaction{Type: api.TxExpense, Category: "Tea"}, derive.PayCash)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLendingTransactionAdjustsRecord(t *testing.T) {
	m, b := newMoney(t)
	b.handle("POST /api/money/transactions", func(w http.ResponseWriter, r *http.Request) {
		tx := bodyOf[api.Transaction](r)
		tx.ID = "t10"
		reply(w, http.StatusCreated, tx)
	})
	b.handle("PUT /api/money/lending/{id}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, nil)
	})

	_, err := m.AddTransaction(t.Context(), api.Transaction{
		Type: api.TxLending, Category: "Ravi", Amount: dec("200"), Date: "2024-03-12",
	}, "")
	require.NoError(t, err)

	calls := b.calls(http.MethodPut, "/api/money/lending/l1")
	require.Len(t, calls, 1)
	body := decode[map[string]any](t, calls[0].Body)
	assert.Equal(t, "Added from Transaction Log", body["notes"])
	assert.Equal(t, "2024-03-12", body["date"])

	rec, _ := m.lending.Get("l1")
	assert.True(t, rec.TotalLent.Equal(dec("1200")))
}

func TestFailedFollowUpRefetches(t *testing.T) {
	m, b := newMoneyWith(t, fail(http.StatusInternalServerError))
	b.handle("POST /api/money/transactions", func(w http.ResponseWriter, r *http.Request) {
		tx := bodyOf[api.Transaction](r)
		tx.ID = "t11"
		reply(w, http.StatusCreated, tx)
	})

	_, err := m.AddTransaction(t.Context(), api.Transaction{
		Type: api.TxExpense, Category: "Fuel", Amount: dec("50"),
	}, "c1")
	require.Error(t, err)
	assert.Equal(t, 2, b.count(http.MethodGet, "/api/money/data"))
	assert.True(t, card(t, m, "c1").Used.Equal(dec("500")))
}

func TestEditTransactionKeepsPaymentSuffix(t *testing.T) {
	m, b := newMoney(t)
	b.handle("PUT /api/money/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, bodyOf[api.Transaction](r))
	})

	require.NoError(t, m.EditTransaction(api.Transaction{
		ID: "t1", Type: api.TxExpense, Category: "Groceries (VISA)", Amount: dec("450"), Date: "2024-03-10",
	}, ""))
	got, _ := m.txs.Get("t1")
	assert.Equal(t, "Groceries (VISA)", got.Category)

	require.NoError(t, m.EditTransaction(api.Transaction{
		ID: "t1", Type: api.TxExpense, Category: "Groceries", Amount: dec("450"), Date: "2024-03-10",
	}, derive.PayCash))
	got, _ = m.txs.Get("t1")
	assert.Equal(t, "Groceries (Cash)", got.Category)
}
