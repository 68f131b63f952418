package derive

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadopc/focusflow/internal/api"
)

// Payment methods an expense can be settled with. Any other value is the id
// of a credit card.
const (
	PayCash = "cash"
	PayBank = "bank_transfer"
)

const BillCategoryPrefix = "Credit Card Bill"

var paymentSuffix = regexp.MustCompile(`\s\([^)]+\)$`)

// PaymentSuffix returns the category suffix recorded for a payment method,
// e.g. " (Cash)". cardName is used for card payments.
func PaymentSuffix(method, cardName string) string {
	switch method {
	case PayCash:
		return " (Cash)"
	case PayBank:
		return " (Bank Account)"
	case "":
		return ""
	}
	if cardName == "" {
		return ""
	}
	return " (" + cardName + ")"
}

// SplitCategory separates "Food (Cash)" into "Food" and "Cash". A category
// without a suffix returns an empty method.
func SplitCategory(category string) (base, method string) {
	loc := paymentSuffix.FindStringIndex(category)
	if loc == nil {
		return category, ""
	}
	suffix := category[loc[0]:]
	return category[:loc[0]], strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(suffix), "("), ")")
}

// BaseCategory strips the payment-method suffix.
func BaseCategory(category string) string {
	base, _ := SplitCategory(category)
	return base
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month { return Month{Year: t.Year(), Month: t.Month()} }

func (m Month) Next() Month {
	t := time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(t)
}

func (m Month) Prev() Month {
	t := time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(t)
}

func (m Month) String() string {
	return m.Month.String() + " " + itoa(m.Year)
}

// FilterByMonth keeps the transactions dated inside m, in input order.
// Undated or unparsable transactions are dropped.
func FilterByMonth(txs []api.Transaction, m Month) []api.Transaction {
	var out []api.Transaction
	for _, tx := range txs {
		d, ok := ParseDate(tx.Date, time.UTC)
		if ok && d.Year() == m.Year && d.Month() == m.Month {
			out = append(out, tx)
		}
	}
	return out
}

// MoneyTotals summarizes one month.
type MoneyTotals struct {
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Investment decimal.Decimal
	Lending    decimal.Decimal
	Loan       decimal.Decimal
	Invested   decimal.Decimal // sum of asset amounts
	Net        decimal.Decimal // income - expense
}

func Totals(txs []api.Transaction, assets []api.Asset) MoneyTotals {
	var t MoneyTotals
	for _, tx := range txs {
		switch tx.Type {
		case api.TxIncome:
			t.Income = t.Income.Add(tx.Amount)
		case api.TxExpense:
			t.Expense = t.Expense.Add(tx.Amount)
		case api.TxInvestment:
			t.Investment = t.Investment.Add(tx.Amount)
		case api.TxLending:
			t.Lending = t.Lending.Add(tx.Amount)
		case api.TxLoan:
			t.Loan = t.Loan.Add(tx.Amount)
		}
	}
	for _, a := range assets {
		t.Invested = t.Invested.Add(a.Amount)
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

// ExpenseBreakdown sums expenses per base category, largest first. Equal
// values keep first-seen order.
func ExpenseBreakdown(txs []api.Transaction) []api.NameValue {
	var out []api.NameValue
	idx := make(map[string]int)
	for _, tx := range txs {
		if tx.Type != api.TxExpense {
			continue
		}
		name := BaseCategory(tx.Category)
		if i, ok := idx[name]; ok {
			out[i].Value = out[i].Value.Add(tx.Amount)
			continue
		}
		idx[name] = len(out)
		out = append(out, api.NameValue{Name: name, Value: tx.Amount})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value.GreaterThan(out[j].Value) })
	return out
}

// MonthPoint is one month of the cashflow series.
type MonthPoint struct {
	Month   Month
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// MonthlySeries returns income and expense for the n months ending at last,
// oldest first.
func MonthlySeries(txs []api.Transaction, last Month, n int) []MonthPoint {
	if n <= 0 {
		return nil
	}
	points := make([]MonthPoint, n)
	m := last
	for i := n - 1; i >= 0; i-- {
		points[i].Month = m
		m = m.Prev()
	}
	pos := make(map[Month]int, n)
	for i, p := range points {
		pos[p.Month] = i
	}
	for _, tx := range txs {
		d, ok := ParseDate(tx.Date, time.UTC)
		if !ok {
			continue
		}
		i, ok := pos[MonthOf(d)]
		if !ok {
			continue
		}
		switch tx.Type {
		case api.TxIncome:
			points[i].Income = points[i].Income.Add(tx.Amount)
		case api.TxExpense:
			points[i].Expense = points[i].Expense.Add(tx.Amount)
		}
	}
	return points
}

// CardForCategory finds the card whose name appears as "(Name)" in category.
func CardForCategory(cards []api.CreditCard, category string) (api.CreditCard, bool) {
	for _, c := range cards {
		if c.Name != "" && strings.Contains(category, "("+c.Name+")") {
			return c, true
		}
	}
	return api.CreditCard{}, false
}

// CardTransactions lists the transactions charged to card.
func CardTransactions(txs []api.Transaction, card api.CreditCard) []api.Transaction {
	var out []api.Transaction
	for _, tx := range txs {
		if strings.Contains(tx.Category, "("+card.Name+")") {
			out = append(out, tx)
		}
	}
	return out
}

// CardAfterCreate charges amount to the card.
func CardAfterCreate(c api.CreditCard, amount decimal.Decimal) api.CreditCard {
	c.Used = c.Used.Add(amount)
	c.TotalSpend = c.TotalSpend.Add(amount)
	return c
}

// CardAfterDelete reverses a deleted transaction on its card. Deleting a bill
// payment puts the paid amount back on the balance; deleting a purchase
// removes it from both balance and lifetime spend, floored at zero.
func CardAfterDelete(c api.CreditCard, tx api.Transaction) api.CreditCard {
	if strings.HasPrefix(tx.Category, BillCategoryPrefix) {
		c.Used = c.Used.Add(tx.Amount)
		return c
	}
	c.Used = floorZero(c.Used.Sub(tx.Amount))
	c.TotalSpend = floorZero(c.TotalSpend.Sub(tx.Amount))
	return c
}

// CardAfterBillPayment lowers the balance by a payment, floored at zero.
func CardAfterBillPayment(c api.CreditCard, amount decimal.Decimal) api.CreditCard {
	c.Used = floorZero(c.Used.Sub(amount))
	return c
}

// BillTransaction is the expense recorded for paying a card bill.
func BillTransaction(c api.CreditCard, amount decimal.Decimal, now time.Time) api.Transaction {
	return api.Transaction{
		Type:     api.TxExpense,
		Category: BillCategoryPrefix + " (" + c.Name + ")",
		Amount:   amount,
		Date:     now.Format(DateLayout),
	}
}

// CardUtilization is used/limit as a rounded percentage, capped at 100.
func CardUtilization(c api.CreditCard) int {
	if !c.Limit.IsPositive() {
		return 0
	}
	p := c.Used.Div(c.Limit).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if p > 100 {
		return 100
	}
	return int(p)
}

// LendingFor finds the lending record whose borrower is name.
func LendingFor(records []api.LendingRecord, name string) (api.LendingRecord, bool) {
	for _, r := range records {
		if r.Borrower == name {
			return r, true
		}
	}
	return api.LendingRecord{}, false
}

// LendingAfterCreate adds a new loan to the record's total.
func LendingAfterCreate(r api.LendingRecord, amount decimal.Decimal) api.LendingRecord {
	r.TotalLent = r.TotalLent.Add(amount)
	return r
}

// LendingAfterDelete removes a deleted loan from the total, floored at zero.
func LendingAfterDelete(r api.LendingRecord, amount decimal.Decimal) api.LendingRecord {
	r.TotalLent = floorZero(r.TotalLent.Sub(amount))
	return r
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FormatINR renders an amount in rupees with Indian digit grouping and no
// fraction, e.g. ₹1,23,456.
func FormatINR(d decimal.Decimal) string {
	n := d.Round(0).IntPart()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := itoa(int(n))
	if len(s) <= 3 {
		return sign + "₹" + s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}
