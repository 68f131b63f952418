package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/tracker"
)

type moneyPane int

const (
	paneTransactions moneyPane = iota
	paneCards
	paneLending
	paneAssets
)

var moneyPaneNames = []string{"Transactions", "Cards", "Lending", "Assets"}

type moneyFields struct {
	Type     api.TxType
	Category string
	Amount   string
	Date     string
	Method   string
	Name     string
	Limit    string
	DueDay   string
	Notes    string
	Assets   []string
}

type moneyModel struct {
	ctx   context.Context
	money *tracker.Money
	now   func() time.Time

	width  int
	height int

	pane   moneyPane
	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "tx", "edit-tx", "card", "edit-card", "bill", "lend", "return", "assets"
	editingID  string
	fields     *moneyFields
}

func newMoneyModel(ctx context.Context, money *tracker.Money) moneyModel {
	return moneyModel{
		ctx:    ctx,
		money:  money,
		now:    time.Now,
		fields: &moneyFields{},
	}
}

func (m *moneyModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type moneyLoadedMsg struct{ err error }

func (m moneyModel) refresh() tea.Cmd {
	ctx, money := m.ctx, m.money
	return func() tea.Msg {
		return moneyLoadedMsg{err: money.Load(ctx)}
	}
}

func (m moneyModel) rows() int {
	switch m.pane {
	case paneCards:
		return len(m.money.Cards())
	case paneLending:
		return len(m.money.Lending())
	case paneAssets:
		return len(m.money.Assets())
	}
	return len(m.money.Transactions())
}

func (m moneyModel) update(msg tea.Msg) (moneyModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case moneyLoadedMsg:
		if msg.err != nil {
			return m, failure("Could not load money", msg.err)
		}
		m.cursor = clamp(m.cursor, m.rows())
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m moneyModel) updateKeys(msg tea.KeyMsg) (moneyModel, tea.Cmd) {
	n := m.rows()
	money := m.money
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, keys.Left):
		money.PrevMonth()
		m.cursor = 0
		return m, nil
	case key.Matches(msg, keys.Right):
		money.NextMonth()
		m.cursor = 0
		return m, nil
	case key.Matches(msg, keys.Switch):
		m.pane = (m.pane + 1) % moneyPane(len(moneyPaneNames))
		m.cursor = 0
		return m, nil
	case key.Matches(msg, keys.New):
		switch m.pane {
		case paneCards:
			return m.showCardForm(nil)
		case paneLending:
			return m.showLendForm()
		case paneAssets:
			return m.showAssetsForm()
		}
		return m.showTxForm(nil)
	}
	if n == 0 {
		return m, nil
	}

	idx := clamp(m.cursor, n)
	switch m.pane {
	case paneTransactions:
		tx := money.Transactions()[idx]
		switch {
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			return m.showTxForm(&tx)
		case key.Matches(msg, keys.Delete):
			m.cursor = clamp(m.cursor, n-1)
			return m, attempt(m.ctx, func(ctx context.Context) error {
				return money.DeleteTransaction(ctx, tx.ID)
			}, "Transaction deleted", "Could not delete transaction")
		}

	case paneCards:
		card := money.Cards()[idx]
		switch {
		case key.Matches(msg, keys.Edit):
			return m.showCardForm(&card)
		case key.Matches(msg, keys.Enter):
			return m.showAmountForm("bill", card.ID, "Pay "+card.Name+" bill", card.Used)
		case key.Matches(msg, keys.Delete):
			m.cursor = clamp(m.cursor, n-1)
			return m, optimistic(func() error { return money.DeleteCard(card.ID) }, "Could not delete card")
		}

	case paneLending:
		rec := money.Lending()[idx]
		switch {
		case key.Matches(msg, keys.Enter):
			return m.showAmountForm("return", rec.ID, rec.Borrower+" paid back", rec.Outstanding)
		case key.Matches(msg, keys.Delete):
			m.cursor = clamp(m.cursor, n-1)
			return m, optimistic(func() error { return money.DeleteLending(rec.ID) }, "Could not delete record")
		}

	case paneAssets:
		if key.Matches(msg, keys.Edit) || key.Matches(msg, keys.Enter) {
			return m.showAssetsForm()
		}
	}
	return m, nil
}

func validAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return errors.New("enter a positive amount")
	}
	return nil
}

func validOptionalAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return errors.New("enter an amount")
	}
	return nil
}

func parseAmount(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(strings.TrimSpace(s))
	return d
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(label + " is required")
		}
		return nil
	}
}

func (m moneyModel) methodOptions(keep bool) []huh.Option[string] {
	var opts []huh.Option[string]
	if keep {
		opts = append(opts, huh.NewOption("Keep current", ""))
	}
	for _, pm := range m.money.PaymentMethods() {
		opts = append(opts, huh.NewOption(pm.Label, pm.Value))
	}
	return opts
}

func (m moneyModel) showTxForm(tx *api.Transaction) (moneyModel, tea.Cmd) {
	*m.fields = moneyFields{
		Type:   api.TxExpense,
		Date:   m.now().Format(derive.DateLayout),
		Method: derive.PayCash,
	}
	m.formType = "tx"
	if tx != nil {
		m.formType = "edit-tx"
		m.editingID = tx.ID
		m.fields.Type = tx.Type
		m.fields.Category = derive.BaseCategory(tx.Category)
		m.fields.Amount = tx.Amount.String()
		m.fields.Date = tx.Date
		m.fields.Method = ""
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[api.TxType]().Title("Type").Options(
				huh.NewOption("Expense", api.TxExpense),
				huh.NewOption("Income", api.TxIncome),
				huh.NewOption("Investment", api.TxInvestment),
				huh.NewOption("Lending (category is the borrower)", api.TxLending),
				huh.NewOption("Loan", api.TxLoan),
			).Value(&m.fields.Type),
			huh.NewInput().Title("Category").Value(&m.fields.Category).Validate(required("category")),
			huh.NewInput().Title("Amount").Value(&m.fields.Amount).Validate(validAmount),
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(&m.fields.Date).Validate(func(s string) error {
				if _, ok := derive.ParseDate(strings.TrimSpace(s), time.Local); !ok {
					return errors.New("use YYYY-MM-DD")
				}
				return nil
			}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Paid with").Options(m.methodOptions(tx != nil)...).Value(&m.fields.Method),
		).WithHideFunc(func() bool { return m.fields.Type != api.TxExpense }),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m moneyModel) showCardForm(card *api.CreditCard) (moneyModel, tea.Cmd) {
	*m.fields = moneyFields{}
	m.formType = "card"
	if card != nil {
		m.formType = "edit-card"
		m.editingID = card.ID
		m.fields.Name = card.Name
		m.fields.Limit = card.Limit.String()
		if card.DueDate > 0 {
			m.fields.DueDay = strconv.Itoa(card.DueDate)
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Card name").Value(&m.fields.Name).Validate(required("name")),
			huh.NewInput().Title("Credit limit").Value(&m.fields.Limit).Validate(validAmount),
			huh.NewInput().Title("Bill due day (1-31, optional)").Value(&m.fields.DueDay).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				d, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || d < 1 || d > 31 {
					return errors.New("enter a day between 1 and 31")
				}
				return nil
			}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m moneyModel) showLendForm() (moneyModel, tea.Cmd) {
	*m.fields = moneyFields{}
	m.formType = "lend"
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Borrower").Value(&m.fields.Name).Validate(required("borrower")),
			huh.NewInput().Title("Amount lent").Value(&m.fields.Amount).Validate(validAmount),
			huh.NewInput().Title("Due date (YYYY-MM-DD, optional)").Value(&m.fields.Date).Validate(validDeadline),
			huh.NewInput().Title("Notes").Value(&m.fields.Notes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

// showAmountForm asks for one amount, prefilled with suggested.
func (m moneyModel) showAmountForm(kind, id, title string, suggested decimal.Decimal) (moneyModel, tea.Cmd) {
	*m.fields = moneyFields{}
	if suggested.IsPositive() {
		m.fields.Amount = suggested.String()
	}
	m.formType = kind
	m.editingID = id

	fields := []huh.Field{
		huh.NewInput().Title("Amount").Value(&m.fields.Amount).Validate(validAmount),
	}
	if kind == "return" {
		fields = append(fields, huh.NewInput().Title("Notes").Value(&m.fields.Notes))
	}
	m.form = huh.NewForm(huh.NewGroup(fields...).Title(title)).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func assetLabel(a api.Asset) string {
	if a.Label != "" {
		return a.Label
	}
	return a.Type
}

func (m moneyModel) showAssetsForm() (moneyModel, tea.Cmd) {
	assets := m.money.Assets()
	if len(assets) == 0 {
		return m, status("No asset categories on the server yet")
	}
	*m.fields = moneyFields{Assets: make([]string, len(assets))}
	m.formType = "assets"

	var fields []huh.Field
	for i, a := range assets {
		m.fields.Assets[i] = a.Amount.String()
		fields = append(fields, huh.NewInput().Title(assetLabel(a)).Value(&m.fields.Assets[i]).Validate(validOptionalAmount))
	}
	m.form = huh.NewForm(huh.NewGroup(fields...).Title("Asset allocation")).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m moneyModel) updateForm(msg tea.Msg) (moneyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.formActive = false
	f := *m.fields
	money, id := m.money, m.editingID
	amount := parseAmount(f.Amount)

	switch m.formType {
	case "tx":
		tx := api.Transaction{Type: f.Type, Category: f.Category, Amount: amount, Date: strings.TrimSpace(f.Date)}
		return m, attempt(m.ctx, func(ctx context.Context) error {
			_, err := money.AddTransaction(ctx, tx, f.Method)
			return err
		}, "Transaction added", "Could not add transaction")

	case "edit-tx":
		tx := api.Transaction{ID: id, Type: f.Type, Category: f.Category, Amount: amount, Date: strings.TrimSpace(f.Date)}
		return m, optimistic(func() error { return money.EditTransaction(tx, f.Method) }, "Could not edit transaction")

	case "card":
		card := api.CreditCard{Name: f.Name, Limit: parseAmount(f.Limit)}
		card.DueDate, _ = strconv.Atoi(strings.TrimSpace(f.DueDay))
		return m, attempt(m.ctx, func(ctx context.Context) error {
			_, err := money.AddCard(ctx, card)
			return err
		}, "Card added", "Could not add card")

	case "edit-card":
		due, _ := strconv.Atoi(strings.TrimSpace(f.DueDay))
		return m, optimistic(func() error {
			return money.EditCard(id, func(c *api.CreditCard) {
				c.Name = strings.TrimSpace(f.Name)
				c.Limit = parseAmount(f.Limit)
				c.DueDate = due
			})
		}, "Could not edit card")

	case "bill":
		return m, attempt(m.ctx, func(ctx context.Context) error {
			return money.PayBill(ctx, id, amount)
		}, "Bill paid", "Could not pay bill")

	case "lend":
		rec := api.LendingRecord{Borrower: f.Name, TotalLent: amount, DueDate: strings.TrimSpace(f.Date), Notes: strings.TrimSpace(f.Notes)}
		return m, attempt(m.ctx, func(ctx context.Context) error {
			_, err := money.AddLending(ctx, rec)
			return err
		}, "Lending recorded", "Could not record lending")

	case "return":
		return m, attempt(m.ctx, func(ctx context.Context) error {
			return money.RecordReturn(ctx, id, amount, "", strings.TrimSpace(f.Notes))
		}, "Return recorded", "Could not record return")

	case "assets":
		assets := money.Assets()
		for i := range assets {
			if i < len(f.Assets) {
				assets[i].Amount = parseAmount(f.Assets[i])
			}
		}
		return m, attempt(m.ctx, func(ctx context.Context) error {
			return money.SetAssets(ctx, assets)
		}, "Assets updated", "Could not update assets")
	}
	return m, nil
}

func (m moneyModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Money"), "", m.form.View()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTotals(w),
		lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderPane(w*3/5),
			m.renderCharts(w-w*3/5-2),
		),
	)
}

func (m moneyModel) renderTotals(w int) string {
	t := m.money.Totals()
	net := successStyle
	if t.Net.IsNegative() {
		net = errorStyle
	}
	line := fmt.Sprintf("%s  %s  %s %s  %s %s  %s %s  %s %s",
		titleStyle.Render("Money"),
		highlightStyle.Render("‹ "+m.money.Month().String()+" ›"),
		mutedStyle.Render("income"), successStyle.Render(derive.FormatINR(t.Income)),
		mutedStyle.Render("expense"), errorStyle.Render(derive.FormatINR(t.Expense)),
		mutedStyle.Render("net"), net.Render(derive.FormatINR(t.Net)),
		mutedStyle.Render("invested"), accentStyle.Render(derive.FormatINR(t.Invested)),
	)
	if !t.Investment.IsZero() || !t.Lending.IsZero() || !t.Loan.IsZero() {
		line += "\n" + mutedStyle.Render(fmt.Sprintf("investment %s  lent %s  borrowed %s",
			derive.FormatINR(t.Investment), derive.FormatINR(t.Lending), derive.FormatINR(t.Loan)))
	}
	return panelStyle.Width(w).Render(line)
}

func (m moneyModel) renderTabs() string {
	var tabs []string
	for i, name := range moneyPaneNames {
		if moneyPane(i) == m.pane {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func txColor(t api.TxType) lipgloss.Style {
	switch t {
	case api.TxIncome:
		return successStyle
	case api.TxExpense:
		return errorStyle
	case api.TxInvestment:
		return accentStyle
	}
	return warningStyle
}

func (m moneyModel) renderPane(w int) string {
	rows := []string{m.renderTabs(), ""}
	n := m.rows()
	cursor := clamp(m.cursor, n)
	visible := max(m.height-16, 5)
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(start+visible, n)

	var help string
	switch m.pane {
	case paneTransactions:
		txs := m.money.Transactions()
		if n == 0 {
			rows = append(rows, mutedStyle.Render("No transactions this month."))
		}
		for i := start; i < end; i++ {
			tx := txs[i]
			line := fmt.Sprintf("%s%s  %-10s %s", cursorPrefix(i == cursor), mutedStyle.Render(tx.Date), tx.Type, truncate(tx.Category, 28))
			rows = append(rows, line+"  "+txColor(tx.Type).Render(derive.FormatINR(tx.Amount)))
		}
		help = hint("n: add", "e: edit", "d: delete", "←/→: month", "v: pane", "E: export")

	case paneCards:
		cards := m.money.Cards()
		if n == 0 {
			rows = append(rows, mutedStyle.Render("No cards. Press n to add one."))
		}
		for i := start; i < end; i++ {
			c := cards[i]
			util := derive.CardUtilization(c)
			line := fmt.Sprintf("%s%s %s  %s / %s  %s %d%%", cursorPrefix(i == cursor), dot(c.Color), truncate(c.Name, 18),
				derive.FormatINR(c.Used), derive.FormatINR(c.Limit), progressBar(util, 10), util)
			if c.DueDate > 0 {
				line += mutedStyle.Render(fmt.Sprintf("  due on %d", c.DueDate))
			}
			rows = append(rows, line)
			if i == cursor {
				for _, tx := range m.money.CardTransactions(c.ID) {
					rows = append(rows, mutedStyle.Render(fmt.Sprintf("      %s  %s  %s", tx.Date, truncate(derive.BaseCategory(tx.Category), 20), derive.FormatINR(tx.Amount))))
				}
			}
		}
		help = hint("n: add", "e: edit", "enter: pay bill", "d: delete", "v: pane")

	case paneLending:
		recs := m.money.Lending()
		if n == 0 {
			rows = append(rows, mutedStyle.Render("Nothing lent out."))
		}
		now := m.now()
		for i := start; i < end; i++ {
			r := recs[i]
			line := fmt.Sprintf("%s%s  lent %s  returned %s  %s", cursorPrefix(i == cursor), truncate(r.Borrower, 18),
				derive.FormatINR(r.TotalLent), derive.FormatINR(r.Returned), warningStyle.Render("owes "+derive.FormatINR(r.Outstanding)))
			if ds := derive.Deadline(r.DueDate, now); ds.Band != derive.BandNone && r.Outstanding.IsPositive() {
				line += "  " + bandStyle(ds.Band).Render(ds.Label())
			}
			rows = append(rows, line)
			if i == cursor {
				for _, ev := range r.History {
					rows = append(rows, mutedStyle.Render(fmt.Sprintf("      %s  %-6s %s  %s", ev.Date, ev.Type, derive.FormatINR(ev.Amount), ev.Notes)))
				}
			}
		}
		help = hint("n: lend", "enter: record return", "d: delete", "v: pane")

	case paneAssets:
		assets := m.money.Assets()
		total := decimal.Zero
		for _, a := range assets {
			total = total.Add(a.Amount)
		}
		for i := start; i < end; i++ {
			a := assets[i]
			pct := 0
			if total.IsPositive() {
				pct = int(a.Amount.Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
			}
			rows = append(rows, fmt.Sprintf("%s%s %-16s %12s  %s %d%%", cursorPrefix(i == cursor), dot(a.Color), truncate(assetLabel(a), 16),
				derive.FormatINR(a.Amount), progressBar(pct, 10), pct))
		}
		help = hint("e: edit amounts", "v: pane")
	}

	rows = append(rows, "", help)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m moneyModel) renderCharts(w int) string {
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Expenses by category"),
		expenseChart(m.money.Breakdown(), w, m.height/3),
		titleStyle.Render("Last 6 months"),
		monthlyChart(m.money.Series(6), w, m.height/3),
	))
}
