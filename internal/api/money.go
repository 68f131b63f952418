package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

func itoa(n int) string { return strconv.Itoa(n) }

func monthQuery(month, year int) url.Values {
	q := url.Values{}
	if month > 0 && year > 0 {
		q.Set("month", itoa(month))
		q.Set("year", itoa(year))
	}
	return q
}

// MoneyData returns every card, transaction, asset and lending record.
func (c *Client) MoneyData(ctx context.Context) (MoneyData, error) {
	var out MoneyData
	err := c.get(ctx, "/money/data", nil, &out)
	return out, err
}

func (c *Client) MoneySummary(ctx context.Context, month, year int) (MoneySummary, error) {
	var out MoneySummary
	err := c.get(ctx, "/money/summary", monthQuery(month, year), &out)
	return out, err
}

func (c *Client) Transactions(ctx context.Context, month, year, skip, limit int) (TransactionPage, error) {
	q := monthQuery(month, year)
	q.Set("skip", itoa(skip))
	if limit > 0 {
		q.Set("limit", itoa(limit))
	}
	var out TransactionPage
	err := c.get(ctx, "/money/transactions/paginated", q, &out)
	return out, err
}

func (c *Client) CreateTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	var out Transaction
	err := c.post(ctx, "/money/transactions", tx, &out)
	return out, err
}

func (c *Client) UpdateTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	if err := requireID(tx.ID); err != nil {
		return Transaction{}, err
	}
	var out Transaction
	err := c.put(ctx, "/money/transactions/"+escape(tx.ID), tx, &out)
	return out, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/money/transactions/"+escape(id))
}

func (c *Client) CreateCard(ctx context.Context, card CreditCard) (CreditCard, error) {
	var out CreditCard
	err := c.post(ctx, "/money/cards", card, &out)
	return out, err
}

func (c *Client) UpdateCard(ctx context.Context, card CreditCard) (CreditCard, error) {
	if err := requireID(card.ID); err != nil {
		return CreditCard{}, err
	}
	var out CreditCard
	err := c.put(ctx, "/money/cards/"+escape(card.ID), card, &out)
	return out, err
}

func (c *Client) DeleteCard(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/money/cards/"+escape(id))
}

func (c *Client) CreateLending(ctx context.Context, r LendingRecord) (LendingRecord, error) {
	var out LendingRecord
	err := c.post(ctx, "/money/lending", r, &out)
	return out, err
}

func (c *Client) UpdateLending(ctx context.Context, r LendingRecord) (LendingRecord, error) {
	if err := requireID(r.ID); err != nil {
		return LendingRecord{}, err
	}
	var out LendingRecord
	err := c.put(ctx, "/money/lending/"+escape(r.ID), r, &out)
	return out, err
}

// AdjustLending sets a record's total. The server logs the increase as a
// lend event dated date with notes.
func (c *Client) AdjustLending(ctx context.Context, id string, totalLent decimal.Decimal, date, notes string) (LendingRecord, error) {
	if err := requireID(id); err != nil {
		return LendingRecord{}, err
	}
	body := struct {
		TotalLent decimal.Decimal `json:"total_lent"`
		Date      string          `json:"date"`
		Notes     string          `json:"notes"`
	}{totalLent, date, notes}
	var out LendingRecord
	err := c.put(ctx, "/money/lending/"+escape(id), body, &out)
	return out, err
}

func (c *Client) RecordLendingReturn(ctx context.Context, id string, ev LendingEvent) (LendingRecord, error) {
	if err := requireID(id); err != nil {
		return LendingRecord{}, err
	}
	var out LendingRecord
	err := c.post(ctx, "/money/lending/"+escape(id)+"/return", ev, &out)
	return out, err
}

func (c *Client) DeleteLending(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/money/lending/"+escape(id))
}

type assetAmount struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// UpdateAssets sets allocation amounts by asset type.
func (c *Client) UpdateAssets(ctx context.Context, assets []Asset) ([]Asset, error) {
	body := make([]assetAmount, 0, len(assets))
	for _, a := range assets {
		body = append(body, assetAmount{Type: a.Type, Amount: a.Amount})
	}
	var out []Asset
	err := c.put(ctx, "/money/assets", body, &out)
	return out, err
}
