package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/store"
)

type monthExport struct {
	ExportedAt   string            `json:"exported_at"`
	Month        string            `json:"month"`
	Count        int               `json:"count"`
	Income       decimal.Decimal   `json:"income"`
	Expense      decimal.Decimal   `json:"expense"`
	Net          decimal.Decimal   `json:"net"`
	Transactions []jsonTransaction `json:"transactions"`
}

type jsonTransaction struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Payment  string          `json:"payment,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}

// TransactionsJSON writes the month's transactions with income and expense
// totals. txs are expected to be filtered to month already.
func TransactionsJSON(txs []api.Transaction, month derive.Month, path string) error {
	totals := derive.Totals(txs, nil)
	export := monthExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Month:      month.String(),
		Count:      len(txs),
		Income:     totals.Income,
		Expense:    totals.Expense,
		Net:        totals.Net,
	}

	for _, tx := range txs {
		base, method := derive.SplitCategory(tx.Category)
		export.Transactions = append(export.Transactions, jsonTransaction{
			ID:       tx.ID,
			Date:     tx.Date,
			Type:     string(tx.Type),
			Category: base,
			Payment:  method,
			Amount:   tx.Amount,
		})
	}

	return writeJSON(export, path)
}

type sessionExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Project     string `json:"project,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
	CompletedAt string `json:"completed_at"`
	DurationSec int    `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Synced      bool   `json:"synced"`
}

// SessionsJSON writes the local pomodoro log.
func SessionsJSON(sessions []store.SessionRecord, projects map[string]string, path string) error {
	export := sessionExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}
	for _, s := range sessions {
		export.Sessions = append(export.Sessions, jsonSession{
			ID:          s.ID,
			Type:        s.Type,
			Project:     projectName(projects, s.ProjectID),
			ProjectID:   s.ProjectID,
			CompletedAt: s.CompletedAt.Local().Format(time.RFC3339),
			DurationSec: s.Duration,
			Duration:    formatDuration(int64(s.Duration)),
			Synced:      s.Synced,
		})
	}
	return writeJSON(export, path)
}

func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
