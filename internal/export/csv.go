package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/store"
)

// TransactionsCSV writes one row per transaction. The payment method suffix
// is split out of the category into its own column.
func TransactionsCSV(txs []api.Transaction, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Date", "Type", "Category", "Payment", "Amount"}); err != nil {
		return err
	}

	for _, tx := range txs {
		base, method := derive.SplitCategory(tx.Category)
		row := []string{
			tx.ID,
			tx.Date,
			string(tx.Type),
			base,
			method,
			tx.Amount.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// SessionsCSV writes the local pomodoro log. projects maps project ids to
// names; unknown ids are written as "Unknown" and empty ones left blank.
func SessionsCSV(sessions []store.SessionRecord, projects map[string]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Type", "Project", "Completed", "Duration (s)", "Duration", "Synced"}); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			strconv.FormatInt(s.ID, 10),
			s.Type,
			projectName(projects, s.ProjectID),
			s.CompletedAt.Local().Format(time.RFC3339),
			strconv.Itoa(s.Duration),
			formatDuration(int64(s.Duration)),
			strconv.FormatBool(s.Synced),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func projectName(projects map[string]string, id string) string {
	if id == "" {
		return ""
	}
	if name, ok := projects[id]; ok {
		return name
	}
	return "Unknown"
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
