package xlsexport

import (
	"bytes"

	rewardshandler "farm-ops-backend/lib/rewards"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type Provider interface {
	ExportRewardsSummary(summary rewardshandler.Summary) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

const (
	totalsSheet = "Totals"
	ledgerSheet = "Ledger"
)

var (
	totalsHeaders = []string{"Staff", "User ID", "Credit", "Blocked", "Pending", "Debit", "Monthly max", "Remaining"}
	ledgerHeaders = []string{"Date", "User ID", "Task ID", "Credit", "Blocked", "Pending", "Debit", "Credit date", "Type"}
)

func (i impl) ExportRewardsSummary(summary rewardshandler.Summary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	f.SetSheetName("Sheet1", totalsSheet)
	if _, err := f.NewSheet(ledgerSheet); err != nil {
		return nil, errors.Wrap(err, "ошибка создания листа журнала")
	}

	row, err := writeHeader(f, totalsSheet, 0, totalsHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	if len(summary.Users) != 0 {
		if _, err = writeTotals(f, summary, row); err != nil {
			return nil, errors.Wrap(err, "ошибка формирования итогов в xlsx")
		}
	}

	row, err = writeHeader(f, ledgerSheet, 0, ledgerHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	if len(summary.Rows) != 0 {
		if _, err = writeLedger(f, summary, row); err != nil {
			return nil, errors.Wrap(err, "ошибка формирования журнала в xlsx")
		}
	}
	return f.WriteToBuffer()
}

func writeTotals(f *excelize.File, summary rewardshandler.Summary, row int) (int, error) {
	if err := applyDataCellStyle(f, totalsSheet, 1, row+1, len(totalsHeaders), row+len(summary.Users)); err != nil {
		return row, err
	}
	for _, item := range summary.Users {
		row++
		values := []interface{}{
			item.Name,
			item.UserID,
			item.Credit,
			item.Blocked,
			item.PointsPending,
			item.Debit,
			item.MaxMonthly,
			item.Remaining(),
		}
		if err := writeRow(f, totalsSheet, row, values); err != nil {
			return row, err
		}
	}
	return row, nil
}

func writeLedger(f *excelize.File, summary rewardshandler.Summary, row int) (int, error) {
	if err := applyDataCellStyle(f, ledgerSheet, 1, row+1, len(ledgerHeaders), row+len(summary.Rows)); err != nil {
		return row, err
	}
	for _, item := range summary.Rows {
		row++
		creditDate := ""
		if item.CreditDate != nil {
			creditDate = item.CreditDate.Format("2006-01-02")
		}
		values := []interface{}{
			item.CreatedAt.Format("2006-01-02 15:04"),
			item.UserID,
			item.TaskID,
			item.Credit,
			item.Blocked,
			item.PointsPending,
			item.Debit,
			creditDate,
			string(item.TransactionType),
		}
		if err := writeRow(f, ledgerSheet, row, values); err != nil {
			return row, err
		}
	}
	return row, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for idx, value := range values {
		if err := writeColumn(f, sheet, idx+1, row, value); err != nil {
			return err
		}
	}
	return nil
}
