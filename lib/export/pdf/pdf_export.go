package pdfexport

import (
	"bytes"
	"fmt"

	rewardshandler "farm-ops-backend/lib/rewards"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

var statementColumns = []struct {
	title string
	width float64
}{
	{"Date", 35},
	{"Task", 25},
	{"Credit", 30},
	{"Blocked", 30},
	{"Pending", 30},
	{"Debit", 30},
}

// GenerateStatement выписка начислений сотрудника за месяц
func GenerateStatement(companyName string, summary rewardshandler.Summary, userID int64) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("GenerateStatement panic recover: %v", r)
		}
	}()
	var user *rewardshandler.UserSummary
	for idx := range summary.Users {
		if summary.Users[idx].UserID == userID {
			user = &summary.Users[idx]
			break
		}
	}
	if user == nil {
		user = &rewardshandler.UserSummary{UserID: userID}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Points statement", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Points statement", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	_, lineHt := pdf.GetFontSize()
	lineHt += 2
	name := user.Name
	if name == "" {
		name = fmt.Sprintf("user #%d", userID)
	}
	header := []string{
		companyName,
		"Staff: " + name,
		fmt.Sprintf("Period: %s - %s", summary.From.Format("2006-01-02"), summary.To.AddDate(0, 0, -1).Format("2006-01-02")),
	}
	for _, line := range header {
		pdf.CellFormat(0, lineHt, pdf.UnicodeTranslatorFromDescriptor("")(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	for _, col := range statementColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range summary.Rows {
		if row.UserID != userID {
			continue
		}
		values := []string{
			row.CreatedAt.Format("2006-01-02"),
			fmt.Sprintf("#%d", row.TaskID),
			formatPoints(row.Credit),
			formatPoints(row.Blocked),
			formatPoints(row.PointsPending),
			formatPoints(row.Debit),
		}
		for idx, col := range statementColumns {
			align := "R"
			if idx < 2 {
				align = "L"
			}
			pdf.CellFormat(col.width, 7, values[idx], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	totals := []string{
		"Credit: " + formatPoints(user.Credit),
		"Blocked: " + formatPoints(user.Blocked),
		"Pending: " + formatPoints(user.PointsPending),
		"Monthly max: " + formatPoints(user.MaxMonthly),
		"Remaining: " + formatPoints(user.Remaining()),
	}
	for _, line := range totals {
		pdf.CellFormat(0, lineHt, line, "", 1, "L", false, 0, "")
	}
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}

	buf := new(bytes.Buffer)
	if err = pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatPoints(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
