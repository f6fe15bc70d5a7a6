package xlsexport

import (
	"testing"
	"time"

	rewardshandler "farm-ops-backend/lib/rewards"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportRewardsSummary(t *testing.T) {
	created := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	summary := rewardshandler.Summary{
		Users: []rewardshandler.UserSummary{
			{UserID: 2, Name: "Owner Farm", Credit: 40, Blocked: 10, MaxMonthly: 1000},
		},
		Rows: []dbmodels.RewardsPointsTracker{
			{
				BaseCompanyModel: dbmodels.BaseCompanyModel{BaseModel: dbmodels.BaseModel{CreatedAt: created}},
				UserID:           2,
				TaskID:           7,
				Credit:           40,
				CreditDate:       &created,
				TransactionType:  models.MeritTransaction,
			},
		},
	}
	buf, err := impl{}.ExportRewardsSummary(summary)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue(totalsSheet, "A2")
	require.NoError(t, err)
	require.Equal(t, "Owner Farm", value)
	value, err = f.GetCellValue(totalsSheet, "H2")
	require.NoError(t, err)
	require.Equal(t, "950", value)

	value, err = f.GetCellValue(ledgerSheet, "C2")
	require.NoError(t, err)
	require.Equal(t, "7", value)
	value, err = f.GetCellValue(ledgerSheet, "H2")
	require.NoError(t, err)
	require.Equal(t, "2024-06-15", value)
}
