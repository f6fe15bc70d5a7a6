package rewardshandler

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"farm-ops-backend/db"
	activitystore "farm-ops-backend/lib/activity/store"
	"farm-ops-backend/lib/hierarchy"
	mediastore "farm-ops-backend/lib/media/store"
	rewardsstore "farm-ops-backend/lib/rewards/store"
	staffstore "farm-ops-backend/lib/staff/store"
	taskstore "farm-ops-backend/lib/task/store"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/lib/utils/helpers"
	"farm-ops-backend/lib/utils/lock"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AllocationStatus string

const (
	AllocationSuccess AllocationStatus = "success"
	AllocationFailure AllocationStatus = "failure"
	AllocationPending AllocationStatus = "pending"
)

const (
	ReasonAlreadyGranted   = "Reward already granted"
	ReasonNotCompleted     = "Task is not completed"
	ReasonAppealApprover   = "Appeal must be approved by the staff leader or grand leader"
	ReasonNotEligible      = "Staff is not eligible for rewards"
	ReasonIncompleteData   = "Task data is incomplete"
	ReasonNoMedia          = "No active media attached to the task"
	ReasonNoPoints         = "No points to allocate"
	ReasonStaffNotAssigned = "Staff is not assigned to the task"
	ReasonBusy             = "Allocation in progress, try again later"
)

type AllocationResult struct {
	Status  AllocationStatus `json:"status"`
	Reason  string           `json:"reason,omitempty"`
	Credit  float64          `json:"credit"`
	Blocked float64          `json:"blocked"`
}

func failure(reason string) AllocationResult {
	return AllocationResult{Status: AllocationFailure, Reason: reason}
}

type CompleterRole string

const (
	CompletedByOwner      CompleterRole = "owner"
	CompletedByAssistant  CompleterRole = "assistant"
	CompletedByThirdStaff CompleterRole = "third"
	CompletedByUnresolved CompleterRole = "unresolved"
)

// Calculation Points начисляются исполнившему, OwnerLoss блокируется у владельца задачи
type Calculation struct {
	Proportional float64
	Points       float64
	OwnerLoss    float64
	DaysLate     int
	Role         CompleterRole
	CompleterID  int64
}

type Provider interface {
	CalculatePoints(ctx context.Context, task dbmodels.Task) (Calculation, error)
	AllocatePoints(ctx context.Context, staff dbmodels.Staff, task dbmodels.Task, callerID int64) (AllocationResult, error)
	ApprovePoints(ctx context.Context, taskID, approverID int64) (hMsg string, err error)
	MonthlySummary(ctx context.Context, companyID, branchID int64, month time.Time) (Summary, error)
	AllocateTask(ctx context.Context, companyID, taskID, callerID int64) (result AllocationResult, hMsg string, err error)
	ApproveTask(ctx context.Context, companyID, taskID, approverID int64) (hMsg string, err error)
}

var Instance Provider

func NewHandler(lockWait time.Duration) {
	Instance = impl{
		db:          db.DB,
		hierarchies: hierarchy.Instance,
		lockWait:    lockWait,
		now:         utcNow,
	}
}

func NewHandlerWithTx(tx *gorm.DB, hierarchies hierarchy.Registry) Provider {
	return impl{
		db:          tx,
		hierarchies: hierarchies,
		lockWait:    10 * time.Second,
		now:         utcNow,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

type impl struct {
	db          *gorm.DB
	hierarchies hierarchy.Registry
	lockWait    time.Duration
	now         func() time.Time
}

func (i impl) GetLogger(taskID, userID int64) *log.Entry {
	logger := log.
		WithField("task_id", taskID).
		WithField("user_id", userID)
	return logger
}

var (
	entryRegexp = regexp.MustCompile(`\[[^\[\]]*\]`)
	mediaRegexp = regexp.MustCompile(`\[media=(\d+)\]`)
)

// CountEntries количество записей вида [...] в completeDetails
func CountEntries(completeDetails string) int {
	return len(entryRegexp.FindAllString(completeDetails, -1))
}

// MediaIDs идентификаторы вложений из записей [media=<id>]
func MediaIDs(completeDetails string) []int64 {
	ids := []int64{}
	for _, match := range mediaRegexp.FindAllStringSubmatch(completeDetails, -1) {
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (i impl) CalculatePoints(ctx context.Context, task dbmodels.Task) (Calculation, error) {
	if err := ctx.Err(); err != nil {
		return Calculation{}, err
	}
	calc := Calculation{Role: CompletedByUnresolved}

	proportional, err := i.proportionalShare(task)
	if err != nil {
		return Calculation{}, err
	}
	calc.Proportional = proportional

	completedAt := i.now()
	if task.CompletedDate != nil {
		completedAt = *task.CompletedDate
	}
	calc.DaysLate = helpers.DaysBetween(task.DueDate, completedAt)

	if task.CompletedByID != nil {
		completer, err := staffstore.NewInstance(i.db).Get(task.CompanyID, *task.CompletedByID)
		if err != nil {
			return Calculation{}, errors.Wrap(err, "ошибка получения исполнителя")
		}
		if completer != nil {
			calc.CompleterID = completer.UserID
			switch {
			case task.IsAssignee(completer.UserID):
				calc.Role = CompletedByOwner
			case task.IsAssistant(completer.UserID):
				calc.Role = CompletedByAssistant
			default:
				calc.Role = CompletedByThirdStaff
			}
		}
	}
	applyPenaltyCurve(&calc)
	return calc, nil
}

// proportionalShare доля месячного бюджета владельца задачи, приходящаяся на её активность
func (i impl) proportionalShare(task dbmodels.Task) (float64, error) {
	activity := task.ActivityOwner
	if activity == nil && task.ActivityOwnerID != nil {
		var err error
		activity, err = activitystore.NewInstance(i.db).GetByID(*task.ActivityOwnerID)
		if err != nil {
			return 0, errors.Wrap(err, "ошибка получения активности")
		}
	}
	if activity == nil {
		return 0, nil
	}
	assignee, err := staffstore.NewInstance(i.db).Get(task.CompanyID, task.AssignedToID)
	if err != nil {
		return 0, errors.Wrap(err, "ошибка получения владельца задачи")
	}
	if assignee == nil {
		return 0, nil
	}
	totalWeight, err := activitystore.NewInstance(i.db).TotalBranchWeight(task.BranchID)
	if err != nil {
		return 0, errors.Wrap(err, "ошибка расчёта веса активностей филиала")
	}
	if totalWeight <= 0 {
		return 0, nil
	}
	return assignee.MaxMonthlyPoints / totalWeight * activity.ImportanceScale, nil
}

type penaltyRule struct {
	graceDays   int
	boost       float64
	penaltyRate float64
	penaltyCap  float64
}

var penaltyRules = map[CompleterRole]penaltyRule{
	CompletedByOwner:      {graceDays: 1, boost: 1, penaltyRate: 0.1, penaltyCap: 0.5},
	CompletedByAssistant:  {graceDays: 3, boost: 1.1, penaltyRate: 0.1, penaltyCap: 0.5},
	CompletedByThirdStaff: {graceDays: 4, boost: 1.5, penaltyRate: 0.1, penaltyCap: 0.7},
}

func applyPenaltyCurve(calc *Calculation) {
	prop := calc.Proportional
	rule, ok := penaltyRules[calc.Role]
	if !ok {
		calc.Points = 0
		calc.OwnerLoss = helpers.Round2(prop)
		return
	}
	penaltyDays := calc.DaysLate - rule.graceDays
	switch calc.Role {
	case CompletedByOwner:
		penalty := 0.0
		if penaltyDays > 0 {
			penalty = min(rule.penaltyRate*prop*float64(penaltyDays), rule.penaltyCap*prop)
		}
		calc.Points = helpers.Round2(prop - penalty)
		calc.OwnerLoss = helpers.Round2(penalty)
	case CompletedByAssistant:
		if penaltyDays <= 0 {
			calc.Points = helpers.Round2(prop * rule.boost)
		} else {
			penalty := min(rule.penaltyRate*prop*float64(penaltyDays), rule.penaltyCap*prop)
			calc.Points = helpers.Round2(prop - penalty)
		}
		calc.OwnerLoss = calc.Points
	case CompletedByThirdStaff:
		boosted := prop * rule.boost
		penalty := 0.0
		if penaltyDays > 0 {
			penalty = min(rule.penaltyRate*boosted*float64(penaltyDays), rule.penaltyCap*boosted)
		}
		calc.Points = helpers.Round2(boosted - penalty)
		calc.OwnerLoss = calc.Points
	}
}

func (i impl) AllocatePoints(ctx context.Context, staff dbmodels.Staff, task dbmodels.Task, callerID int64) (AllocationResult, error) {
	logger := i.GetLogger(task.ID, staff.UserID)
	result, err := i.checkGates(ctx, staff, task, callerID)
	if err != nil || result != nil {
		if result != nil {
			logger.Infof("Начисление отклонено: %s", result.Reason)
			return *result, err
		}
		return AllocationResult{}, err
	}

	calc, err := i.CalculatePoints(ctx, task)
	if err != nil {
		return AllocationResult{}, err
	}

	now := i.now()
	var allocation AllocationResult
	ok, err := lock.WithDelay(ctx, lock.MonthlyKey("rewards", task.AssignedToID, now), i.lockWait, func() error {
		return i.db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			allocation, txErr = i.allocateTx(tx, staff, task.ID, calc, now)
			return txErr
		})
	})
	if err != nil {
		return AllocationResult{}, errors.Wrap(err, "ошибка начисления баллов")
	}
	if !ok {
		return failure(ReasonBusy), nil
	}
	logger.
		WithField("status", allocation.Status).
		WithField("credit", allocation.Credit).
		WithField("blocked", allocation.Blocked).
		Info("Начисление баллов по задаче")
	return allocation, nil
}

// checkGates проверки в порядке a-f, первая неудачная прерывает начисление
func (i impl) checkGates(ctx context.Context, staff dbmodels.Staff, task dbmodels.Task, callerID int64) (*AllocationResult, error) {
	fail := func(reason string) (*AllocationResult, error) {
		res := failure(reason)
		return &res, nil
	}
	if task.Status == models.TaskStatusRewardGranted {
		return fail(ReasonAlreadyGranted)
	}
	if !task.Status.IsRewardable() && task.Status != models.TaskStatusPending {
		return fail(ReasonNotCompleted)
	}
	if staff.UserID != task.AssignedToID || staff.CompanyID != task.CompanyID {
		return fail(ReasonStaffNotAssigned)
	}
	if task.Status == models.TaskStatusAppeal {
		if task.ApprovedByID == nil || *task.ApprovedByID != callerID {
			return fail(ReasonAppealApprover)
		}
		provider, ok := i.hierarchies.Get(i.taskDomain(task))
		if !ok {
			return fail(ReasonAppealApprover)
		}
		isLeader, err := provider.IsLeaderOrGrandLeader(ctx, task.CompanyID, staff.UserID, callerID)
		if err != nil {
			return nil, err
		}
		if !isLeader {
			return fail(ReasonAppealApprover)
		}
	}
	if !staff.RewardEligible {
		return fail(ReasonNotEligible)
	}
	if CountEntries(task.CompleteDetails) < task.DataQuantity {
		return fail(ReasonIncompleteData)
	}
	media, err := mediastore.NewInstance(i.db).ListActiveWithFile(MediaIDs(task.CompleteDetails))
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения вложений")
	}
	if len(media) == 0 {
		return fail(ReasonNoMedia)
	}
	return nil, nil
}

func (i impl) taskDomain(task dbmodels.Task) models.Domain {
	if task.Branch != nil && task.Branch.Domain.IsValid() {
		return task.Branch.Domain
	}
	return models.Domain(task.AppName)
}

func (i impl) allocateTx(tx *gorm.DB, staff dbmodels.Staff, taskID int64, calc Calculation, now time.Time) (AllocationResult, error) {
	// повторная проверка под блокировкой
	task, err := taskstore.NewInstance(tx).GetByID(taskID)
	if err != nil {
		return AllocationResult{}, err
	}
	if task == nil {
		return AllocationResult{}, apperrors.NewNotFound("task", taskID)
	}
	if task.Status == models.TaskStatusRewardGranted {
		return failure(ReasonAlreadyGranted), nil
	}
	rewards := rewardsstore.NewInstance(tx)
	existed, err := rewards.ListByTask(task.ID)
	if err != nil {
		return AllocationResult{}, err
	}
	if len(existed) > 0 {
		res := AllocationResult{Status: AllocationPending}
		for _, row := range existed {
			res.Credit += row.Credit + row.PointsPending
			res.Blocked += row.Blocked
		}
		if task.Status == models.TaskStatusPending {
			return res, nil
		}
		if err = RewardGranted(tx, task.ID); err != nil {
			return AllocationResult{}, err
		}
		res.Status = AllocationSuccess
		return res, nil
	}

	incoming := calc.OwnerLoss
	if calc.CompleterID == task.AssignedToID {
		incoming += calc.Points
	}
	from, to := helpers.MonthRange(now)
	used, err := rewards.MonthlyUsed(task.AssignedToID, from, to)
	if err != nil {
		return AllocationResult{}, err
	}
	if helpers.Round2(used+incoming) > staff.MaxMonthlyPoints {
		return failure(ReasonNoPoints), nil
	}

	pending := task.Status == models.TaskStatusPending
	completerID := calc.CompleterID
	if completerID == 0 {
		completerID = task.AssignedToID
	}
	err = LogPoints(tx, LedgerEntry{
		CompanyID:   task.CompanyID,
		BranchID:    task.BranchID,
		TaskID:      task.ID,
		CompleterID: completerID,
		AssigneeID:  task.AssignedToID,
		Points:      calc.Points,
		OwnerLoss:   calc.OwnerLoss,
		Pending:     pending,
		At:          now,
	})
	if err != nil {
		return AllocationResult{}, err
	}
	res := AllocationResult{Credit: calc.Points, Blocked: calc.OwnerLoss}
	if pending {
		res.Status = AllocationPending
		return res, nil
	}
	if err = RewardGranted(tx, task.ID); err != nil {
		return AllocationResult{}, err
	}
	res.Status = AllocationSuccess
	return res, nil
}

type LedgerEntry struct {
	CompanyID   int64
	BranchID    int64
	TaskID      int64
	CompleterID int64
	AssigneeID  int64
	Points      float64
	OwnerLoss   float64
	Pending     bool
	At          time.Time
}

// LogPoints всегда две строки merit: credit исполнившему и blocked владельцу задачи
func LogPoints(tx *gorm.DB, entry LedgerEntry) error {
	store := rewardsstore.NewInstance(tx)
	credit := dbmodels.RewardsPointsTracker{
		BaseCompanyModel: dbmodels.BaseCompanyModel{
			BaseModel: dbmodels.BaseModel{CreatedAt: entry.At},
			CompanyID: entry.CompanyID,
		},
		BranchID:        entry.BranchID,
		UserID:          entry.CompleterID,
		TaskID:          entry.TaskID,
		TransactionType: models.MeritTransaction,
	}
	if entry.Pending {
		credit.PointsPending = entry.Points
	} else {
		credit.Credit = entry.Points
		credit.CreditDate = &entry.At
	}
	if _, err := store.Create(credit); err != nil {
		return errors.Wrap(err, "ошибка записи начисления")
	}
	blocked := dbmodels.RewardsPointsTracker{
		BaseCompanyModel: dbmodels.BaseCompanyModel{
			BaseModel: dbmodels.BaseModel{CreatedAt: entry.At},
			CompanyID: entry.CompanyID,
		},
		BranchID:        entry.BranchID,
		UserID:          entry.AssigneeID,
		TaskID:          entry.TaskID,
		Blocked:         entry.OwnerLoss,
		CreditDate:      &entry.At,
		TransactionType: models.MeritTransaction,
	}
	if _, err := store.Create(blocked); err != nil {
		return errors.Wrap(err, "ошибка записи блокировки")
	}
	return nil
}

// RewardGranted конечный статус задачи
func RewardGranted(tx *gorm.DB, taskID int64) error {
	return taskstore.NewInstance(tx).Update(taskID, map[string]interface{}{
		"status": models.TaskStatusRewardGranted,
	})
}

func (i impl) ApprovePoints(ctx context.Context, taskID, approverID int64) (hMsg string, err error) {
	if err = ctx.Err(); err != nil {
		return "", err
	}
	task, err := taskstore.NewInstance(i.db).GetByID(taskID)
	if err != nil {
		return "", err
	}
	if task == nil {
		return "задача не найдена", nil
	}
	if task.Status != models.TaskStatusPending {
		return "задача не ожидает подтверждения", nil
	}
	now := i.now()
	var moved int64
	err = i.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		moved, txErr = rewardsstore.NewInstance(tx).MovePendingToCredit(taskID, now)
		if txErr != nil {
			return txErr
		}
		return taskstore.NewInstance(tx).Update(taskID, map[string]interface{}{
			"status":         models.TaskStatusCompleted,
			"approved_by_id": approverID,
			"approved_date":  now,
		})
	})
	if err != nil {
		return "", errors.Wrap(err, "ошибка подтверждения баллов")
	}
	i.GetLogger(taskID, approverID).
		WithField("moved_rows", moved).
		Info("Баллы по задаче подтверждены")
	return "", nil
}
