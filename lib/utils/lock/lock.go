package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var (
	lockMap sync.Map
)

// WithDelay выполняет safeCode под ключом key, ожидая освобождения не дольше wait.
// success=false если ключ так и не удалось захватить.
func WithDelay(ctx context.Context, key string, wait time.Duration, safeCode func() error) (success bool, err error) {
	isLocked := false
	isTimeout := time.After(wait)
	for {
		if _, loaded := lockMap.LoadOrStore(key, true); !loaded {
			isLocked = true
			break
		}
		select {
		case <-isTimeout:
			return false, nil
		case <-ctx.Done():
			return false, nil
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}
	if isLocked {
		defer lockMap.Delete(key)
		return true, safeCode()
	}
	return false, nil
}

// MonthlyKey ключ блокировки начислений сотрудника за месяц
func MonthlyKey(prefix string, userID int64, month time.Time) string {
	return fmt.Sprintf("%s:%d:%s", prefix, userID, month.Format("2006-01"))
}
