package repository

import (
	"math/rand"
	"strings"
	"time"

	"SafeCircle/pkg/errors"

	"gorm.io/gorm"
)

// runInTx 在事务中执行 fn，遇到数据库写冲突时做有限次指数退避重试。
// 镜像双边写入依赖它来保证两条边要么都更新要么都不更新。
func runInTx(db *gorm.DB, retries int, fn func(tx *gorm.DB) error) error {
	if retries < 1 {
		retries = 1
	}
	var err error
	for attempt := 0; attempt < retries; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond
		backoff += time.Duration(rand.Int63n(int64(10 * time.Millisecond)))
		time.Sleep(backoff)
	}
	// 重试耗尽仍在争用，对外按冲突上报
	return errors.Conflict("storage contention: %v", err)
}

func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "serialization failure") ||
		strings.Contains(msg, "could not serialize")
}
