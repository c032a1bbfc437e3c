package repository

import (
	"testing"

	"SafeCircle/pkg/errors"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestRunInTxContentionMapsToConflict(t *testing.T) {
	db := newTestDB(t)

	calls := 0
	err := runInTx(db, 2, func(tx *gorm.DB) error {
		calls++
		return errors.Unavailable("update edge: database is locked")
	})
	// 重试耗尽后对外是冲突，不再带驱动层的 Unavailable
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, 2, calls)
}

func TestRunInTxNonRetryablePassesThrough(t *testing.T) {
	db := newTestDB(t)

	calls := 0
	err := runInTx(db, 3, func(tx *gorm.DB) error {
		calls++
		return errors.NotFound("no such edge")
	})
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 1, calls)
}
