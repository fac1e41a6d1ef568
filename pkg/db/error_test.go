package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type uniqueRow struct {
	ID   int64  `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex"`
}

func TestIsDuplicateKeyErrSQLite(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file:dupkey?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&uniqueRow{}))

	require.NoError(t, gdb.Create(&uniqueRow{ID: 1, Code: "CG-12520"}).Error)
	err = gdb.Create(&uniqueRow{ID: 2, Code: "CG-12520"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKeyErr(err))
}

func TestIsDuplicateKeyErrByMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm sentinel", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm sentinel", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "ux_dim_customer_customer_id" (SQLSTATE 23505)`), true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry 'CG-12520' for key 'ux_dim_customer_customer_id'"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}
