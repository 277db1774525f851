package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "price_history", []string{"price", "captured_at"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"price_history"}, []string{"platform", "product_id", "price"}).WillReturnResult(3)

	rows := [][]any{
		{"amazon", "B0TEST1", 999.0},
		{"ebay", "987654321", 949.0},
		{"walmart", "W1", 989.0},
	}
	n, err := CopyFrom(context.Background(), mock, "price_history", []string{"platform", "product_id", "price"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"price_history"}, []string{"price"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{999.0}}
	_, err = CopyFrom(context.Background(), mock, "price_history", []string{"price"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO price_history")
	assert.NoError(t, mock.ExpectationsWereMet())
}
