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
	n, err := CopyFrom(context.TODO(), nil, "panel_obs", []string{"economy", "industry"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"panel_obs"}, []string{"economy", "industry", "period"}).WillReturnResult(3)

	rows := [][]any{{"CA", "11", 1961}, {"CA", "21", 1961}, {"CA", "23", 1961}}
	n, err := CopyFrom(context.Background(), mock, "panel_obs", []string{"economy", "industry", "period"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"panel_obs"}, []string{"economy", "industry"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"CA", "11"}}
	_, err = CopyFrom(context.Background(), mock, "panel_obs", []string{"economy", "industry"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO panel_obs")
	assert.NoError(t, mock.ExpectationsWereMet())
}
