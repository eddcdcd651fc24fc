package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/lending/api/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestIsRecordOf(t *testing.T) {
	t.Parallel()

	assert.True(t, isRecordOf("account:abc", tableAccount))
	assert.False(t, isRecordOf("account:", tableAccount))
	assert.False(t, isRecordOf("loan:abc", tableAccount))
	assert.False(t, isRecordOf("404", tableLoan))
}

func TestIsUniqueConstraintError(t *testing.T) {
	t.Parallel()

	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(fmt.Errorf("wrap: %w", database.ErrDuplicate)))
	assert.True(t, isUniqueConstraintError(errors.New("Database index `account_username_unique` already contains 'johndoe'")))
	assert.False(t, isUniqueConstraintError(errors.New("connection refused")))
}

func TestConvertSurrealID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "account:abc", convertSurrealID("account:abc"))
	assert.Equal(t, "loan:xyz", convertSurrealID(models.RecordID{Table: "loan", ID: "xyz"}))
	assert.Equal(t, "account:1", convertSurrealID(map[string]interface{}{"tb": "account", "id": map[string]interface{}{"String": "1"}}))
}

func TestUnwrapRecord(t *testing.T) {
	t.Parallel()

	record := map[string]interface{}{"id": "loan:1"}

	got, err := unwrapRecord(map[string]interface{}{"status": "OK", "result": []interface{}{record}})
	require.NoError(t, err)
	assert.Equal(t, "loan:1", got["id"])

	_, err = unwrapRecord(map[string]interface{}{"status": "OK", "result": []interface{}{}})
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = unwrapRecord(nil)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestExtractQueryResults(t *testing.T) {
	t.Parallel()

	rows := extractQueryResults([]interface{}{
		map[string]interface{}{"status": "OK", "result": []interface{}{
			map[string]interface{}{"id": "loan:1"},
			map[string]interface{}{"id": "loan:2"},
		}},
	})
	assert.Len(t, rows, 2)
	assert.Empty(t, extractQueryResults(nil))
}

func TestGetTime_Formats(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m := map[string]interface{}{
		"s":  want.Format(time.RFC3339),
		"t":  want,
		"dt": models.CustomDateTime{Time: want},
	}

	assert.True(t, getTime(m, "s").Equal(want))
	assert.True(t, getTime(m, "t").Equal(want))
	assert.True(t, getTime(m, "dt").Equal(want))
	assert.True(t, getTime(m, "missing").IsZero())
}

func TestParseLoan_InvalidAmount(t *testing.T) {
	t.Parallel()

	_, err := parseLoan(map[string]interface{}{"id": "loan:1", "amount": "lots"})
	assert.Error(t, err)
}
