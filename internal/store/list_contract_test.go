package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/expawatch/internal/model"
)

// checkListLimits asserts the List limit contract shared by every backend:
// a positive limit caps the result, zero or negative lists everything.
func checkListLimits(t *testing.T, s model.RecordStore) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"L1", "L2", "L3"} {
		_, err := s.InsertIfAbsent(ctx, applicationRecord(id))
		require.NoError(t, err)
	}

	for _, tc := range []struct {
		limit int
		want  int
	}{
		{limit: 2, want: 2},
		{limit: 3, want: 3},
		{limit: 10, want: 3},
		{limit: 0, want: 3},
		{limit: -1, want: 3},
	} {
		got, err := s.List(ctx, model.KindApplication, tc.limit)
		require.NoError(t, err, "limit=%d", tc.limit)
		assert.Len(t, got, tc.want, "limit=%d", tc.limit)
	}
}

func TestSQLite_ListLimitContract(t *testing.T) {
	checkListLimits(t, newTestStore(t))
}

func TestRedis_ListLimitContract(t *testing.T) {
	s, _ := newTestRedis(t)
	checkListLimits(t, s)
}

func TestPostgres_ListWithoutLimitOmitsClause(t *testing.T) {
	s, mock := newMockPostgres(t)
	unbounded := regexp.QuoteMeta("SELECT fetched_at, payload FROM applications ORDER BY fetched_at DESC, id") + "$"

	for _, limit := range []int{0, -1} {
		mock.ExpectQuery(unbounded).
			WithoutArgs().
			WillReturnRows(sqlmock.NewRows([]string{"fetched_at", "payload"}).
				AddRow("2026-03-05T08:00:00.000000000Z", `{"id":"A","kind":"application","created_at":"2026-03-01T00:00:00Z"}`))

		got, err := s.List(context.Background(), model.KindApplication, limit)
		require.NoError(t, err, "limit=%d", limit)
		require.Len(t, got, 1)
		assert.Equal(t, "A", got[0].ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
