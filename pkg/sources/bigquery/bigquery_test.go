package bigquery

import (
	"context"
	"errors"
	"strings"
	"testing"

	bq "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
)

func TestQuery(t *testing.T) {
	q := Query([]string{"pli", ".JCL", "jcl", "bms"}, 0)

	assert.Contains(t, q, "f.path LIKE '%.bms' OR f.path LIKE '%.jcl' OR f.path LIKE '%.pli'")
	assert.Equal(t, 1, strings.Count(q, "'%.jcl'"))
	assert.Contains(t, q, "NOT c.binary")
	assert.Contains(t, q, "c.size < 2000000")
	assert.Contains(t, q, "PARTITION BY id ORDER BY path DESC")
	assert.Contains(t, q, "LEFT JOIN `bigquery-public-data.github_repos.licenses`")
}

type sliceIterator struct {
	rows []queryRow
	err  error
}

func (s *sliceIterator) Next(dst interface{}) error {
	if len(s.rows) == 0 {
		if s.err != nil {
			return s.err
		}
		return iterator.Done
	}
	*dst.(*queryRow) = s.rows[0]
	s.rows = s.rows[1:]
	return nil
}

func ns(s string) bq.NullString { return bq.NullString{StringVal: s, Valid: true} }

func TestRows(t *testing.T) {
	var gotSQL string
	c := NewClientWithRunner(func(ctx context.Context, sql string) (RowIterator, error) {
		gotSQL = sql
		return &sliceIterator{rows: []queryRow{
			{RepoName: ns("acme/jobs"), Path: ns("a.jcl"), Content: ns("Ly8="), License: ns("mit")},
			{RepoName: ns("acme/jobs"), Path: ns("b.pli"), Content: ns("")},
		}}, nil
	})

	var rows []Row
	for row, err := range c.Rows(context.Background(), []string{"jcl", "pli"}) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "mit", rows[0].License)
	assert.Equal(t, "", rows[1].License)
	assert.Contains(t, gotSQL, "'%.pli'")
}

func TestRows_Errors(t *testing.T) {
	failing := NewClientWithRunner(func(ctx context.Context, sql string) (RowIterator, error) {
		return nil, errors.New("access denied")
	})
	for _, err := range failing.Rows(context.Background(), []string{"jcl"}) {
		assert.ErrorContains(t, err, "access denied")
	}

	broken := NewClientWithRunner(func(ctx context.Context, sql string) (RowIterator, error) {
		return &sliceIterator{rows: []queryRow{{Path: ns("a.jcl")}}, err: errors.New("quota")}, nil
	})
	var n int
	var last error
	for _, err := range broken.Rows(context.Background(), []string{"jcl"}) {
		n++
		last = err
	}
	assert.Equal(t, 2, n)
	assert.ErrorContains(t, last, "quota")
	assert.NoError(t, broken.Close())
}
