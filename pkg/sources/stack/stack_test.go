package stack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_ISO(t *testing.T) {
	cases := map[string]string{
		`"2017-05-12T14:45:11"`:         "2017-05-12T14:45:11",
		`"2017-05-12 14:45:11.250000"`:  "2017-05-12T14:45:11.250000",
		`"2017-05-12T14:45:11Z"`:        "2017-05-12T14:45:11+00:00",
		`"2017-05-12T14:45:11.5-05:30"`: "2017-05-12T14:45:11.500000-05:30",
		`1494600311000`:                 "2017-05-12T14:45:11",
		`null`:                          "",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(in), &ts))
			assert.Equal(t, want, ts.ISO())
		})
	}
}

func TestTimestamp_Garbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestDecode(t *testing.T) {
	s, err := Decode([]byte("MOVE A TO B."), "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "MOVE A TO B.", s)

	s, err = Decode([]byte{'c', 0xe9}, "latin-1")
	require.NoError(t, err)
	assert.Equal(t, "cé", s)

	s, err = Decode([]byte{0xc1}, "cp037")
	require.NoError(t, err)
	assert.Equal(t, "A", s)

	_, err = Decode([]byte{0xff, 0xfe}, "utf-8")
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = Decode([]byte("x"), "klingon-8")
	assert.Error(t, err)
}

type fakeObjects struct {
	objects map[string][]byte
	keys    []string
}

func (f *fakeObjects) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *params.Bucket+"/"+*params.Key)
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func gz(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestBlobFetcher_Fetch(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{
		"content/abc": gz(t, "       IDENTIFICATION DIVISION.\n"),
		"content/raw": []byte("not gzip"),
	}}
	f := NewBlobFetcher(objects, "", "")

	got, err := f.Fetch(context.Background(), "abc", "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "       IDENTIFICATION DIVISION.\n", got)
	assert.Equal(t, []string{"softwareheritage/content/abc"}, objects.keys)

	_, err = f.Fetch(context.Background(), "missing", "UTF-8")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "raw", "UTF-8")
	assert.Error(t, err)
}

func TestRowsClient_Pages(t *testing.T) {
	const total = 5
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		assert.Equal(t, "/rows", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		assert.Equal(t, "COBOL", r.URL.Query().Get("config"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		length, _ := strconv.Atoi(r.URL.Query().Get("length"))
		var rows []map[string]any
		for i := offset; i < offset+length && i < total; i++ {
			rows = append(rows, map[string]any{
				"row_idx": i,
				"row": map[string]any{
					"blob_id":        fmt.Sprintf("blob-%d", i),
					"path":           fmt.Sprintf("src/p%d.cbl", i),
					"committer_date": "2020-01-02T03:04:05",
				},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"rows": rows, "num_rows_total": total})
	}))
	defer srv.Close()

	c := NewRowsClient("hf_test")
	c.Endpoint = srv.URL
	c.PageSize = 2

	var ids []string
	for row, err := range c.Rows(context.Background(), "COBOL") {
		require.NoError(t, err)
		ids = append(ids, row.BlobID)
		assert.Equal(t, "2020-01-02T03:04:05", row.CommitterDate.ISO())
	}
	assert.Equal(t, []string{"blob-0", "blob-1", "blob-2", "blob-3", "blob-4"}, ids)
	assert.Len(t, requests, 3)
}

func TestRowsClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gated dataset", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewRowsClient("")
	c.Endpoint = srv.URL

	var errs int
	for _, err := range c.Rows(context.Background(), "REXX") {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
		errs++
	}
	assert.Equal(t, 1, errs)
}
