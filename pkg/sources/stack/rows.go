// Package stack reads file metadata from The Stack v2 and fetches blob
// contents from the Software Heritage object store.
package stack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDataset  = "bigcode/the-stack-v2-dedup"
	DefaultSplit    = "train"
	DefaultEndpoint = "https://datasets-server.huggingface.co"
	DefaultPageSize = 100
)

// Row is one metadata entry of the dataset. Content is not part of the row;
// it is fetched separately by blob id.
type Row struct {
	BlobID           string    `json:"blob_id"`
	SrcEncoding      string    `json:"src_encoding"`
	DetectedLicenses []string  `json:"detected_licenses"`
	LicenseType      string    `json:"license_type"`
	RepoName         string    `json:"repo_name"`
	Path             string    `json:"path"`
	Language         string    `json:"language"`
	Extension        string    `json:"extension"`
	BranchName       string    `json:"branch_name"`
	RevisionID       string    `json:"revision_id"`
	CommitterDate    Timestamp `json:"committer_date"`
}

type rowsPage struct {
	Rows []struct {
		RowIdx int `json:"row_idx"`
		Row    Row `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// RowsClient pages through the dataset viewer rows API. The dataset config
// is the language name, matching the data/<language> layout.
type RowsClient struct {
	HTTP     *http.Client
	Endpoint string
	Dataset  string
	Split    string
	Token    string
	PageSize int
}

// NewRowsClient returns a client with default endpoint, dataset and paging.
func NewRowsClient(token string) *RowsClient {
	return &RowsClient{
		HTTP:     &http.Client{Timeout: 60 * time.Second},
		Endpoint: DefaultEndpoint,
		Dataset:  DefaultDataset,
		Split:    DefaultSplit,
		Token:    token,
		PageSize: DefaultPageSize,
	}
}

// Rows yields every row of the language's partition in dataset order. The
// sequence stops after the first error.
func (c *RowsClient) Rows(ctx context.Context, language string) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		pageSize := c.PageSize
		if pageSize <= 0 {
			pageSize = DefaultPageSize
		}
		for offset := 0; ; {
			page, err := c.fetchPage(ctx, language, offset, pageSize)
			if err != nil {
				yield(Row{}, err)
				return
			}
			for _, r := range page.Rows {
				if !yield(r.Row, nil) {
					return
				}
			}
			offset += len(page.Rows)
			if len(page.Rows) == 0 || offset >= page.NumRowsTotal {
				return
			}
		}
	}
}

func (c *RowsClient) fetchPage(ctx context.Context, language string, offset, length int) (*rowsPage, error) {
	q := url.Values{}
	q.Set("dataset", c.Dataset)
	q.Set("config", language)
	q.Set("split", c.Split)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("length", strconv.Itoa(length))
	endpoint := strings.TrimRight(c.Endpoint, "/") + "/rows?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rows %s[%d:%d]: %w", language, offset, offset+length, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch rows %s[%d:%d]: status %d: %s",
			language, offset, offset+length, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page rowsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode rows page: %w", err)
	}
	return &page, nil
}
