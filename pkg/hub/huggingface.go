package hub

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/zorse-project/zorse/pkg/dataset"
)

const DefaultEndpoint = "https://huggingface.co"

// HuggingFace talks to the Hub HTTP API. Large files go through the LFS
// batch endpoint; small files are committed inline.
type HuggingFace struct {
	HTTP      *http.Client
	Endpoint  string
	Token     string
	UserAgent string
	Logger    *slog.Logger
}

func NewHuggingFace(token string) *HuggingFace {
	return &HuggingFace{
		HTTP:     &http.Client{Timeout: 30 * time.Minute},
		Endpoint: DefaultEndpoint,
		Token:    token,
		Logger:   slog.Default(),
	}
}

// APIError is a non-success response from the Hub.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

func (h *HuggingFace) URL(id string) string {
	return h.base() + "/datasets/" + id
}

func (h *HuggingFace) base() string {
	if h.Endpoint == "" {
		return DefaultEndpoint
	}
	return strings.TrimRight(h.Endpoint, "/")
}

func (h *HuggingFace) EnsureRepo(ctx context.Context, id string, private bool) error {
	body := map[string]any{
		"type":    "dataset",
		"name":    id,
		"private": private,
	}
	if ns, name, ok := strings.Cut(id, "/"); ok {
		body["organization"] = ns
		body["name"] = name
	}

	resp, err := h.doJSON(ctx, http.MethodPost, h.base()+"/api/repos/create", "application/json", body)
	if err != nil {
		return fmt.Errorf("create repo %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		h.logger().Info("created dataset repository", "repo", id, "private", private)
		return nil
	case http.StatusConflict:
		return nil
	default:
		return apiError("create repo "+id, resp)
	}
}

func (h *HuggingFace) Load(ctx context.Context, id string) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/datasets/%s/resolve/main/%s", h.base(), id, DataPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.do(req)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		rows, err := dataset.ReadRows(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", id, err)
		}
		return rows, nil
	case http.StatusNotFound:
		return nil, h.checkEmpty(ctx, id)
	default:
		return nil, apiError("load "+id, resp)
	}
}

// checkEmpty lists the repository when DataPath is missing. It returns
// ErrNotFound only when no data files are present.
func (h *HuggingFace) checkEmpty(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/api/datasets/%s/tree/main?recursive=true", h.base(), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := h.do(req)
	if err != nil {
		return fmt.Errorf("list %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// A freshly created repository has no main revision yet.
		return ErrNotFound
	default:
		return apiError("list "+id, resp)
	}

	var entries []struct {
		Type string `json:"type"`
		Path string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("list %s: %w", id, err)
	}
	var found []string
	for _, e := range entries {
		if e.Type == "file" && isDataFile(e.Path) {
			found = append(found, e.Path)
		}
	}
	if len(found) == 0 {
		return ErrNotFound
	}
	sort.Strings(found)
	return &LayoutError{Repo: id, Files: found}
}

type commitFile struct {
	path string
	data []byte
	oid  string
	lfs  bool
}

// Replace commits the data file and the dataset card in a single commit.
func (h *HuggingFace) Replace(ctx context.Context, id string, rows []json.RawMessage) error {
	card, err := DatasetCard(id, len(rows))
	if err != nil {
		return err
	}
	files := []*commitFile{
		{path: DataPath, data: dataset.EncodeRows(rows)},
		{path: "README.md", data: card},
	}
	for _, f := range files {
		sum := sha256.Sum256(f.data)
		f.oid = hex.EncodeToString(sum[:])
	}

	if err := h.preupload(ctx, id, files); err != nil {
		return err
	}
	for _, f := range files {
		if f.lfs {
			if err := h.uploadLFS(ctx, id, f); err != nil {
				return err
			}
		}
	}
	return h.commit(ctx, id, files, fmt.Sprintf("Update corpus (%d rows)", len(rows)))
}

func (h *HuggingFace) preupload(ctx context.Context, id string, files []*commitFile) error {
	type entry struct {
		Path   string `json:"path"`
		Sample string `json:"sample"`
		Size   int    `json:"size"`
	}
	payload := struct {
		Files []entry `json:"files"`
	}{}
	for _, f := range files {
		sample := f.data
		if len(sample) > 512 {
			sample = sample[:512]
		}
		payload.Files = append(payload.Files, entry{
			Path:   f.path,
			Sample: base64.StdEncoding.EncodeToString(sample),
			Size:   len(f.data),
		})
	}

	resp, err := h.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/api/datasets/%s/preupload/main", h.base(), id), "application/json", payload)
	if err != nil {
		return fmt.Errorf("preupload %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("preupload "+id, resp)
	}

	var out struct {
		Files []struct {
			Path       string `json:"path"`
			UploadMode string `json:"uploadMode"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("preupload %s: %w", id, err)
	}
	modes := make(map[string]string, len(out.Files))
	for _, f := range out.Files {
		modes[f.Path] = f.UploadMode
	}
	for _, f := range files {
		f.lfs = modes[f.path] == "lfs"
	}
	return nil
}

type lfsAction struct {
	Href   string            `json:"href"`
	Header map[string]string `json:"header"`
}

func (h *HuggingFace) uploadLFS(ctx context.Context, id string, f *commitFile) error {
	batch := map[string]any{
		"operation": "upload",
		"transfers": []string{"basic"},
		"hash_algo": "sha256",
		"objects":   []map[string]any{{"oid": f.oid, "size": len(f.data)}},
	}
	resp, err := h.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/datasets/%s.git/info/lfs/objects/batch", h.base(), id), "application/vnd.git-lfs+json", batch)
	if err != nil {
		return fmt.Errorf("lfs batch %s: %w", f.path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("lfs batch "+f.path, resp)
	}

	var out struct {
		Objects []struct {
			Actions map[string]lfsAction `json:"actions"`
			Error   *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"objects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("lfs batch %s: %w", f.path, err)
	}
	if len(out.Objects) != 1 {
		return fmt.Errorf("lfs batch %s: expected 1 object, got %d", f.path, len(out.Objects))
	}
	obj := out.Objects[0]
	if obj.Error != nil {
		return fmt.Errorf("lfs batch %s: %d %s", f.path, obj.Error.Code, obj.Error.Message)
	}

	upload, ok := obj.Actions["upload"]
	if !ok {
		// The server already has this object.
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, upload.Href, bytes.NewReader(f.data))
	if err != nil {
		return err
	}
	for k, v := range upload.Header {
		req.Header.Set(k, v)
	}
	req.ContentLength = int64(len(f.data))
	put, err := h.client().Do(req)
	if err != nil {
		return fmt.Errorf("lfs upload %s: %w", f.path, err)
	}
	defer put.Body.Close()
	if put.StatusCode/100 != 2 {
		return apiError("lfs upload "+f.path, put)
	}
	h.logger().Debug("uploaded lfs object", "path", f.path, "oid", f.oid, "bytes", len(f.data))

	verify, ok := obj.Actions["verify"]
	if !ok {
		return nil
	}
	vresp, err := h.doJSON(ctx, http.MethodPost, verify.Href, "application/vnd.git-lfs+json",
		map[string]any{"oid": f.oid, "size": len(f.data)})
	if err != nil {
		return fmt.Errorf("lfs verify %s: %w", f.path, err)
	}
	defer vresp.Body.Close()
	if vresp.StatusCode/100 != 2 {
		return apiError("lfs verify "+f.path, vresp)
	}
	return nil
}

func (h *HuggingFace) commit(ctx context.Context, id string, files []*commitFile, summary string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	lines := []any{map[string]any{"key": "header", "value": map[string]any{"summary": summary, "description": ""}}}
	for _, f := range files {
		if f.lfs {
			lines = append(lines, map[string]any{"key": "lfsFile", "value": map[string]any{
				"path": f.path, "algo": "sha256", "oid": f.oid, "size": len(f.data),
			}})
			continue
		}
		lines = append(lines, map[string]any{"key": "file", "value": map[string]any{
			"path": f.path, "encoding": "base64", "content": base64.StdEncoding.EncodeToString(f.data),
		}})
	}
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/datasets/%s/commit/main", h.base(), id), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	resp, err := h.do(req)
	if err != nil {
		return fmt.Errorf("commit %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return apiError("commit "+id, resp)
	}
	return nil
}

func (h *HuggingFace) doJSON(ctx context.Context, method, url, contentType string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if contentType != "application/json" {
		req.Header.Set("Accept", contentType)
	}
	return h.do(req)
}

func (h *HuggingFace) do(req *http.Request) (*http.Response, error) {
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	return h.client().Do(req)
}

func (h *HuggingFace) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *HuggingFace) client() *http.Client {
	if h.HTTP == nil {
		return http.DefaultClient
	}
	return h.HTTP
}

func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
