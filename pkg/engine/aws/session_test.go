package aws

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
}

func TestNewClient_EndpointOverrideAndMiddleware(t *testing.T) {
	isolate(t)

	var gotPath, gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("blob"))
	}))
	defer srv.Close()
	t.Setenv("AWS_ENDPOINT_URL", srv.URL)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, err := NewClient(context.Background(), Options{
		Region:    "eu-west-1",
		Anonymous: true,
		Verbose:   true,
		UserAgent: "zorse/test",
		Logger:    logger,
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", client.Config.Region)

	out, err := client.S3.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String("softwareheritage"),
		Key:    aws.String("content/abc"),
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(out.Body)
	out.Body.Close()

	assert.Equal(t, "blob", string(body))
	assert.Equal(t, "/softwareheritage/content/abc", gotPath)
	assert.Contains(t, gotUA, "zorse/test")
	assert.Empty(t, gotAuth)
	assert.Contains(t, logs.String(), "operation=GetObject")
}

func TestLoadConfig_QuietByDefault(t *testing.T) {
	isolate(t)
	t.Setenv("AWS_ENDPOINT_URL", "")

	quiet, err := LoadConfig(context.Background(), Options{Region: "us-east-1", Anonymous: true})
	require.NoError(t, err)
	verbose, err := LoadConfig(context.Background(), Options{Region: "us-east-1", Anonymous: true, Verbose: true})
	require.NoError(t, err)

	assert.Nil(t, quiet.BaseEndpoint)
	assert.Len(t, verbose.APIOptions, len(quiet.APIOptions)+1)
}
