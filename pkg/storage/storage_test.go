package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	if err := store.Put(ctx, "zorse/mainframe/data/train.jsonl", []byte("{}\n")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "zorse/mainframe/README.md", []byte("# card")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "zorse/mainframe/data/train.jsonl")
	if err != nil || string(got) != "{}\n" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	// Overwrites replace the object and leave no temp files behind.
	if err := store.Put(ctx, "zorse/mainframe/README.md", []byte("# card v2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err = store.Get(ctx, "zorse/mainframe/README.md")
	if err != nil || string(got) != "# card v2" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	entries, err := os.ReadDir(filepath.Join(store.Root, "zorse", "mainframe"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".put-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLocalStore_MissingKey(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Store_PrefixAndNotFound(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	store := NewS3Store(fake, "corpora", "hub/")

	if err := store.Put(ctx, "zorse/x/data/train.jsonl", []byte("{}\n")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := fake.objects["hub/zorse/x/data/train.jsonl"]; !ok {
		t.Errorf("object stored under wrong key: %v", fake.objects)
	}

	if _, err := store.Get(ctx, "zorse/y/data/train.jsonl"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key err = %v", err)
	}

	fake.getErr = &smithy.GenericAPIError{Code: "NotFound"}
	if _, err := store.Get(ctx, "anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("NotFound api error = %v", err)
	}

	fake.getErr = &smithy.GenericAPIError{Code: "AccessDenied"}
	if _, err := store.Get(ctx, "anything"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("AccessDenied should propagate, got %v", err)
	}
}
