package stack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	DefaultBucket = "softwareheritage"
	DefaultPrefix = "content/"
)

// ObjectAPI is the subset of the S3 client the fetcher needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// BlobFetcher downloads gzip-compressed blobs and decodes them to text.
type BlobFetcher struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewBlobFetcher returns a fetcher reading <prefix><id> from bucket.
func NewBlobFetcher(client ObjectAPI, bucket, prefix string) *BlobFetcher {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &BlobFetcher{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a blob id.
func (f *BlobFetcher) Key(id string) string {
	return f.prefix + id
}

// Fetch downloads the blob and decodes it with the named encoding. Any
// failure (missing object, bad gzip stream, unknown or mismatched encoding)
// is returned as an error.
func (f *BlobFetcher) Fetch(ctx context.Context, id, enc string) (string, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.Key(id)),
	})
	if err != nil {
		return "", fmt.Errorf("get s3://%s/%s: %w", f.bucket, f.Key(id), err)
	}
	defer out.Body.Close()

	zr, err := gzip.NewReader(out.Body)
	if err != nil {
		return "", fmt.Errorf("gunzip %s: %w", id, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("gunzip %s: %w", id, err)
	}
	return Decode(raw, enc)
}

// ErrInvalidUTF8 is returned when bytes declared as UTF-8 are not.
var ErrInvalidUTF8 = errors.New("invalid utf-8")

// Decode converts raw bytes in the named encoding to a string. An empty name
// means UTF-8. UTF-8 input is validated strictly.
func Decode(raw []byte, name string) (string, error) {
	e, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	if e == nil {
		if !utf8.Valid(raw) {
			return "", ErrInvalidUTF8
		}
		return string(raw), nil
	}
	out, err := e.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

// lookupEncoding returns nil for UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf-8", "utf8", "ascii", "us-ascii":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	}
	if e, err := ianaindex.IANA.Encoding(n); err == nil && e != nil {
		return e, nil
	}
	if e, err := htmlindex.Get(n); err == nil {
		return e, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}
