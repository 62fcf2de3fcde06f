// Package source resolves image locators (file paths, data URIs and http(s)
// URLs) into decoded images.
package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupported is returned for locators with an unknown scheme.
	ErrUnsupported = errors.New("unsupported image locator")
	// ErrEmptyImage is returned when an image decodes to zero pixels.
	ErrEmptyImage = errors.New("image has no pixels")
)

// DefaultMaxBytes caps how much a single source may read.
const DefaultMaxBytes = 64 << 20

// Loader resolves a locator into an image. Implementations must honor ctx
// cancellation for anything that blocks.
type Loader interface {
	Load(ctx context.Context, locator string) (image.Image, error)
}

// Kind classifies a locator.
type Kind int

const (
	KindFile Kind = iota
	KindData
	KindHTTP
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindData:
		return "data"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// Classify returns the kind of locator.
func Classify(locator string) Kind {
	lower := strings.ToLower(locator)
	switch {
	case locator == "":
		return KindUnknown
	case strings.HasPrefix(lower, "data:"):
		return KindData
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindHTTP
	case strings.Contains(locator, "://"):
		return KindUnknown
	default:
		return KindFile
	}
}

// DefaultLoader loads from the filesystem, data URIs and http(s).
type DefaultLoader struct {
	Client   *http.Client
	MaxBytes int64
}

// NewLoader creates a loader whose HTTP requests time out after timeout.
func NewLoader(timeout time.Duration) *DefaultLoader {
	return &DefaultLoader{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: DefaultMaxBytes,
	}
}

// Load implements Loader.
func (l *DefaultLoader) Load(ctx context.Context, locator string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch Classify(locator) {
	case KindFile:
		data, err = l.readFile(locator)
	case KindData:
		data, err = DecodeDataURI(locator)
	case KindHTTP:
		data, err = l.fetch(ctx, locator)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, Describe(locator))
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", Describe(locator), err)
	}

	// Decoding a large image can take a while; drop it if nobody wants it anymore.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", Describe(locator), err)
	}
	return img, nil
}

func (l *DefaultLoader) maxBytes() int64 {
	if l.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return l.MaxBytes
}

func (l *DefaultLoader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f, l.maxBytes())
}

func (l *DefaultLoader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return readLimited(resp.Body, l.maxBytes())
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("source exceeds %d bytes", limit)
	}
	return data, nil
}

// DecodeDataURI returns the payload of a data URI
// ("data:[<mediatype>][;base64],<data>").
func DecodeDataURI(uri string) ([]byte, error) {
	if len(uri) < 5 || !strings.EqualFold(uri[:5], "data:") {
		return nil, fmt.Errorf("%w: not a data URI", ErrUnsupported)
	}
	meta, payload, ok := strings.Cut(uri[5:], ",")
	if !ok {
		return nil, errors.New("malformed data URI: missing ','")
	}

	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some producers strip padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("malformed data URI: %w", err)
		}
		return data, nil
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URI: %w", err)
	}
	return []byte(s), nil
}

// Decode decodes PNG, JPEG, GIF or WebP data and rejects empty images.
func Decode(r io.Reader) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = fmt.Errorf("decoder panic: %v", rec)
		}
	}()

	img, _, err = image.Decode(r)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	return img, nil
}

// Describe shortens a locator (typically a data URI) for logs and errors.
func Describe(locator string) string {
	const limit = 64
	if len(locator) <= limit {
		return locator
	}
	return locator[:limit] + "..."
}
