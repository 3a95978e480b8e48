package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
)

const defaultMaxBytes = 20 << 20

// ErrFileNotFound indicates the submission file does not exist in storage.
var ErrFileNotFound = errors.New("submission file not found")

// Fetcher downloads the raw bytes behind a submission file URL.
type Fetcher interface {
	Fetch(ctx context.Context, fileURL string) ([]byte, error)
}

// ObjectReader reads an object from a bucket.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, object string, limit int64) ([]byte, error)
}

// GCSReader reads objects from Google Cloud Storage.
type GCSReader struct {
	client *storage.Client
}

// NewGCSReader wraps an existing storage client.
func NewGCSReader(client *storage.Client) *GCSReader {
	return &GCSReader{client: client}
}

// ReadObject returns at most limit bytes of the object.
func (r *GCSReader) ReadObject(ctx context.Context, bucket, object string, limit int64) ([]byte, error) {
	reader, err := r.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, limit))
	if err != nil {
		return nil, fmt.Errorf("reading object data: %w", err)
	}
	return data, nil
}

// FetcherConfig configures RemoteFetcher.
type FetcherConfig struct {
	HTTPClient *http.Client
	// ServiceKey is sent as a bearer token to the managed storage REST API.
	ServiceKey string
	// Objects serves gs:// URLs; nil disables them.
	Objects  ObjectReader
	MaxBytes int64
	Logger   zerolog.Logger
}

// RemoteFetcher resolves gs:// URLs through an ObjectReader and http(s) URLs with GET.
type RemoteFetcher struct {
	cfg    FetcherConfig
	client *http.Client
	logger zerolog.Logger
}

// NewRemoteFetcher constructs a fetcher.
func NewRemoteFetcher(cfg FetcherConfig) *RemoteFetcher {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &RemoteFetcher{
		cfg:    cfg,
		client: client,
		logger: cfg.Logger.With().Str("component", "content_fetcher").Logger(),
	}
}

// Fetch downloads the file.
func (f *RemoteFetcher) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(fileURL))
	if err != nil {
		return nil, fmt.Errorf("parsing file url: %w", err)
	}

	switch parsed.Scheme {
	case "gs":
		if f.cfg.Objects == nil {
			return nil, fmt.Errorf("gs:// urls are not configured")
		}
		object := strings.TrimPrefix(parsed.Path, "/")
		if parsed.Host == "" || object == "" {
			return nil, fmt.Errorf("invalid gs url %q", fileURL)
		}
		return f.cfg.Objects.ReadObject(ctx, parsed.Host, object, f.cfg.MaxBytes)
	case "http", "https":
		return f.fetchHTTP(ctx, parsed.String())
	default:
		return nil, fmt.Errorf("unsupported file url scheme %q", parsed.Scheme)
	}
}

func (f *RemoteFetcher) fetchHTTP(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.cfg.ServiceKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.ServiceKey)
		req.Header.Set("apikey", f.cfg.ServiceKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrFileNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn().Int("status", resp.StatusCode).Str("url", target).Msg("file download failed")
		return nil, fmt.Errorf("downloading file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}
