package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObjects struct {
	bucket string
	object string
	data   []byte
	err    error
}

func (s *stubObjects) ReadObject(_ context.Context, bucket, object string, _ int64) ([]byte, error) {
	s.bucket = bucket
	s.object = object
	return s.data, s.err
}

type countingFetcher struct {
	calls atomic.Int32
	data  []byte
}

func (f *countingFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	return f.data, nil
}

func TestExtractorPlainText(t *testing.T) {
	text, err := NewExtractor().Extract([]byte("  An essay about rivers.\n"))
	require.NoError(t, err)
	require.Equal(t, "An essay about rivers.", text)
}

func TestExtractorStripsHTML(t *testing.T) {
	text, err := NewExtractor().Extract([]byte("<html><body><p>Rivers &amp; lakes</p><script>alert(1)</script></body></html>"))
	require.NoError(t, err)
	require.Equal(t, "Rivers & lakes", text)
}

func TestExtractorRejectsEmptyAndBinary(t *testing.T) {
	extractor := NewExtractor()

	_, err := extractor.Extract([]byte("   \n\t"))
	require.ErrorIs(t, err, ErrEmptyContent)

	_, err = extractor.Extract([]byte("<html><body>   </body></html>"))
	require.ErrorIs(t, err, ErrEmptyContent)

	_, err = extractor.Extract([]byte{0x00, 0x01, 0x02, 0xff, 0xfe})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractorInvalidPDF(t *testing.T) {
	_, err := NewExtractor().Extract([]byte("%PDF-1.4\nnot really a pdf"))
	require.Error(t, err)
}

func TestRemoteFetcherHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.txt" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		_, _ = w.Write([]byte("file body"))
	}))
	defer server.Close()

	fetcher := NewRemoteFetcher(FetcherConfig{ServiceKey: "service-key", Logger: zerolog.Nop()})

	data, err := fetcher.Fetch(context.Background(), server.URL+"/essay.txt")
	require.NoError(t, err)
	require.Equal(t, "file body", string(data))

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing.txt")
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestRemoteFetcherHTTPLimitsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	fetcher := NewRemoteFetcher(FetcherConfig{MaxBytes: 4, Logger: zerolog.Nop()})

	data, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "0123", string(data))
}

func TestRemoteFetcherGCS(t *testing.T) {
	objects := &stubObjects{data: []byte("from bucket")}
	fetcher := NewRemoteFetcher(FetcherConfig{Objects: objects, Logger: zerolog.Nop()})

	data, err := fetcher.Fetch(context.Background(), "gs://submissions/course-1/essay.txt")
	require.NoError(t, err)
	require.Equal(t, "from bucket", string(data))
	require.Equal(t, "submissions", objects.bucket)
	require.Equal(t, "course-1/essay.txt", objects.object)

	_, err = fetcher.Fetch(context.Background(), "gs://submissions")
	require.Error(t, err)

	_, err = NewRemoteFetcher(FetcherConfig{Logger: zerolog.Nop()}).Fetch(context.Background(), "gs://b/o")
	require.Error(t, err)

	_, err = fetcher.Fetch(context.Background(), "ftp://host/file")
	require.Error(t, err)
}

func TestLoaderCachesExtractedText(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	fetcher := &countingFetcher{data: []byte("Cached essay text")}
	loader := NewLoader(fetcher, nil, client, 10*time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		text, err := loader.Load(context.Background(), "https://storage.example/essay.txt")
		require.NoError(t, err)
		require.Equal(t, "Cached essay text", text)
	}

	require.Equal(t, int32(1), fetcher.calls.Load())
	require.True(t, server.Exists(CacheKey("https://storage.example/essay.txt")))
	require.Greater(t, server.TTL(CacheKey("https://storage.example/essay.txt")), time.Duration(0))
}

func TestLoaderWithoutCache(t *testing.T) {
	fetcher := &countingFetcher{data: []byte("text")}
	loader := NewLoader(fetcher, NewExtractor(), nil, 0, zerolog.Nop())

	_, err := loader.Load(context.Background(), "https://storage.example/a.txt")
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), "https://storage.example/a.txt")
	require.NoError(t, err)
	require.Equal(t, int32(2), fetcher.calls.Load())

	_, err = loader.Load(context.Background(), " ")
	require.True(t, errors.Is(err, ErrEmptyContent))
}
