package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// MaxPayload caps the size of a fetched topology document
const MaxPayload = 64 << 20

// Fetcher retrieves the raw bytes of a topology document
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// FileFetcher reads local files. Relative paths resolve against BaseDir.
type FileFetcher struct {
	BaseDir string
}

// Path resolves a source to a file path
func (f *FileFetcher) Path(source string) string {
	if filepath.IsAbs(source) || f.BaseDir == "" {
		return source
	}
	return filepath.Join(f.BaseDir, source)
}

// Fetch reads the file named by source
func (f *FileFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.Path(source))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readLimited(file)
}

// HTTPFetcher performs GET requests
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: timeout},
	}
}

// Fetch GETs the URL and returns the body of a 200 response
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return readLimited(resp.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPayload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxPayload {
		return nil, fmt.Errorf("document larger than %d bytes", MaxPayload)
	}
	return data, nil
}
