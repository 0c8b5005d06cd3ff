// Package download streams remote media into scoped temporary files.
package download

import (
	"ExpressionAPI/pkg/tmpstore"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"
)

const (
	ChunkSize  = 8192
	DefaultExt = ".mp4"
)

var ErrBadStatus = errors.New("unexpected response status")

type IFetcher interface {
	ToFile(ctx context.Context, rawURL string) (*tmpstore.File, error)
}

type fetcher struct {
	client *http.Client
	store  tmpstore.IStore
}

func New(store tmpstore.IStore) IFetcher {
	return NewWithClient(&http.Client{Timeout: 10 * time.Minute}, store)
}

func NewWithClient(client *http.Client, store tmpstore.IStore) IFetcher {
	return &fetcher{client: client, store: store}
}

// ToFile downloads rawURL into a fresh temporary file. The caller releases
// the returned file; on error nothing is left on disk.
func (f *fetcher) ToFile(ctx context.Context, rawURL string) (*tmpstore.File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s for url %s", ErrBadStatus, resp.Status, rawURL)
	}

	file, err := f.store.Acquire(ExtensionOf(rawURL))
	if err != nil {
		return nil, err
	}

	if _, err := file.Fill(resp.Body, ChunkSize); err != nil {
		file.Release()
		return nil, err
	}

	if err := file.Sync(); err != nil {
		file.Release()
		return nil, err
	}

	return file, nil
}

// ExtensionOf takes the extension of the last path segment of rawURL,
// falling back to DefaultExt.
func ExtensionOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultExt
	}
	ext := path.Ext(path.Base(u.Path))
	if ext == "" || ext == "." {
		return DefaultExt
	}
	return ext
}
