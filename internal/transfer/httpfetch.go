package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"retroref/internal/fileutil"
	"retroref/internal/services"
	"retroref/internal/sources"
)

// segmentThreshold is the minimum file size worth splitting into ranged
// sub-requests; below it a single GET is faster than the extra round trips.
const segmentThreshold = 8 << 20

// HTTPFetcher is the built-in backend. Local candidates are copied; remote
// candidates are downloaded, split into concurrent range requests when the
// server advertises support and the file is large enough.
type HTTPFetcher struct {
	Client      *http.Client
	Connections int
}

func (f *HTTPFetcher) Name() string { return "builtin" }

func (f *HTTPFetcher) Fetch(ctx context.Context, ref sources.CandidateRef, staging string) error {
	if err := fileutil.EnsureDir(filepath.Dir(staging)); err != nil {
		return err
	}
	if !ref.Remote() {
		_, err := fileutil.CopyFile(staging, ref.Path)
		return err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	size, ranged := f.probe(ctx, client, ref.URL)
	if ranged && size >= segmentThreshold && f.Connections > 1 {
		return f.fetchSegmented(ctx, client, ref.URL, staging, size)
	}
	return f.fetchWhole(ctx, client, ref.URL, staging)
}

// probe asks the server for the content length and range support. Any probe
// failure degrades to a plain GET.
func (f *HTTPFetcher) probe(ctx context.Context, client *http.Client, rawURL string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, false
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, false
	}
	return resp.ContentLength, resp.Header.Get("Accept-Ranges") == "bytes"
}

func (f *HTTPFetcher) fetchWhole(ctx context.Context, client *http.Client, rawURL, staging string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transfer", "fetch", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return transferStatusError(resp.StatusCode)
	}

	out, err := os.Create(staging)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(staging)
		return services.Wrap(services.ErrTransient, "transfer", "fetch", "body read failed", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(staging)
		return err
	}
	return out.Close()
}

// fetchSegmented downloads the file as Connections parallel range requests
// writing into one preallocated staging file. All segments must complete
// before the file is considered fetched.
func (f *HTTPFetcher) fetchSegmented(ctx context.Context, client *http.Client, rawURL, staging string, size int64) error {
	out, err := os.Create(staging)
	if err != nil {
		return err
	}
	if err := out.Truncate(size); err != nil {
		out.Close()
		os.Remove(staging)
		return err
	}

	segments := int64(f.Connections)
	chunk := (size + segments - 1) / segments

	g, gctx := errgroup.WithContext(ctx)
	for i := int64(0); i < segments; i++ {
		start := i * chunk
		if start >= size {
			break
		}
		end := start + chunk - 1
		if end >= size {
			end = size - 1
		}
		g.Go(func() error {
			return f.fetchRange(gctx, client, rawURL, out, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		out.Close()
		os.Remove(staging)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(staging)
		return err
	}
	return out.Close()
}

func (f *HTTPFetcher) fetchRange(ctx context.Context, client *http.Client, rawURL string, out *os.File, start, end int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	resp, err := client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transfer", "fetch-range", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return transferStatusError(resp.StatusCode)
	}
	_, err = io.Copy(io.NewOffsetWriter(out, start), io.LimitReader(resp.Body, end-start+1))
	if err != nil {
		return services.Wrap(services.ErrTransient, "transfer", "fetch-range", "body read failed", err)
	}
	return nil
}

// transferStatusError classifies an HTTP status: server-side and throttling
// statuses are retryable, everything else is not.
func transferStatusError(status int) error {
	err := fmt.Errorf("unexpected status %d (%s)", status, http.StatusText(status))
	if status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return services.Wrap(services.ErrTransient, "transfer", "fetch", strconv.Itoa(status), err)
	}
	return err
}
