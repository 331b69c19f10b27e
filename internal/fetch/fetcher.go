// Package fetch downloads source archives and decodes their CSV member.
package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"

	"factorcli/internal/config"
	"factorcli/internal/errors"
)

// Fetcher performs bounded, politely spaced HTTP downloads. A failed
// fetch is never retried; the caller decides whether an alternative
// source exists.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// New creates a Fetcher from HTTP configuration.
func New(cfg config.HTTPConfig, logger *slog.Logger) *Fetcher {
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Fetch downloads a URL and returns the raw response body. Non-success
// status codes are failures.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errors.NewFetchError(url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetchError(url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	f.logger.Info("Downloading archive", slog.String("url", url))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.NewFetchError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewFetchError(url, fmt.Errorf("unexpected status %s", resp.Status)).
			WithContext("status_code", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewFetchError(url, err)
	}

	f.logger.Info("Archive downloaded",
		slog.String("url", url),
		slog.Int("bytes", len(body)))

	return body, nil
}

// FetchArchiveText downloads a ZIP archive and returns the decoded text of
// its first CSV member. Archive members are Latin-1 encoded; decoding is
// lossy by design since footnote text may carry stray bytes.
func (f *Fetcher) FetchArchiveText(ctx context.Context, url string) (string, error) {
	raw, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := ExtractCSVMember(raw)
	if err != nil {
		var be *errors.BuildError
		if stderrors.As(err, &be) {
			be.WithContext("url", url)
		}
		return "", err
	}
	return text, nil
}

// ExtractCSVMember opens a ZIP archive in memory and decodes the first
// member whose name ends in .csv, first match wins.
func ExtractCSVMember(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", errors.Wrap(errors.CodeArchiveInvalid, "downloaded payload is not a ZIP archive", err)
	}

	for _, member := range zr.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return "", errors.Wrap(errors.CodeArchiveInvalid, "failed to open archive member", err).
				WithContext("member", member.Name)
		}
		defer rc.Close()

		decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(rc))
		if err != nil {
			return "", errors.Wrap(errors.CodeArchiveInvalid, "failed to decode archive member", err).
				WithContext("member", member.Name)
		}
		return string(decoded), nil
	}

	return "", errors.New(errors.CodeArchiveInvalid, "archive contains no CSV member")
}
