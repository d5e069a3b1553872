package glimpse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// ErrNotFound reports a static-file origin whose path does not exist.
var ErrNotFound = errors.New("origin not found")

// ErrTimeout reports a fetch that did not complete within the widget's
// timeout.
var ErrTimeout = errors.New("fetch timed out")

// HTTPError reports a non-2xx response from an http origin.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("origin returned status %d", e.Status)
	}
	return fmt.Sprintf("origin returned status %d: %s", e.Status, e.Body)
}

// sourceAdapter fetches and parses raw data for widgets. It holds no per-widget
// state; concurrent calls for different widgets are independent.
type sourceAdapter struct {
	httpClient *http.Client
}

func newSourceAdapter() *sourceAdapter {
	// Per-fetch deadlines come from the caller's context; the client itself
	// carries no timeout so a widget's setting is the only limit.
	return &sourceAdapter{httpClient: &http.Client{}}
}

// Fetch retrieves and parses one widget's payload, honoring spec.Timeout.
// Errors are one of ErrNotFound, ErrTimeout, *HTTPError, or *ParseError.
func (a *sourceAdapter) Fetch(ctx context.Context, spec WidgetSpec) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	var raw []byte
	var err error
	if spec.File != "" {
		raw, err = a.fetchFile(spec.File)
	} else {
		raw, err = a.fetchHTTP(ctx, spec)
	}
	if err != nil {
		return Payload{}, err
	}
	return ParsePayload(spec.Shape, raw)
}

func (a *sourceAdapter) fetchFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return b, nil
}

func (a *sourceAdapter) fetchHTTP(ctx context.Context, spec WidgetSpec) ([]byte, error) {
	originURL, err := originURLWithQuery(spec)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, originURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, spec.Timeout)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, spec.Timeout)
		}
		return nil, err
	}
	return body, nil
}

func originURLWithQuery(spec WidgetSpec) (string, error) {
	u, err := url.Parse(spec.URL)
	if err != nil {
		return "", fmt.Errorf("invalid origin url %q: %w", spec.URL, err)
	}
	if len(spec.Query) > 0 {
		q := u.Query()
		for k, v := range spec.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
