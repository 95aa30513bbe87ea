package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/meal-order/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// HTTPFeed reads the published spreadsheet CSV.
type HTTPFeed struct {
	url    string
	client *http.Client
	now    func() time.Time
}

func NewHTTPFeed(url string, client *http.Client) *HTTPFeed {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPFeed{url: strings.TrimSpace(url), client: client, now: time.Now}
}

func (f *HTTPFeed) Fetch(ctx context.Context) (string, error) {
	if f.url == "" {
		return "", fmt.Errorf("%w: catalog feed url", domain.ErrConfiguration)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cacheBusted(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrConfiguration, err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status %d", domain.ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrNetwork, err)
	}
	return string(body), nil
}

// cacheBusted appends a per-request token so no intermediary serves a stale copy.
func (f *HTTPFeed) cacheBusted() string {
	sep := "?"
	if strings.Contains(f.url, "?") {
		sep = "&"
	}
	return f.url + sep + "cb=" + strconv.FormatInt(f.now().UnixMilli(), 10)
}
