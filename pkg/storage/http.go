package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/livp123/gfcore/pkg/errors"
)

const defaultFetchTimeout = 30 * time.Second

// HTTPFetcher implements Fetcher with a resty client.
// HTTPFetcher 使用 resty 客户端实现 Fetcher。
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher; a zero timeout selects the default.
// NewHTTPFetcher 创建下载器；超时为 0 时使用默认值。
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Get(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", apperrors.NewFetchError(url, err)
	}
	if resp.IsError() {
		return "", apperrors.NewFetchError(url, fmt.Errorf("status %d", resp.StatusCode()))
	}
	return resp.String(), nil
}
