package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// Supplier hands out working proxies in round-robin order
type Supplier interface {
	Get() string
	Len() int
}

type supplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewSupplier checks each configured proxy against testURL, one at a time,
// and keeps the ones that answer without an HTTP error.
func NewSupplier(ctx context.Context, logger log.FieldLogger, proxies []string, testURL string) Supplier {
	if len(proxies) == 0 {
		return &supplier{proxies: []string{}}
	}

	logger.Infof("🔄 Testing %d proxies...", len(proxies))

	valid := make([]string, 0, len(proxies))
	for i, proxyURL := range proxies {
		logger.Debugf("🔄 Testing proxy %d/%d: %s", i+1, len(proxies), proxyURL)

		if err := check(ctx, proxyURL, testURL); err != nil {
			logger.Warnf("❌ Proxy %s is not working, skipping: %v", proxyURL, err)
			continue
		}

		logger.Infof("✅ Proxy %s is working", proxyURL)
		valid = append(valid, proxyURL)
	}

	logger.Infof("✅ Proxy supplier initialized with %d working proxies out of %d tested", len(valid), len(proxies))

	return &supplier{proxies: valid}
}

// Get returns the next proxy URL, or "" when none are available
func (p *supplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)

	return proxy
}

func (p *supplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func check(ctx context.Context, proxyURL, testURL string) error {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(testURL)
	if err != nil {
		return err
	}

	if resp.IsError() {
		return &statusError{status: resp.Status()}
	}

	return nil
}

type statusError struct {
	status string
}

func (e *statusError) Error() string {
	return "unexpected status: " + e.status
}
