package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"pair-analysis/src/helpers"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Base delay between attempts; grows exponentially.
var retryBaseDelay = time.Second

type AsyncNetworkManager struct {
	Config       models.MConfig
	ProxyManager interfaces.IProxyManager
	Limiter      *rate.Limiter
	Logger       *logger.Logger

	mu     sync.Mutex
	client *http.Client
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	var proxies []string
	if cfg.Network.Enabled {
		proxies = cfg.Network.Proxies
	}

	rps := cfg.Exchange.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(proxies, cfg.Network.UserAgent),
		Limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		Logger:       log,
	}
	nm.client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			if proxyURL, err := url.Parse(proxyStr); err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	client := nm.createClient()

	nm.mu.Lock()
	nm.client = client
	nm.mu.Unlock()

	proxy, _ := nm.ProxyManager.GetCurrentProxy()
	nm.Logger.Info("Rotated proxy to %s", proxy)
}

func (nm *AsyncNetworkManager) currentClient() *http.Client {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return nm.client
}

// -----------------------------------------------------------------------------

// Get performs a rate limited GET with retries and proxy rotation. Client
// errors other than 403/418/429 are not retried.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	var body []byte
	attempt := 0

	op := func() error {
		attempt++
		if attempt > 1 {
			nm.rotateProxy()
		}

		if err := nm.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())

		resp, err := nm.currentClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden || resp.StatusCode == 418:
			return fmt.Errorf("blocked (status %d)", resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("bad status %d: %s", resp.StatusCode, msg))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("bad status: %d", resp.StatusCode)
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	err = helpers.RetryWithBackoff(ctx, nm.Logger, "GET "+reqURL.Path, nm.Config.Network.MaxRetries, retryBaseDelay, op)
	if err != nil {
		return nil, helpers.NewNetworkError(fmt.Sprintf("request to %s failed", reqURL.Host+reqURL.Path), err)
	}
	return body, nil
}
