package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"shopee/catalog/internal/config"
	"shopee/catalog/internal/domain"
	"shopee/catalog/internal/proxy"

	"github.com/andybalholm/brotli"
	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

type ShopeeClient interface {
	Bootstrap(ctx context.Context) (*domain.Session, error)
	GetCategoryPage(ctx context.Context, pageNumber, pageSize int) (*domain.CategoryPage, error)
	Close() error
}

type shopeeClient struct {
	config     config.ShopeeConfig
	httpClient *resty.Client
	parser     *landingParser
	logger     log.FieldLogger
}

// NewShopeeClient builds a client that presents browser headers and keeps
// cookies from the landing page for the API calls. No retries are made.
func NewShopeeClient(cfg config.ShopeeConfig, proxySupplier proxy.Supplier, logger log.FieldLogger) ShopeeClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetLogger(logger).
		SetHeaders(map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          cfg.Accept,
			"Accept-Language": cfg.AcceptLanguage,
			"Referer":         cfg.Referer,
			"Origin":          cfg.Origin,
		}).
		AddContentDecompresser("br", decompressBrotli)

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			logger.Infof("🔗 Using proxy: %s", proxyURL)
		}
	}

	return &shopeeClient{
		config:     cfg,
		httpClient: client,
		parser:     newLandingParser(),
		logger:     logger,
	}
}

// Bootstrap visits the landing page so the cookie jar holds whatever the
// site hands out to a browser. Only a transport failure is an error; the
// caller decides whether to continue without a session.
func (c *shopeeClient) Bootstrap(ctx context.Context) (*domain.Session, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		Get(c.config.LandingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch landing page: %w", err)
	}

	session := &domain.Session{
		StatusCode: resp.StatusCode(),
		Cookies:    c.cookieNames(),
	}

	page, err := c.parser.ParseLandingPage(resp.String())
	if err != nil {
		c.logger.Debugf("Failed to inspect landing page: %v", err)
	} else {
		session.Title = page.Title
		session.Challenge = page.Challenge
	}

	return session, nil
}

func (c *shopeeClient) GetCategoryPage(ctx context.Context, pageNumber, pageSize int) (*domain.CategoryPage, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page": strconv.Itoa(pageNumber),
			"size": strconv.Itoa(pageSize),
		}).
		Get(c.config.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", pageNumber, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	page, err := parseCategoryPage(resp.Bytes(), pageNumber, pageSize)
	if err != nil {
		return nil, err
	}

	c.logger.Debugf("Fetched page %d with %d categories", pageNumber, len(page.Items))
	return page, nil
}

func (c *shopeeClient) Close() error {
	return c.httpClient.Close()
}

// cookieNames lists the cookies the jar would send to the API host
func (c *shopeeClient) cookieNames() []string {
	names := make([]string, 0)

	apiURL, err := url.Parse(c.config.APIURL)
	if err != nil {
		return names
	}

	jar := c.httpClient.CookieJar()
	if jar == nil {
		return names
	}

	for _, cookie := range jar.Cookies(apiURL) {
		names = append(names, cookie.Name)
	}
	return names
}

func decompressBrotli(r io.ReadCloser) (io.ReadCloser, error) {
	return struct {
		io.Reader
		io.Closer
	}{brotli.NewReader(r), r}, nil
}
