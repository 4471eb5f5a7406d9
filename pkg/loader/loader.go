package loader

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/xhad/ragd/internal/models"
)

// Config configures the rendered-page loader.
type Config struct {
	Timeout   time.Duration // per-URL budget for navigate + render
	RateLimit float64       // fetches per second across all calls
	UserAgent string
}

// Loader fetches pages through a headless browser so that client-rendered
// content is present before extraction. It waits for the structural DOM, not
// for every subresource, which bounds ingestion latency.
type Loader struct {
	config   Config
	limiter  *rate.Limiter
	allocCtx context.Context
	cancel   context.CancelFunc
}

func NewWithConfig(config Config) *Loader {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.UserAgent == "" {
		config.UserAgent = "ragd/1.0"
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(config.UserAgent),
		chromedp.NoSandbox,
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Loader{
		config:   config,
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

func New() *Loader {
	return NewWithConfig(Config{})
}

// Fetch navigates to url in a fresh tab, waits until the document body is
// ready and returns the rendered outer HTML. Timeouts and navigation
// failures surface as NetworkError. No retries happen here.
func (l *Loader) Fetch(ctx context.Context, url string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", &models.NetworkError{URL: url, Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(l.allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, l.config.Timeout)
	defer cancelTimeout()

	// Propagate caller cancellation into the browser context.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancelTimeout()
		case <-done:
		}
	}()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", &models.NetworkError{URL: url, Err: err}
	}

	return html, nil
}

// Close shuts down the browser allocator.
func (l *Loader) Close() {
	l.cancel()
}
