package fetcher

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/simaogato/billlink-backend/internal/domain"
)

// DeferredRetryDelay is how long after mount the extra in-app browser retry starts
const DeferredRetryDelay = 500 * time.Millisecond

// inAppReferrers are referrer fragments of in-app browsers known to drop their first request
var inAppReferrers = []string{"facebook", "whatsapp", "line"}

// DetectInAppBrowser reports whether a request arrived from a messenger or
// social-media in-app browser, judged by its referrer and click-tracking parameters.
func DetectInAppBrowser(referrer string, query url.Values) bool {
	if query.Get("fbclid") != "" || query.Get("gclid") != "" {
		return true
	}
	referrer = strings.ToLower(referrer)
	for _, fragment := range inAppReferrers {
		if strings.Contains(referrer, fragment) {
			return true
		}
	}
	return false
}

// Page is the loading state of one rendered page.
// Results are applied only while the page is mounted, and a loaded bill is never
// replaced by a failure.
type Page struct {
	mu       sync.Mutex
	alive    bool
	result   Result
	cancel   context.CancelFunc
	deferred chan struct{}
}

// NewPage creates a mounted page with nothing loaded
func NewPage() *Page {
	return &Page{
		alive:  true,
		result: Result{State: StateIdle},
	}
}

// Apply records res as the page's result and reports whether it was taken.
// Results arriving after Unmount are dropped.
func (p *Page) Apply(res Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.alive {
		return false
	}
	if p.result.OK() && !res.OK() {
		return false
	}
	p.result = res
	return true
}

// Unmount marks the page as gone and cancels its deferred retry, if any
func (p *Page) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.alive = false
	if p.cancel != nil {
		p.cancel()
	}
}

// Mounted reports whether the page still accepts results
func (p *Page) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

// Result returns the result currently displayed by the page
func (p *Page) Result() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Bill returns the displayed bill, or nil
func (p *Page) Bill() *domain.Bill {
	return p.Result().Bill
}

// DeferredDone is closed once the deferred retry finished. It is nil when
// no deferred retry was scheduled.
func (p *Page) DeferredDone() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deferred
}

// Loader loads bills into pages
type Loader struct {
	fetcher       *Fetcher
	deferredDelay time.Duration
	sleep         SleepFunc
	logger        *zap.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithDeferredDelay overrides DeferredRetryDelay
func WithDeferredDelay(d time.Duration) LoaderOption {
	return func(l *Loader) { l.deferredDelay = d }
}

// WithDeferredSleep replaces the wait before the deferred retry
func WithDeferredSleep(sleep SleepFunc) LoaderOption {
	return func(l *Loader) { l.sleep = sleep }
}

// WithLoaderLogger sets the logger
func WithLoaderLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a new Loader
func NewLoader(fetcher *Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher:       fetcher,
		deferredDelay: DeferredRetryDelay,
		sleep:         Sleep,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the bill into page and returns what the page displays afterwards.
// With inApp set, one extra retrieval is scheduled after the deferred delay
// regardless of how the first one ends; Load waits for it only when the first
// retrieval did not produce a bill.
func (l *Loader) Load(ctx context.Context, page *Page, id string, inApp bool) Result {
	if inApp {
		l.scheduleDeferred(ctx, page, id)
	}

	page.Apply(l.fetcher.Fetch(ctx, id))

	res := page.Result()
	done := page.DeferredDone()
	if res.OK() || done == nil {
		return res
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	return page.Result()
}

func (l *Loader) scheduleDeferred(ctx context.Context, page *Page, id string) {
	deferredCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	page.mu.Lock()
	if !page.alive {
		page.mu.Unlock()
		cancel()
		return
	}
	page.cancel = cancel
	page.deferred = done
	page.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		if err := l.sleep(deferredCtx, l.deferredDelay); err != nil {
			return
		}
		res := l.fetcher.Fetch(deferredCtx, id)
		if !page.Apply(res) {
			l.logger.Debug("deferred bill retry discarded",
				zap.String("bill_id", id),
				zap.String("state", string(res.State)),
			)
		}
	}()
}
