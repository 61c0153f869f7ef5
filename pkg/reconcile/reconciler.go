// Package reconcile keeps a FilterState and the url shown for it in step.
//
// A Reconciler is hydrated once from the incoming query string. Every later
// change restarts a trailing debounce window; when the window elapses the
// settled state is serialized, the url is replaced if it differs from the
// last one written and the result notifier is called with the same snapshot.
package reconcile

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

var (
	hydrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_filter_hydrations_total",
		Help: "The total number of filter states hydrated from a url",
	})
	settled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_filter_settled_total",
		Help: "The total number of settled filter changes that updated the url",
	})
	skippedNavigations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_navigation_skipped_total",
		Help: "The total number of settled changes whose url matched the last written one",
	})
)

// Navigator replaces the current url without adding a history entry or
// scrolling the view.
type Navigator interface {
	Replace(ctx context.Context, url string) error
}

type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Replace(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Notifier receives the full settled state, at most once per settled change.
type Notifier func(ctx context.Context, state types.FilterState)

// Notifiers calls each non nil notifier in order.
func Notifiers(notifiers ...Notifier) Notifier {
	return func(ctx context.Context, state types.FilterState) {
		for _, n := range notifiers {
			if n != nil {
				n(ctx, state)
			}
		}
	}
}

type Option func(*Reconciler)

func WithDebounce(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.debouncer = common.NewDebouncer(d)
		}
	}
}

func WithNavigator(n Navigator) Option {
	return func(r *Reconciler) {
		r.navigator = n
	}
}

func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) {
		r.notify = n
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPath sets the path the query string is appended to, "/games" by default.
func WithPath(path string) Option {
	return func(r *Reconciler) {
		r.path = path
	}
}

type Reconciler struct {
	mu       sync.Mutex
	settleMu sync.Mutex

	path      string
	options   types.OptionValidator
	state     types.FilterState
	hydrated  bool
	closed    bool
	lastURL   string
	debouncer *common.Debouncer
	navigator Navigator
	notify    Notifier
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New hydrates a reconciler from the incoming query. Hydration never
// navigates: the canonical url of the hydrated state is recorded as already
// written.
func New(initial url.Values, options types.OptionValidator, opts ...Option) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconciler{
		path:      "/games",
		options:   options,
		debouncer: common.NewDebouncer(DefaultDebounce),
		logger:    zap.NewNop(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.hydrate(initial)
	return r
}

func (r *Reconciler) hydrate(initial url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hydrated {
		return
	}
	r.state = types.DecodeQuery(initial, r.options)
	r.lastURL = types.CanonicalURL(r.path, r.state)
	r.hydrated = true
	hydrations.Inc()
	r.logger.Debug("filter state hydrated", zap.String("url", r.lastURL))
}

func (r *Reconciler) State() types.FilterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// URL is the last url written, or the hydrated one.
func (r *Reconciler) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastURL
}

func (r *Reconciler) Hydrated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hydrated
}

// Update replaces the state with fn(state) and restarts the debounce window.
// Ids unknown to the option catalog are dropped first. Updates that produce
// an equal state, and updates after Close, are ignored.
func (r *Reconciler) Update(fn func(types.FilterState) types.FilterState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.hydrated {
		return
	}
	next := fn(r.state).Validate(r.options)
	if next.Equal(r.state) {
		return
	}
	r.state = next
	r.debouncer.Debounce(r.settle)
}

func (r *Reconciler) Dispatch(action types.FilterAction) {
	r.Update(func(s types.FilterState) types.FilterState {
		return s.Apply(action)
	})
}

// Replace swaps in a complete state, for example a posted form, after
// re-establishing its invariants.
func (r *Reconciler) Replace(state types.FilterState) {
	r.Update(func(types.FilterState) types.FilterState {
		return state.Sanitize(r.options)
	})
}

// Flush settles a pending change immediately.
func (r *Reconciler) Flush() {
	if r.debouncer.Cancel() {
		r.settle()
	}
}

func (r *Reconciler) settle() {
	r.settleMu.Lock()
	defer r.settleMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	snapshot := r.state
	candidate := types.CanonicalURL(r.path, snapshot)
	if candidate == r.lastURL {
		r.mu.Unlock()
		skippedNavigations.Inc()
		r.logger.Debug("navigation skipped, url unchanged", zap.String("url", candidate))
		return
	}
	r.lastURL = candidate
	r.mu.Unlock()

	settled.Inc()
	if r.navigator != nil {
		if err := r.navigator.Replace(r.ctx, candidate); err != nil {
			r.logger.Warn("navigation failed", zap.String("url", candidate), zap.Error(err))
		}
	}
	if r.notify != nil {
		r.notify(r.ctx, snapshot)
	}
}

// Close cancels any pending settle and the context handed to the navigator
// and notifier. Later updates are ignored.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	if r.debouncer.Cancel() {
		r.logger.Debug("pending navigation cancelled on close")
	}
	r.cancel()
}
