package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/platform/observability"
)

// FetchFailedMessage is the retry prompt shown when a method catalogue
// cannot be loaded. No further detail is surfaced to the buyer.
const FetchFailedMessage = "Fetching items failed. Please contact customer support if problem persists."

// LoaderState is the lifecycle of one method catalogue fetch.
type LoaderState int

const (
	// LoaderLoading is the initial state; options are empty.
	LoaderLoading LoaderState = iota
	// LoaderReady means options were fetched and normalised.
	LoaderReady
	// LoaderFailed means the fetch failed; the buyer may retry.
	LoaderFailed
)

// MethodFetcher retrieves one catalogue of selectable options.
type MethodFetcher func(ctx context.Context) ([]domain.RadioOption, error)

// OptionLoader fetches a method catalogue exactly once per wizard mount,
// exposing loading, ready and failed states plus an explicit retry.
type OptionLoader struct {
	name  string
	fetch MethodFetcher
	log   observability.EventLogFunc

	mu      sync.Mutex
	state   LoaderState
	started bool
	options []domain.RadioOption
}

// NewOptionLoader constructs a loader for the named catalogue.
func NewOptionLoader(name string, fetch MethodFetcher, log observability.EventLogFunc) (*OptionLoader, error) {
	if name == "" {
		return nil, errors.New("checkout: option loader name is required")
	}
	if fetch == nil {
		return nil, errors.New("checkout: option loader fetcher is required")
	}
	if log == nil {
		log = func(context.Context, string, map[string]any) {}
	}
	return &OptionLoader{name: name, fetch: fetch, log: log}, nil
}

// Initialize performs the first fetch. Subsequent calls are no-ops so a
// re-render can never trigger a duplicate fetch; only Retry refetches.
func (l *OptionLoader) Initialize(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	l.run(ctx)
}

// Retry re-issues a failed fetch, transitioning back through loading.
func (l *OptionLoader) Retry(ctx context.Context) {
	l.mu.Lock()
	l.state = LoaderLoading
	l.started = true
	l.mu.Unlock()

	l.run(ctx)
}

func (l *OptionLoader) run(ctx context.Context) {
	options, err := l.fetch(ctx)
	if err != nil {
		l.log(ctx, "checkout.methods.fetch_failed", map[string]any{
			"catalogue": l.name,
			"error":     err.Error(),
		})
		l.mu.Lock()
		l.state = LoaderFailed
		l.mu.Unlock()
		return
	}

	l.mu.Lock()
	l.options = options
	l.state = LoaderReady
	l.mu.Unlock()
}

// State reports the loader's current lifecycle state.
func (l *OptionLoader) State() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Options returns the fetched catalogue. Empty until the loader is ready.
func (l *OptionLoader) Options() []domain.RadioOption {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.options
}

// Find looks an option up by its submitted value.
func (l *OptionLoader) Find(value string) (domain.RadioOption, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, option := range l.options {
		if option.Value == value {
			return option, true
		}
	}
	return domain.RadioOption{}, false
}
