// Package observer drives incremental scanning in response to document and
// rule-set changes.
//
// The observer owns the engine's long-lived state: the compiled matcher
// bundle and the enabled flag. All events - rule-set changes, enable and
// disable toggles, structural insertion batches - flow through one queue
// consumed by a single goroutine, so batches are processed strictly in
// delivery order, a bundle swap is always sequenced before any scan that
// depends on it, and no scan ever observes a half-updated bundle.
package observer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pagemorph/pagemorph/pkg/document"
	"github.com/pagemorph/pagemorph/pkg/logging"
	"github.com/pagemorph/pagemorph/pkg/matcher"
	"github.com/pagemorph/pagemorph/pkg/scanner"
	"github.com/pagemorph/pagemorph/pkg/types"
)

// State is the observer's lifecycle state.
type State int32

const (
	// StateUninitialized means no rule set has been loaded yet. Insertions
	// are already being observed; scans no-op on the nil bundle.
	StateUninitialized State = iota
	// StateMatcherEmpty means a rule set was loaded but compiled to an
	// empty bundle.
	StateMatcherEmpty
	// StateMatcherReady means a non-empty bundle is active.
	StateMatcherReady
	// StateDisabled means scanning is suspended. The event subscription
	// stays attached but inert.
	StateDisabled
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMatcherEmpty:
		return "matcher-empty"
	case StateMatcherReady:
		return "matcher-ready"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// RuleLoader fetches the current rule set from the surrounding store. It is
// consulted when the observer is re-enabled before an initial load ever
// completed.
type RuleLoader func() (types.RuleSet, error)

type eventKind int

const (
	evRules eventKind = iota
	evEnable
	evInsert
	evFlush
)

type event struct {
	kind    eventKind
	rules   types.RuleSet
	enabled bool
	nodes   []document.Node
	reply   chan struct{}
}

// Observer consumes document and rule-set events and schedules scans.
type Observer struct {
	root     document.Node
	scan     *scanner.Scanner
	loader   RuleLoader
	cfg      matcher.Config
	debounce time.Duration
	logger   zerolog.Logger

	events chan event
	quit   chan struct{}
	wg     sync.WaitGroup
	state  atomic.Int32
}

// Option configures an Observer.
type Option func(*Observer)

// WithScanner replaces the default scanner.
func WithScanner(s *scanner.Scanner) Option {
	return func(o *Observer) { o.scan = s }
}

// WithDebounce overrides the rescan coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(o *Observer) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithMatcherConfig sets the configuration used when compiling bundles.
func WithMatcherConfig(cfg matcher.Config) Option {
	return func(o *Observer) { o.cfg = cfg }
}

// WithRuleLoader sets the loader used to recover the rule set when the
// observer is re-enabled before its initial load completed.
func WithRuleLoader(l RuleLoader) Option {
	return func(o *Observer) { o.loader = l }
}

// New creates an Observer for the given document root. Call Start to begin
// consuming events.
func New(root document.Node, opts ...Option) *Observer {
	o := &Observer{
		root:     root,
		scan:     scanner.New(),
		debounce: types.DebounceWindow,
		logger:   logging.GetLogger("observer"),
		events:   make(chan event, 64),
		quit:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.state.Store(int32(StateUninitialized))
	return o
}

// Start launches the event loop. Observation begins immediately, before any
// rule set has loaded; this is safe because scans no-op on an empty bundle.
func (o *Observer) Start() {
	o.wg.Add(1)
	go o.run()
}

// Stop shuts the event loop down and waits for it to drain.
func (o *Observer) Stop() {
	close(o.quit)
	o.wg.Wait()
}

// State returns the observer's current lifecycle state.
func (o *Observer) State() State {
	return State(o.state.Load())
}

// SetRules replaces the rule set. The new bundle is swapped in before any
// subsequent scan; the full rescan it triggers is debounced so a burst of
// edits produces one scan.
func (o *Observer) SetRules(set types.RuleSet) {
	o.send(event{kind: evRules, rules: set})
}

// SetEnabled toggles scanning. Disabling cancels any pending rescan;
// re-enabling triggers a full scan.
func (o *Observer) SetEnabled(enabled bool) {
	o.send(event{kind: evEnable, enabled: enabled})
}

// NotifyInserted reports a batch of nodes newly inserted into the tree.
// Content-only changes to existing leaves must NOT be reported: the engine's
// own write-backs are leaf-content changes, and reacting to them would loop.
func (o *Observer) NotifyInserted(nodes ...document.Node) {
	if len(nodes) == 0 {
		return
	}
	o.send(event{kind: evInsert, nodes: nodes})
}

// Flush blocks until every event enqueued before it has been processed.
// Pending debounced rescans are not waited for.
func (o *Observer) Flush() {
	reply := make(chan struct{})
	o.send(event{kind: evFlush, reply: reply})
	select {
	case <-reply:
	case <-o.quit:
	}
}

func (o *Observer) send(ev event) {
	select {
	case o.events <- ev:
	case <-o.quit:
	}
}

// run is the event loop. All mutable state below is owned by this goroutine;
// the exported State counter is the only value shared outward.
func (o *Observer) run() {
	defer o.wg.Done()

	var (
		bundle  *matcher.Bundle // nil until the first rule-set load
		enabled = true
		rescan  *time.Timer
		rescanC <-chan time.Time
	)

	stopRescan := func() {
		if rescan != nil {
			rescan.Stop()
			rescan = nil
			rescanC = nil
		}
	}
	scheduleRescan := func() {
		stopRescan()
		rescan = time.NewTimer(o.debounce)
		rescanC = rescan.C
	}
	setState := func(s State) {
		if State(o.state.Load()) != s {
			o.logger.Debug().Stringer("state", s).Msg("state change")
		}
		o.state.Store(int32(s))
	}
	bundleState := func() State {
		switch {
		case !enabled:
			return StateDisabled
		case bundle == nil:
			return StateUninitialized
		case bundle.Empty():
			return StateMatcherEmpty
		default:
			return StateMatcherReady
		}
	}

	for {
		select {
		case <-o.quit:
			stopRescan()
			return

		case <-rescanC:
			stopRescan()
			if enabled && bundle != nil {
				stats := o.scan.ScanFull(o.root, bundle)
				o.logger.Info().Int("replaced", stats.Replaced).Msg("rescan after rule change")
			}

		case ev := <-o.events:
			switch ev.kind {
			case evRules:
				bundle = matcher.CompileWithConfig(ev.rules.EnabledRules(), o.cfg)
				setState(bundleState())
				if enabled {
					scheduleRescan()
				}

			case evEnable:
				if ev.enabled == enabled {
					break
				}
				enabled = ev.enabled
				if !enabled {
					stopRescan()
					setState(StateDisabled)
					break
				}
				if bundle == nil {
					// Disabled before the initial load completed; recover
					// the rule set before scanning.
					bundle = o.reload()
				}
				setState(bundleState())
				if bundle != nil {
					stats := o.scan.ScanFull(o.root, bundle)
					o.logger.Info().Int("replaced", stats.Replaced).Msg("scan after re-enable")
				}

			case evInsert:
				if !enabled || bundle.Empty() {
					break
				}
				for _, n := range ev.nodes {
					o.scan.ScanSubtree(n, bundle)
				}

			case evFlush:
				close(ev.reply)
			}
		}
	}
}

// reload fetches the rule set through the configured loader and compiles it.
// Returns nil when no loader is configured or the load fails.
func (o *Observer) reload() *matcher.Bundle {
	if o.loader == nil {
		return nil
	}
	set, err := o.loader()
	if err != nil {
		o.logger.Error().Err(err).Msg("rule reload failed")
		return nil
	}
	return matcher.CompileWithConfig(set.EnabledRules(), o.cfg)
}
