package tabs

import (
	"net/url"
	"strings"
)

// Navigation is a resolved tab parameter. SubTab is set for data-lineage
// sub-tabs, with Tab holding their parent.
type Navigation struct {
	Tab    string
	SubTab string
}

// Scheduler defers work to the next tick.
type Scheduler interface {
	Defer(fn func())
}

// TickQueue is a Scheduler for a single page build. Deferred callbacks run
// when Drain is called, after everything activated synchronously.
type TickQueue struct {
	queue []func()
}

func (q *TickQueue) Defer(fn func()) {
	q.queue = append(q.queue, fn)
}

// Drain runs the callbacks queued so far. Callbacks they defer wait for the
// next Drain.
func (q *TickQueue) Drain() int {
	pending := q.queue
	q.queue = nil
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Pending reports how many callbacks wait for the next tick.
func (q *TickQueue) Pending() int {
	return len(q.queue)
}

// Router maps tab query values onto a TabSet.
type Router struct {
	topLevel map[string]bool
	subTabs  map[string]string
	aliases  map[string]string
}

func NewRouter() *Router {
	return &Router{
		topLevel: map[string]bool{
			Overview:          true,
			ExecutionConfig:   true,
			DataLineage:       true,
			StatisticalTests:  true,
			Models:            true,
			SpilloverAnalysis: true,
			RawData:           true,
			NextStep:          true,
		},
		subTabs: map[string]string{
			PriceData:     DataLineage,
			ReturnsData:   DataLineage,
			ScaledData:    DataLineage,
			PreGARCHData:  DataLineage,
			PostGARCHData: DataLineage,
		},
		aliases: map[string]string{
			"plots":      DataLineage,
			"garch-data": PostGARCHData,
		},
	}
}

// Resolve maps a tab query value to a navigation target. Unknown values
// report false and leave the default tab in place.
func (r *Router) Resolve(param string) (Navigation, bool) {
	id := strings.TrimSpace(param)
	if alias, ok := r.aliases[id]; ok {
		id = alias
	}
	if r.topLevel[id] {
		return Navigation{Tab: id}, true
	}
	if parent, ok := r.subTabs[id]; ok {
		return Navigation{Tab: parent, SubTab: id}, true
	}
	return Navigation{}, false
}

// Apply activates nav on set. The top-level tab switches immediately; a
// sub-tab is activated on the scheduler's next tick so its parent panel is
// active first. A nil scheduler activates the sub-tab immediately. It
// reports false when the page has no such tab.
func (r *Router) Apply(set *TabSet, nav Navigation, sched Scheduler) bool {
	if !set.Activate(nav.Tab) {
		return false
	}
	if nav.SubTab == "" {
		return true
	}
	sub := nav.SubTab
	activate := func() { set.Activate(sub) }
	if sched == nil {
		activate()
	} else {
		sched.Defer(activate)
	}
	return true
}

// URLFor returns current with only its tab parameter replaced.
func (r *Router) URLFor(current *url.URL, tab string) string {
	u := *current
	q := u.Query()
	q.Set("tab", tab)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	if u.Host == "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.String()
}
