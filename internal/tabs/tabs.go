// Package tabs resolves the results page's tab query parameter and tracks
// which tab and data-lineage sub-tab are active.
package tabs

// Top-level tab ids.
const (
	Overview          = "overview"
	ExecutionConfig   = "execution-config"
	DataLineage       = "data-lineage"
	StatisticalTests  = "statistical-tests"
	Models            = "models"
	SpilloverAnalysis = "spillover-analysis"
	RawData           = "raw-data"
	NextStep          = "next-step"
)

// Data-lineage sub-tab ids.
const (
	PriceData     = "price-data"
	ReturnsData   = "returns-data"
	ScaledData    = "scaled-data"
	PreGARCHData  = "pre-garch-data"
	PostGARCHData = "post-garch-data"
)

// Tab is one tab button and its panel. Sub-tabs carry their parent's id.
type Tab struct {
	ID     string
	Label  string
	Parent string
	Active bool
}

// TabSet holds the tabs of one rendered page. The Active flags are the
// only record of which tab is current.
type TabSet struct {
	tabs []*Tab
}

// NewTabSet builds a set from top-level tabs and the data-lineage sub-tabs.
// The first tab of each level starts active.
func NewTabSet(top []Tab, sub []Tab) *TabSet {
	s := &TabSet{}
	for i := range top {
		t := top[i]
		t.Parent = ""
		t.Active = i == 0
		s.tabs = append(s.tabs, &t)
	}
	for i := range sub {
		t := sub[i]
		if t.Parent == "" {
			t.Parent = DataLineage
		}
		t.Active = i == 0
		s.tabs = append(s.tabs, &t)
	}
	return s
}

// Get returns the tab with id, or nil.
func (s *TabSet) Get(id string) *Tab {
	for _, t := range s.tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Top returns the top-level tabs in display order.
func (s *TabSet) Top() []*Tab {
	return s.children("")
}

// Children returns the sub-tabs of parent in display order.
func (s *TabSet) Children(parent string) []*Tab {
	return s.children(parent)
}

func (s *TabSet) children(parent string) []*Tab {
	var out []*Tab
	for _, t := range s.tabs {
		if t.Parent == parent {
			out = append(out, t)
		}
	}
	return out
}

// Activate marks id active and its siblings inactive. Unknown ids are ignored.
func (s *TabSet) Activate(id string) bool {
	target := s.Get(id)
	if target == nil {
		return false
	}
	for _, t := range s.tabs {
		if t.Parent == target.Parent {
			t.Active = t == target
		}
	}
	return true
}

// ActiveID returns the active tab among the children of parent ("" for top level).
func (s *TabSet) ActiveID(parent string) string {
	for _, t := range s.children(parent) {
		if t.Active {
			return t.ID
		}
	}
	return ""
}

// IsActive reports whether the tab with id is active. A sub-tab only
// counts when its parent is active too.
func (s *TabSet) IsActive(id string) bool {
	t := s.Get(id)
	if t == nil || !t.Active {
		return false
	}
	if t.Parent == "" {
		return true
	}
	return s.IsActive(t.Parent)
}
