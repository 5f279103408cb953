package tabs

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullTabSet() *TabSet {
	return NewTabSet(
		[]Tab{
			{ID: Overview, Label: "Overview"},
			{ID: ExecutionConfig, Label: "Execution Config"},
			{ID: DataLineage, Label: "Data Lineage"},
			{ID: StatisticalTests, Label: "Statistical Tests"},
			{ID: Models, Label: "Models"},
			{ID: SpilloverAnalysis, Label: "Spillover Analysis"},
			{ID: RawData, Label: "Raw Data"},
			{ID: NextStep, Label: "Next Step"},
		},
		[]Tab{
			{ID: PriceData, Label: "Price Data"},
			{ID: ReturnsData, Label: "Returns"},
			{ID: ScaledData, Label: "Scaled"},
			{ID: PreGARCHData, Label: "Pre-GARCH"},
			{ID: PostGARCHData, Label: "Post-GARCH"},
		},
	)
}

func TestRouter_Resolve(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		param string
		want  Navigation
		ok    bool
	}{
		{"models", Navigation{Tab: Models}, true},
		{"plots", Navigation{Tab: DataLineage}, true},
		{"pre-garch-data", Navigation{Tab: DataLineage, SubTab: PreGARCHData}, true},
		{"garch-data", Navigation{Tab: DataLineage, SubTab: PostGARCHData}, true},
		{"next-step", Navigation{Tab: NextStep}, true},
		{"unknown", Navigation{}, false},
		{"", Navigation{}, false},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(tt.param)
		assert.Equal(t, tt.ok, ok, tt.param)
		assert.Equal(t, tt.want, got, tt.param)
	}
}

func TestNewTabSet_Defaults(t *testing.T) {
	set := fullTabSet()
	assert.Equal(t, Overview, set.ActiveID(""))
	assert.Equal(t, PriceData, set.ActiveID(DataLineage))
	assert.True(t, set.IsActive(Overview))
	assert.False(t, set.IsActive(PriceData), "sub-tab of an inactive parent")
}

func TestRouter_ApplyTopLevel(t *testing.T) {
	r := NewRouter()
	set := fullTabSet()

	nav, ok := r.Resolve("models")
	require.True(t, ok)
	assert.True(t, r.Apply(set, nav, &TickQueue{}))

	assert.Equal(t, Models, set.ActiveID(""))
	active := 0
	for _, tab := range set.Top() {
		if tab.Active {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestRouter_ApplySubTabAfterTick(t *testing.T) {
	r := NewRouter()
	set := fullTabSet()
	queue := &TickQueue{}

	nav, ok := r.Resolve("pre-garch-data")
	require.True(t, ok)
	require.True(t, r.Apply(set, nav, queue))

	// The parent is active before the tick, the sub-tab is not yet.
	assert.Equal(t, DataLineage, set.ActiveID(""))
	assert.Equal(t, PriceData, set.ActiveID(DataLineage))
	assert.Equal(t, 1, queue.Pending())

	assert.Equal(t, 1, queue.Drain())
	assert.True(t, set.IsActive(PreGARCHData))
	for _, sub := range set.Children(DataLineage) {
		assert.Equal(t, sub.ID == PreGARCHData, sub.Active, sub.ID)
	}
	assert.Equal(t, 0, queue.Pending())
}

func TestRouter_ApplyMissingTab(t *testing.T) {
	r := NewRouter()
	compact := NewTabSet([]Tab{{ID: Overview}, {ID: Models}}, nil)

	nav, _ := r.Resolve("raw-data")
	assert.False(t, r.Apply(compact, nav, nil))
	assert.Equal(t, Overview, compact.ActiveID(""))

	nav, _ = r.Resolve("returns-data")
	assert.False(t, r.Apply(compact, nav, nil))
}

func TestRouter_ApplyNilSchedulerIsImmediate(t *testing.T) {
	r := NewRouter()
	set := fullTabSet()
	nav, _ := r.Resolve("returns-data")
	require.True(t, r.Apply(set, nav, nil))
	assert.True(t, set.IsActive(ReturnsData))
}

func TestTickQueue_NestedDeferWaitsForNextDrain(t *testing.T) {
	q := &TickQueue{}
	var order []string
	q.Defer(func() {
		order = append(order, "first")
		q.Defer(func() { order = append(order, "second") })
	})

	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, []string{"first"}, order)
	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRouter_URLFor(t *testing.T) {
	r := NewRouter()

	u, _ := url.Parse("/results/?layout=compact&tab=overview#top")
	assert.Equal(t, "/results/?layout=compact&tab=models", r.URLFor(u, "models"))

	u, _ = url.Parse("/results/")
	assert.Equal(t, "/results/?tab=pre-garch-data", r.URLFor(u, "pre-garch-data"))
}

func TestRouter_AliasesWriteBackCanonicalTab(t *testing.T) {
	r := NewRouter()
	set := fullTabSet()

	nav, ok := r.Resolve("garch-data")
	require.True(t, ok)
	queue := &TickQueue{}
	require.True(t, r.Apply(set, nav, queue))
	queue.Drain()

	assert.True(t, set.IsActive(DataLineage))
	assert.True(t, set.IsActive(PostGARCHData))
	assert.False(t, set.IsActive(PreGARCHData))

	u, _ := url.Parse("/results/?layout=full&tab=garch-data")
	assert.Equal(t, "/results/?layout=full&tab=post-garch-data", r.URLFor(u, nav.SubTab))

	nav, ok = r.Resolve("plots")
	require.True(t, ok)
	assert.Equal(t, "/results/?layout=full&tab=data-lineage", r.URLFor(u, nav.Tab))
}
