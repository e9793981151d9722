package filters

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
)

// staticRef is a fixed reference dataset standing in for the metadata
// snapshot.
type staticRef struct {
	filters  []catalog.FilterRow
	lines    map[int]catalog.ProductionLine
	lineIDs  []int
	shifts   []catalog.Shift
	areas    []catalog.Area
	products []catalog.Product
}

func (r *staticRef) ActiveFilters() []catalog.FilterRow { return r.filters }
func (r *staticRef) ActiveLineIDs() []int               { return r.lineIDs }
func (r *staticRef) Line(lineID int) (catalog.ProductionLine, bool) {
	l, ok := r.lines[lineID]
	return l, ok
}
func (r *staticRef) ActiveShifts() []catalog.Shift  { return r.shifts }
func (r *staticRef) AllAreas() []catalog.Area       { return r.areas }
func (r *staticRef) AllProducts() []catalog.Product { return r.products }

func testRef() *staticRef {
	return &staticRef{
		filters: []catalog.FilterRow{
			{FilterID: 1, FilterName: "DateRangeFilter", FilterStatus: true, DisplayOrder: 1},
			{FilterID: 2, FilterName: "ProductionLineFilter", FilterStatus: true, DisplayOrder: 2,
				AdditionalFilter: map[string]any{"alias": "Envasado", "line_ids": []any{1.0, 2.0}}},
			{FilterID: 3, FilterName: "ShiftFilter", FilterStatus: true, DisplayOrder: 3},
			{FilterID: 4, FilterName: "AreaFilter", FilterStatus: true, DisplayOrder: 4},
			{FilterID: 5, FilterName: "ProductFilter", FilterStatus: true, DisplayOrder: 5},
			{FilterID: 6, FilterName: "IntervalFilter", FilterStatus: true, DisplayOrder: 6},
			{FilterID: 7, FilterName: "DowntimeThresholdFilter", FilterStatus: true, DisplayOrder: 7},
			{FilterID: 8, FilterName: "ShowDowntimeFilter", FilterStatus: true, DisplayOrder: 8},
		},
		lines: map[int]catalog.ProductionLine{
			1: {LineID: 1, LineName: "Encajado", LineCode: "ENC", IsActive: true, DowntimeThreshold: 300, AutoDetectDowntime: true},
			2: {LineID: 2, LineName: "Etiquetado", LineCode: "ETI", IsActive: true, DowntimeThreshold: 240, AutoDetectDowntime: true},
		},
		lineIDs: []int{1, 2},
		shifts: []catalog.Shift{
			{ShiftID: 1, ShiftName: "Mañana", ShiftStatus: true, StartTime: "06:00:00", EndTime: "14:00:00"},
			{ShiftID: 2, ShiftName: "Noche", ShiftStatus: true, StartTime: "22:00:00", EndTime: "06:00:00", IsOvernight: true},
		},
		areas: []catalog.Area{
			{AreaID: 1, LineID: 1, AreaName: "Entrada Encajado", AreaType: "input", AreaOrder: 1},
			{AreaID: 2, LineID: 1, AreaName: "Salida Encajado", AreaType: "output", AreaOrder: 2},
			{AreaID: 3, LineID: 2, AreaName: "Salida Etiquetado", AreaType: "output", AreaOrder: 1},
		},
		products: []catalog.Product{
			{ProductID: 10, ProductName: "Botella 1L", ProductCode: "B1L", ProductWeight: 0.55, ProductColor: "#3b82f6"},
			{ProductID: 11, ProductName: "Botella 2L", ProductCode: "B2L", ProductWeight: 1.1, ProductColor: "#22c55e"},
		},
	}
}

func testEngine() *Engine {
	return NewEngine(testRef(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEngineBuildsConfiguredFilters(t *testing.T) {
	engine := testEngine()

	all := engine.All(nil)
	require.Len(t, all, 8)

	params := make([]string, 0, len(all))
	for _, f := range all {
		params = append(params, f.Config().ParamName)
	}
	assert.Equal(t, []string{
		"daterange", "line_id", "shift_id", "area_ids",
		"product_ids", "interval", "downtime_threshold", "show_downtime",
	}, params)

	assert.IsType(t, &DateRangeFilter{}, all[0])
	assert.IsType(t, &DropdownFilter{}, all[1])
	assert.IsType(t, &MultiselectFilter{}, all[3])
	assert.IsType(t, &NumberFilter{}, all[6])
	assert.IsType(t, &ToggleFilter{}, all[7])
}

func TestEngineSkipsUnknownClassNames(t *testing.T) {
	ref := testRef()
	ref.filters = append(ref.filters, catalog.FilterRow{
		FilterID: 99, FilterName: "HologramFilter", FilterStatus: true, DisplayOrder: 99,
	})
	engine := NewEngine(ref, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Len(t, engine.All(nil), 8)
}

func TestEngineAllWhitelist(t *testing.T) {
	engine := testEngine()

	subset := engine.All([]int{6, 2})
	require.Len(t, subset, 2)
	assert.Equal(t, "line_id", subset[0].Config().ParamName)
	assert.Equal(t, "interval", subset[1].Config().ParamName)

	assert.Empty(t, engine.All([]int{}))
}

func TestEngineByNameAndByParam(t *testing.T) {
	engine := testEngine()

	f, ok := engine.ByName("ShiftFilter")
	require.True(t, ok)
	assert.Equal(t, "shift_id", f.Config().ParamName)

	f, ok = engine.ByParam("interval")
	require.True(t, ok)
	assert.Equal(t, "IntervalFilter", f.Config().ClassName)

	_, ok = engine.ByName("NoSuchFilter")
	assert.False(t, ok)
	_, ok = engine.ByParam("no_such_param")
	assert.False(t, ok)
}

func TestEngineResolveProductionLineOptions(t *testing.T) {
	engine := testEngine()

	resolved, ok := engine.ResolveOne("ProductionLineFilter", nil)
	require.True(t, ok)
	require.Len(t, resolved.Options, 4)

	all := resolved.Options[0]
	assert.Equal(t, "all", all.Value)
	assert.Equal(t, "Todas las líneas", all.Label)
	assert.Equal(t, true, all.Extra["is_group"])

	group := resolved.Options[1]
	assert.Equal(t, "group_2", group.Value)
	assert.Equal(t, "Envasado", group.Label)
	assert.Equal(t, []int{1, 2}, group.Extra["line_ids"])

	line := resolved.Options[2]
	assert.Equal(t, 1, line.Value)
	assert.Equal(t, "Encajado", line.Label)
	assert.Equal(t, false, line.Extra["is_group"])
	assert.Equal(t, "ENC", line.Extra["line_code"])
	assert.Equal(t, 300, line.Extra["downtime_threshold"])
}

func TestLineSelectorToSQLClauseExpandsGroups(t *testing.T) {
	engine := testEngine()

	f, ok := engine.ByParam("line_id")
	require.True(t, ok)

	clause, args := f.ToSQLClause("group_2")
	assert.Equal(t, "line_id IN (?, ?)", clause)
	assert.Equal(t, []any{1, 2}, args)

	clause, args = f.ToSQLClause("all")
	assert.Equal(t, "line_id IN (?, ?)", clause)
	assert.Equal(t, []any{1, 2}, args)

	clause, args = f.ToSQLClause(1)
	assert.Equal(t, "line_id = ?", clause)
	assert.Equal(t, []any{1}, args)
}

func TestEngineResolveAreaCascade(t *testing.T) {
	engine := testEngine()

	resolved, ok := engine.ResolveOne("AreaFilter", map[string]any{"line_id": 1})
	require.True(t, ok)
	require.Len(t, resolved.Options, 2)
	assert.Equal(t, 1, resolved.Options[0].Value)
	assert.Equal(t, 2, resolved.Options[1].Value)

	// No parent selection resolves the full area list.
	resolved, ok = engine.ResolveOne("AreaFilter", nil)
	require.True(t, ok)
	assert.Len(t, resolved.Options, 3)
}

func TestEngineResolveAllNeverReturnsNilOptions(t *testing.T) {
	engine := testEngine()

	for _, resolved := range engine.ResolveAll(nil, nil) {
		assert.NotNil(t, resolved.Options, "filter %s", resolved.ClassName)
	}

	_, ok := engine.ResolveOne("GhostFilter", nil)
	assert.False(t, ok)
}

func TestEngineValidateInputAppliesDefaults(t *testing.T) {
	engine := testEngine()

	result := engine.ValidateInput(map[string]any{})

	// The line selector is required and has no default, so the empty
	// request cannot be fully valid.
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "line_id")
	assert.Equal(t, "Valor inválido para ProductionLineFilter", result.Errors["line_id"])

	assert.Equal(t, "hour", result.Cleaned["interval"])
	assert.Equal(t, true, result.Cleaned["show_downtime"])
	assert.Equal(t, 300, result.Cleaned["downtime_threshold"])
	assert.Equal(t, []any{}, result.Cleaned["area_ids"])
	assert.Equal(t, []any{}, result.Cleaned["product_ids"])

	dr, ok := result.Cleaned["daterange"].(map[string]any)
	require.True(t, ok)
	start, err := time.Parse("2006-01-02", dr["start_date"].(string))
	require.NoError(t, err)
	end, err := time.Parse("2006-01-02", dr["end_date"].(string))
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, end.Sub(start))
	assert.Equal(t, "00:00", dr["start_time"])
	assert.Equal(t, "23:59", dr["end_time"])
}

func TestEngineValidateInputAcceptsFullRequest(t *testing.T) {
	engine := testEngine()

	input := map[string]any{
		"daterange": map[string]any{
			"start_date": "2026-01-05",
			"end_date":   "2026-01-11",
		},
		"line_id":            1.0,
		"shift_id":           2.0,
		"area_ids":           []any{1.0, 2.0},
		"product_ids":        []any{10.0},
		"interval":           "day",
		"downtime_threshold": 120.0,
		"show_downtime":      false,
	}

	result := engine.ValidateInput(input)
	require.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Equal(t, 1.0, result.Cleaned["line_id"])
	assert.Equal(t, "day", result.Cleaned["interval"])
	assert.Equal(t, false, result.Cleaned["show_downtime"])

	// Cleaned output must validate again unchanged.
	second := engine.ValidateInput(result.Cleaned)
	assert.True(t, second.Valid, "errors: %v", second.Errors)
	assert.Equal(t, result.Cleaned["line_id"], second.Cleaned["line_id"])
}

func TestEngineValidateInputAcceptsGroupKeys(t *testing.T) {
	engine := testEngine()

	result := engine.ValidateInput(map[string]any{
		"daterange": map[string]any{"start_date": "2026-01-05", "end_date": "2026-01-11"},
		"line_id":   "group_2",
	})
	assert.True(t, result.Valid, "errors: %v", result.Errors)

	result = engine.ValidateInput(map[string]any{
		"daterange": map[string]any{"start_date": "2026-01-05", "end_date": "2026-01-11"},
		"line_id":   "all",
	})
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestEngineValidateInputRejectsBadValues(t *testing.T) {
	engine := testEngine()

	result := engine.ValidateInput(map[string]any{
		"daterange": map[string]any{
			"start_date": "2026-01-11",
			"end_date":   "2026-01-05",
		},
		"line_id":            99,
		"interval":           "decade",
		"downtime_threshold": -5,
		"show_downtime":      "yes",
		"area_ids":           []any{999},
	})

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "daterange")
	assert.Contains(t, result.Errors, "line_id")
	assert.Contains(t, result.Errors, "interval")
	assert.Contains(t, result.Errors, "downtime_threshold")
	assert.Contains(t, result.Errors, "show_downtime")
	assert.Contains(t, result.Errors, "area_ids")

	// Rejected parameters never reach the cleaned map.
	assert.NotContains(t, result.Cleaned, "line_id")
	assert.NotContains(t, result.Cleaned, "interval")

	// Valid parameters survive alongside the failures.
	assert.Contains(t, result.Cleaned, "shift_id")
	assert.Contains(t, result.Cleaned, "product_ids")
}
