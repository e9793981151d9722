package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

func TestLookupWidget(t *testing.T) {
	entry, ok := LookupWidget("KpiTotalWeight")
	require.True(t, ok)
	assert.Equal(t, CategoryKPI, entry.Category)
	assert.Equal(t, SourceInternal, entry.SourceType)
	assert.Contains(t, entry.RequiredColumns, detections.ColProductWeight)

	_, ok = LookupWidget("NoSuchWidget")
	assert.False(t, ok)
}

func TestWidgetClassNames(t *testing.T) {
	names := WidgetClassNames()
	assert.Len(t, names, 17)
	assert.Contains(t, names, "ProductionTimeChart")
	assert.Contains(t, names, "EventFeed")
}

func TestEveryWidgetHasRenderSpec(t *testing.T) {
	for _, name := range WidgetClassNames() {
		spec, ok := LookupRenderSpec(name)
		require.True(t, ok, "widget %s has no render spec", name)
		assert.NotEmpty(t, spec.Render, "widget %s", name)
		assert.GreaterOrEqual(t, spec.ColSpan, 1, "widget %s", name)
		assert.LessOrEqual(t, spec.ColSpan, GridColumns, "widget %s", name)
	}
}

func TestRenderSpecsHaveRegisteredWidgets(t *testing.T) {
	registered := map[string]bool{}
	for _, name := range WidgetClassNames() {
		registered[name] = true
	}

	for name := range widgetRenderMap {
		assert.True(t, registered[name], "render spec %s has no widget entry", name)
	}
}

func TestRenderSpecOrdersUnique(t *testing.T) {
	seen := map[int]string{}
	for name, spec := range widgetRenderMap {
		if prev, dup := seen[spec.Order]; dup {
			t.Fatalf("widgets %s and %s share grid order %d", prev, name, spec.Order)
		}
		seen[spec.Order] = name
	}
}

func TestRequiredColumnsAreMasterColumns(t *testing.T) {
	valid := map[string]bool{
		detections.ColDetectionID: true, detections.ColDetectedAt: true,
		detections.ColAreaID: true, detections.ColProductID: true,
		detections.ColLineID: true, detections.ColAreaName: true,
		detections.ColAreaType: true, detections.ColLineName: true,
		detections.ColLineCode: true, detections.ColProductName: true,
		detections.ColProductCode: true, detections.ColProductWeight: true,
		detections.ColProductColor: true,
	}

	for _, name := range WidgetClassNames() {
		entry, _ := LookupWidget(name)
		for _, col := range entry.RequiredColumns {
			assert.True(t, valid[col], "widget %s requires unknown column %q", name, col)
		}
	}
}
