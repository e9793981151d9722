package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

func TestEnrichJoinsCacheMaps(t *testing.T) {
	productID := 10
	rows := []detections.Detection{
		{DetectionID: 1, DetectedAt: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), AreaID: 2, ProductID: &productID, LineID: 1},
	}
	areas := map[int]catalog.Area{
		2: {AreaID: 2, LineID: 1, AreaName: "Salida Encajado", AreaType: "output"},
	}
	products := map[int]catalog.Product{
		10: {ProductID: 10, ProductName: "Botella 1L", ProductCode: "B1L", ProductWeight: 0.55, ProductColor: "#3b82f6"},
	}
	lines := map[int]catalog.ProductionLine{
		1: {LineID: 1, LineName: "Encajado", LineCode: "ENC"},
	}

	set := Enrich(rows, areas, products, lines)
	require.Equal(t, 1, set.Len())

	row := set.Rows()[0]
	assert.Equal(t, "Salida Encajado", row.AreaName)
	assert.Equal(t, "output", row.AreaType)
	assert.Equal(t, "Botella 1L", row.ProductName)
	assert.Equal(t, "B1L", row.ProductCode)
	assert.Equal(t, 0.55, row.ProductWeight)
	assert.Equal(t, "#3b82f6", row.ProductColor)
	assert.Equal(t, "Encajado", row.LineName)
	assert.Equal(t, "ENC", row.LineCode)
	assert.True(t, set.Has(detections.ColProductWeight))
}

func TestEnrichUnknownReferencesGetSentinels(t *testing.T) {
	missingProduct := 999
	rows := []detections.Detection{
		{DetectionID: 1, AreaID: 50, ProductID: &missingProduct, LineID: 42},
		{DetectionID: 2, AreaID: 50, LineID: 42}, // nil product
	}

	set := Enrich(rows, map[int]catalog.Area{}, map[int]catalog.Product{}, map[int]catalog.ProductionLine{})
	require.Equal(t, 2, set.Len())

	for _, row := range set.Rows() {
		assert.Equal(t, "Desconocida", row.AreaName)
		assert.Equal(t, "unknown", row.AreaType)
		assert.Equal(t, "Desconocido", row.ProductName)
		assert.Equal(t, "#888888", row.ProductColor)
		assert.Equal(t, "Desconocida", row.LineName)
	}
}

func TestEnrichBlankProductColorGetsFallback(t *testing.T) {
	productID := 10
	rows := []detections.Detection{{DetectionID: 1, AreaID: 1, ProductID: &productID, LineID: 1}}
	products := map[int]catalog.Product{10: {ProductID: 10, ProductName: "Botella 1L"}}

	set := Enrich(rows, map[int]catalog.Area{}, products, map[int]catalog.ProductionLine{})
	assert.Equal(t, "#888888", set.Rows()[0].ProductColor)
	assert.Equal(t, "Botella 1L", set.Rows()[0].ProductName)
}

func TestEnrichEmptyInput(t *testing.T) {
	set := Enrich(nil, nil, nil, nil)
	assert.True(t, set.Empty())
	assert.False(t, set.Has(detections.ColDetectedAt), "empty sets expose no columns")
}
