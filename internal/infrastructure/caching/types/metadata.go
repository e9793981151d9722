// Package types defines the metadata snapshot structures cached per tenant.
package types

import (
	"sort"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// Snapshot is an immutable view of one tenant's reference data plus the
// global widget catalog. It is built in full and published by pointer
// swap; readers never observe a partially loaded state.
type Snapshot struct {
	DBName   string
	LoadedAt time.Time

	ProductionLines map[int]catalog.ProductionLine
	Areas           map[int]catalog.Area
	Products        map[int]catalog.Product
	Shifts          map[int]catalog.Shift
	Filters         map[int]catalog.FilterRow
	Failures        map[int]catalog.Failure
	Incidents       map[int]catalog.Incident
	WidgetCatalog   map[int]admin.WidgetCatalogEntry
}

// AgeSeconds returns how long ago the snapshot was loaded.
func (s *Snapshot) AgeSeconds() float64 {
	return time.Since(s.LoadedAt).Seconds()
}

// Line returns a production line by ID.
func (s *Snapshot) Line(lineID int) (catalog.ProductionLine, bool) {
	line, ok := s.ProductionLines[lineID]
	return line, ok
}

// ActiveLineIDs returns the IDs of all cached production lines in
// ascending order. Only active lines are loaded into the snapshot.
func (s *Snapshot) ActiveLineIDs() []int {
	ids := make([]int, 0, len(s.ProductionLines))
	for id := range s.ProductionLines {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AreasByLine returns the areas of a line ordered by area_order.
func (s *Snapshot) AreasByLine(lineID int) []catalog.Area {
	var areas []catalog.Area
	for _, a := range s.Areas {
		if a.LineID == lineID {
			areas = append(areas, a)
		}
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].AreaOrder < areas[j].AreaOrder })
	return areas
}

// IsDualArea reports whether a line has both input and output areas.
func (s *Snapshot) IsDualArea(lineID int) bool {
	hasInput, hasOutput := false, false
	for _, a := range s.Areas {
		if a.LineID != lineID {
			continue
		}
		switch a.AreaType {
		case detections.AreaTypeInput:
			hasInput = true
		case detections.AreaTypeOutput:
			hasOutput = true
		}
	}
	return hasInput && hasOutput
}

// Shift returns a shift by ID. Only active shifts are cached.
func (s *Snapshot) Shift(shiftID int) (catalog.Shift, bool) {
	shift, ok := s.Shifts[shiftID]
	return shift, ok
}

// ActiveShifts returns all cached shifts ordered by shift_id.
func (s *Snapshot) ActiveShifts() []catalog.Shift {
	shifts := make([]catalog.Shift, 0, len(s.Shifts))
	for _, sh := range s.Shifts {
		shifts = append(shifts, sh)
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].ShiftID < shifts[j].ShiftID })
	return shifts
}

// Product returns a product by ID.
func (s *Snapshot) Product(productID int) (catalog.Product, bool) {
	p, ok := s.Products[productID]
	return p, ok
}

// ActiveFilters returns the cached filter rows ordered by display_order.
func (s *Snapshot) ActiveFilters() []catalog.FilterRow {
	rows := make([]catalog.FilterRow, 0, len(s.Filters))
	for _, f := range s.Filters {
		rows = append(rows, f)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DisplayOrder != rows[j].DisplayOrder {
			return rows[i].DisplayOrder < rows[j].DisplayOrder
		}
		return rows[i].FilterID < rows[j].FilterID
	})
	return rows
}

// Filter returns a filter row by ID.
func (s *Snapshot) Filter(filterID int) (catalog.FilterRow, bool) {
	f, ok := s.Filters[filterID]
	return f, ok
}

// Incident returns an incident by ID.
func (s *Snapshot) Incident(incidentID int) (catalog.Incident, bool) {
	i, ok := s.Incidents[incidentID]
	return i, ok
}

// Failure returns a failure category by ID.
func (s *Snapshot) Failure(failureID int) (catalog.Failure, bool) {
	f, ok := s.Failures[failureID]
	return f, ok
}

// IncidentsByFailure returns all incidents of a failure category.
func (s *Snapshot) IncidentsByFailure(failureID int) []catalog.Incident {
	var out []catalog.Incident
	for _, i := range s.Incidents {
		if i.FailureID == failureID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IncidentID < out[j].IncidentID })
	return out
}

// WidgetByName returns the catalog entry whose widget_name matches the
// given class name.
func (s *Snapshot) WidgetByName(className string) (admin.WidgetCatalogEntry, bool) {
	for _, w := range s.WidgetCatalog {
		if w.WidgetName == className {
			return w, true
		}
	}
	return admin.WidgetCatalogEntry{}, false
}

// Widget returns a catalog entry by widget_id.
func (s *Snapshot) Widget(widgetID int) (admin.WidgetCatalogEntry, bool) {
	w, ok := s.WidgetCatalog[widgetID]
	return w, ok
}

// AllAreas returns every cached area ordered by area_id.
func (s *Snapshot) AllAreas() []catalog.Area {
	areas := make([]catalog.Area, 0, len(s.Areas))
	for _, a := range s.Areas {
		areas = append(areas, a)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].AreaID < areas[j].AreaID })
	return areas
}

// AllProducts returns every cached product ordered by product_id.
func (s *Snapshot) AllProducts() []catalog.Product {
	products := make([]catalog.Product, 0, len(s.Products))
	for _, p := range s.Products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ProductID < products[j].ProductID })
	return products
}

// TableInfo summarizes one cached reference table.
type TableInfo struct {
	Count      int     `json:"count"`
	LoadedAt   string  `json:"loaded_at"`
	AgeSeconds float64 `json:"age_seconds"`
}

// CacheInfo is the summary returned by the cache info endpoint.
type CacheInfo struct {
	CurrentTenant string               `json:"current_tenant,omitempty"`
	Tables        map[string]TableInfo `json:"tables"`
}
