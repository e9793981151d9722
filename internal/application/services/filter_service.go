package services

import (
	"sort"

	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
)

// FilterService exposes the filter engine to the HTTP surface: filter
// listings with resolved options, cascade option reloads, the area
// lookup and input validation. Engines are built per request over the
// tenant's snapshot, which keeps them trivially cheap and always
// consistent with the cache.
type FilterService struct {
	logger *logging.ChanneledLogger
}

// NewFilterService creates the filter service.
func NewFilterService(logger *logging.ChanneledLogger) *FilterService {
	return &FilterService{logger: logger}
}

func (s *FilterService) engine(snap *types.Snapshot) *filters.Engine {
	return filters.NewEngine(snap, s.logger.Filter())
}

// ResolveAll returns the active filters with resolved options. A
// non-nil filterIDs whitelist narrows the set, which is how
// layout_config drives the filter bar.
func (s *FilterService) ResolveAll(snap *types.Snapshot, filterIDs []int) []filters.Resolved {
	return s.engine(snap).ResolveAll(nil, filterIDs)
}

// ResolveOne resolves a single filter by class name.
func (s *FilterService) ResolveOne(snap *types.Snapshot, className string) (filters.Resolved, bool) {
	return s.engine(snap).ResolveOne(className, nil)
}

// Options reloads the options of one filter with cascade parents
// applied, for example area options narrowed to a selected line.
func (s *FilterService) Options(snap *types.Snapshot, className string, parentValues map[string]any) ([]filters.FilterOption, bool) {
	f, ok := s.engine(snap).ByName(className)
	if !ok {
		return nil, false
	}
	opts := f.Options(parentValues)
	if opts == nil {
		opts = []filters.FilterOption{}
	}
	return opts, true
}

// Validate checks a complete set of user filter values and returns the
// per-parameter errors plus the cleaned values.
func (s *FilterService) Validate(snap *types.Snapshot, userParams map[string]any) filters.ValidationResult {
	return s.engine(snap).ValidateInput(userParams)
}

// Areas returns area options straight from the cache, optionally
// narrowed to one line. This lookup works even when no area filter row
// is active, so cascades never depend on filter_status.
func (s *FilterService) Areas(snap *types.Snapshot, lineID int, haveLine bool) []filters.FilterOption {
	areas := snap.AllAreas()

	options := make([]filters.FilterOption, 0, len(areas))
	for _, area := range areas {
		if haveLine && area.LineID != lineID {
			continue
		}
		options = append(options, filters.FilterOption{
			Value: area.AreaID,
			Label: area.AreaName,
			Extra: map[string]any{"area_type": area.AreaType, "line_id": area.LineID},
		})
	}
	sort.Slice(options, func(i, j int) bool {
		return options[i].Value.(int) < options[j].Value.(int)
	})
	return options
}
