package application

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"marketplace-admin/internal/observability/metrics"
	"marketplace-admin/internal/period"
	records "marketplace-admin/internal/records/domain"
)

// Query selects the period and metric of a view.
type Query struct {
	Period     period.Period
	Custom     *period.CustomRange
	ValueField string
}

// Window describes one resolved period.
type Window struct {
	Period  period.Period `json:"period"`
	Label   string        `json:"label"`
	Range   period.Range  `json:"range"`
	Display string        `json:"display"`
}

// View is a resource filtered to a period and compared with its previous period.
type View struct {
	Resource   string            `json:"resource"`
	Current    Window            `json:"current"`
	Previous   Window            `json:"previous"`
	ValueField string            `json:"value_field,omitempty"`
	Records    []records.Record  `json:"records"`
	Total      int               `json:"total"`
	Matched    int               `json:"matched"`
	Excluded   int               `json:"excluded"`
	Comparison period.Comparison `json:"comparison"`
}

// PeriodOption is one entry of the period selector.
type PeriodOption struct {
	Value period.Period `json:"value"`
	Label string        `json:"label"`
}

// Service builds dashboard views from a record source.
type Service struct {
	source   records.Source
	catalog  *records.Catalog
	resolver *period.Resolver
}

// NewService constructs a Service.
func NewService(source records.Source, catalog *records.Catalog, resolver *period.Resolver) (*Service, error) {
	if source == nil {
		return nil, errors.New("dashboard service: nil source")
	}
	if catalog == nil {
		return nil, errors.New("dashboard service: nil catalog")
	}
	if resolver == nil {
		resolver = period.NewResolver(nil, nil)
	}
	return &Service{source: source, catalog: catalog, resolver: resolver}, nil
}

// Periods returns the selector options with their labels.
func (s *Service) Periods() []PeriodOption {
	options := make([]PeriodOption, 0, len(period.SelectorOptions))
	for _, p := range period.SelectorOptions {
		options = append(options, PeriodOption{Value: p, Label: period.Label(p)})
	}
	return options
}

// Resources returns the catalog.
func (s *Service) Resources() []records.Resource {
	return s.catalog.Resources()
}

// View loads a resource, filters it to the selected period and compares it with
// the previous period. An empty Query.Period selects this month.
func (s *Service) View(ctx context.Context, resourceName string, q Query) (*View, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDashboardView(resourceName, result, time.Since(start))
	}()

	view, err := s.view(ctx, resourceName, q)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	metrics.AddExcludedRecords(resourceName, view.Excluded)
	return view, nil
}

func (s *Service) view(ctx context.Context, resourceName string, q Query) (*View, error) {
	res, err := s.catalog.Get(resourceName)
	if err != nil {
		return nil, err
	}
	list, err := s.source.List(ctx, res)
	if err != nil {
		return nil, err
	}

	selected := q.Period
	if selected == "" {
		selected = period.ThisMonth
	}
	valueField := q.ValueField
	if valueField == "" {
		valueField = res.ValueField
	}

	now := s.resolver.Now()
	current := period.Resolve(selected, q.Custom, now)
	previousPeriod := period.Previous(selected)
	previous := period.Resolve(previousPeriod, nil, now)

	currentRecords := period.FilterByField(list, res.DateField, current)
	previousRecords := period.FilterByField(list, res.DateField, previous)

	return &View{
		Resource:   res.Name,
		Current:    window(selected, current),
		Previous:   window(previousPeriod, previous),
		ValueField: valueField,
		Records:    currentRecords,
		Total:      len(list),
		Matched:    len(currentRecords),
		Excluded:   countUndated(list, res.DateField, now.Location()),
		Comparison: period.CompareByField(currentRecords, previousRecords, valueField),
	}, nil
}

// Overview builds a view of every resource without the record lists.
func (s *Service) Overview(ctx context.Context, q Query) ([]View, error) {
	resources := s.catalog.Resources()
	views := make([]View, len(resources))
	g, ctx := errgroup.WithContext(ctx)
	for i, res := range resources {
		i, res := i, res
		g.Go(func() error {
			q := q
			q.ValueField = ""
			view, err := s.View(ctx, res.Name, q)
			if err != nil {
				return err
			}
			view.Records = nil
			views[i] = *view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

func window(p period.Period, r period.Range) Window {
	return Window{
		Period:  p,
		Label:   period.Label(p),
		Range:   r,
		Display: period.FormatRange(r),
	}
}

func countUndated(list []records.Record, dateField string, loc *time.Location) int {
	n := 0
	for _, record := range list {
		if _, ok := period.ParseDate(record[dateField], loc); !ok {
			n++
		}
	}
	return n
}

// Location returns the location calendar periods are resolved in.
func (s *Service) Location() *time.Location {
	return s.resolver.Location()
}
