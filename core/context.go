package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"xlreport/config"
)

// DefaultRowLimit caps fetched rows unless a report opts out.
const DefaultRowLimit = 2000

// FetchOptions carries the request parameters and row cap of one fetch.
type FetchOptions struct {
	Params    map[string]string
	RowLimit  int
	Unlimited bool
}

// Limit returns the effective row cap, 0 meaning unlimited.
func (o FetchOptions) Limit() int {
	if o.Unlimited {
		return 0
	}
	if o.RowLimit > 0 {
		return o.RowLimit
	}
	return DefaultRowLimit
}

// DataFetcher loads the rows of a source.
type DataFetcher interface {
	Fetch(ctx context.Context, source config.SourceConfig, opts FetchOptions) (*RowSet, error)
}

// GenerationContext holds the state of one generation: merged parameters
// and the rows already fetched for it. It is never shared between requests.
type GenerationContext struct {
	Report         *config.ReportConfig
	Parameters     map[string]string
	Fetcher        DataFetcher
	ConfigProvider config.Provider
	// Rows fetched so far, keyed by data key.
	Loaded map[string]*RowSet
}

// NewGenerationContext merges report and request parameters and resolves
// dynamic date expressions against the current time.
func NewGenerationContext(report *config.ReportConfig, provider config.Provider, fetcher DataFetcher, params map[string]string) *GenerationContext {
	return newGenerationContextAt(report, provider, fetcher, params, time.Now())
}

func newGenerationContextAt(report *config.ReportConfig, provider config.Provider, fetcher DataFetcher, params map[string]string, now time.Time) *GenerationContext {
	merged := make(map[string]string)
	for k, v := range report.Parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	for k, v := range merged {
		if strings.HasPrefix(v, "$date:") {
			if val, err := ParseDynamicDate(v, now); err == nil {
				merged[k] = val
			} else {
				slog.Warn("Invalid dynamic date parameter", "param", k, "error", err)
			}
		}
	}
	return &GenerationContext{
		Report:         report,
		Parameters:     merged,
		Fetcher:        fetcher,
		ConfigProvider: provider,
		Loaded:         make(map[string]*RowSet),
	}
}

func (c *GenerationContext) fetchOptions() FetchOptions {
	return FetchOptions{
		Params:    c.Parameters,
		RowLimit:  c.Report.RowLimit,
		Unlimited: c.Report.Unlimited,
	}
}

// sourceFor resolves the source a binding reads from.
func (c *GenerationContext) sourceFor(b Binding) (config.SourceConfig, error) {
	if pb, ok := b.(*PlaceholderBinding); ok && pb.DataKey() == pb.Placeholder.ID {
		return config.SourceConfig{ID: b.DataKey(), SQL: pb.Source.Query}, nil
	}
	conf, err := c.ConfigProvider.GetSourceConfig(b.DataKey())
	if err != nil {
		return config.SourceConfig{}, err
	}
	return *conf, nil
}

// LoadData fetches the rows of every binding once per data key. Sources that
// fail are logged and left out, so their bindings are skipped on resolve.
func (c *GenerationContext) LoadData(ctx context.Context, bindings []Binding) map[string]*RowSet {
	data := make(map[string]*RowSet)
	for _, b := range bindings {
		key := b.DataKey()
		if _, ok := data[key]; ok {
			continue
		}
		if rows, ok := c.Loaded[key]; ok {
			data[key] = rows.Copy()
			continue
		}
		src, err := c.sourceFor(b)
		if err != nil {
			slog.Warn("Unknown binding source", "binding", bindingName(b), "source", key, "error", err)
			continue
		}
		rows, err := c.Fetcher.Fetch(ctx, src, c.fetchOptions())
		if err != nil {
			slog.Warn("Fetch failed", "binding", bindingName(b), "source", key, "error", err)
			continue
		}
		c.Loaded[key] = rows
		data[key] = rows.Copy()

		slog.Debug("Source fetched", "source", key, "rows", rows.Len())
	}
	return data
}
