package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal         = "docsplice.files.total"
	metricUnitsTotal         = "docsplice.units.total"
	metricTransformsTotal    = "docsplice.transform.requests.total"
	metricTransformDuration  = "docsplice.transform.duration.seconds"
	metricTransformErrors    = "docsplice.transform.errors.total"
	metricMissingReplacement = "docsplice.units.missing.total"
	metricCacheHitsTotal     = "docsplice.cache.hits.total"
	metricCacheMissesTotal   = "docsplice.cache.misses.total"

	attrStatus  = "status"
	attrKind    = "kind"
	attrOutcome = "outcome"

	// StatusOK marks a successful file or transform call.
	StatusOK = "ok"
	// StatusError marks a failed file or transform call.
	StatusError = "error"
	// OutcomeTransformed marks a unit transformed in this run.
	OutcomeTransformed = "transformed"
	// OutcomeResumed marks a unit taken from an existing checkpoint.
	OutcomeResumed = "resumed"
)

// durationBucketBoundaries covers 10ms to 600s, from cached answers to slow
// multi-round model conversations.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RewriteMetrics holds the OTel instruments for a rewrite run.
// Every method is safe to call on a nil receiver.
type RewriteMetrics struct {
	filesTotal        metric.Int64Counter
	unitsTotal        metric.Int64Counter
	transformsTotal   metric.Int64Counter
	transformDuration metric.Float64Histogram
	transformErrors   metric.Int64Counter
	missingTotal      metric.Int64Counter
	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
}

// NewRewriteMetrics creates rewrite metric instruments from the given meter.
func NewRewriteMetrics(mt metric.Meter) (*RewriteMetrics, error) {
	var (
		rm  RewriteMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&rm.filesTotal, metricFilesTotal, "Files processed by status", "{file}"},
		{&rm.unitsTotal, metricUnitsTotal, "Docstrings completed by kind and outcome", "{docstring}"},
		{&rm.transformsTotal, metricTransformsTotal, "Transformer calls by status", "{request}"},
		{&rm.transformErrors, metricTransformErrors, "Failed transformer calls", "{error}"},
		{&rm.missingTotal, metricMissingReplacement, "Docstrings dropped for lack of a replacement", "{docstring}"},
		{&rm.cacheHits, metricCacheHitsTotal, "Transformations served from the cache", "{hit}"},
		{&rm.cacheMisses, metricCacheMissesTotal, "Transformations not found in the cache", "{miss}"},
	}

	for _, c := range counters {
		*c.dst, err = mt.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	rm.transformDuration, err = mt.Float64Histogram(metricTransformDuration,
		metric.WithDescription("Transformer call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTransformDuration, err)
	}

	return &rm, nil
}

// RecordFile records a processed file.
func (rm *RewriteMetrics) RecordFile(ctx context.Context, status string) {
	if rm == nil {
		return
	}

	rm.filesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordUnit records a completed docstring.
func (rm *RewriteMetrics) RecordUnit(ctx context.Context, kind, outcome string) {
	if rm == nil {
		return
	}

	rm.unitsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrKind, kind),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordTransform records one transformer call with its status and duration.
func (rm *RewriteMetrics) RecordTransform(ctx context.Context, status string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	rm.transformsTotal.Add(ctx, 1, attrs)
	rm.transformDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.transformErrors.Add(ctx, 1)
	}
}

// RecordMissing records docstrings dropped because they had no replacement.
func (rm *RewriteMetrics) RecordMissing(ctx context.Context, count int) {
	if rm == nil || count == 0 {
		return
	}

	rm.missingTotal.Add(ctx, int64(count))
}

// RecordCache records transformation cache statistics.
func (rm *RewriteMetrics) RecordCache(ctx context.Context, hits, misses int64) {
	if rm == nil {
		return
	}

	rm.cacheHits.Add(ctx, hits)
	rm.cacheMisses.Add(ctx, misses)
}
