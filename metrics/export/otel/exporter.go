package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/techcare/careauth"
	"github.com/techcare/careauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() careauth.MetricsSnapshot
	AuditDropped() uint64
}

type counterInstrument struct {
	id  careauth.MetricID
	ins metric.Int64ObservableCounter
}

// latencyInstruments publishes one cumulative gauge per bucket bound plus a
// sample count.
type latencyInstruments struct {
	id     careauth.MetricID
	bounds [internaldefs.BucketCount]metric.Int64ObservableGauge
	count  metric.Int64ObservableGauge
}

// OTelExporter publishes engine counters and latency buckets as observable
// instruments. Close unregisters the collection callback.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []counterInstrument
	latencies    []latencyInstruments
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers observable instruments on meter backed by engine.
func NewOTelExporter(meter metric.Meter, engine *careauth.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers observable instruments backed by source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterInstrument{id: def.ID, ins: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		li, created, err := newLatencyInstruments(meter, def)
		if err != nil {
			return nil, err
		}
		e.latencies = append(e.latencies, li)
		observables = append(observables, created...)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func newLatencyInstruments(meter metric.Meter, def internaldefs.HistogramDef) (latencyInstruments, []metric.Observable, error) {
	li := latencyInstruments{id: def.ID}
	created := make([]metric.Observable, 0, internaldefs.BucketCount+1)

	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
		if err != nil {
			return li, nil, fmt.Errorf("gauge %s: %w", name, err)
		}
		li.bounds[i] = ins
		created = append(created, ins)
	}

	name := def.Name + "_count"
	count, err := meter.Int64ObservableGauge(name, metric.WithDescription("Histogram total sample count."))
	if err != nil {
		return li, nil, fmt.Errorf("gauge %s: %w", name, err)
	}
	li.count = count
	return li, append(created, count), nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		o.ObserveInt64(c.ins, int64(snap.Counters[c.id]))
	}
	for _, li := range e.latencies {
		cum := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[li.id]))
		for i := range cum {
			o.ObserveInt64(li.bounds[i], int64(cum[i]))
		}
		o.ObserveInt64(li.count, int64(cum[len(cum)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
