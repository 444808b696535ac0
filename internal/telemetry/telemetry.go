package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "cadence"

// Metric names.
const (
	MetricFragmentsSynthesized = "cadence.fragments.synthesized"
	MetricSynthesisFailures    = "cadence.synthesis.failures"
	MetricSynthesisLatency     = "cadence.synthesis.latency"
	MetricSegmentsAssembled    = "cadence.segments.assembled"
	MetricSegmentsReused       = "cadence.segments.reused"
	MetricConcatenations       = "cadence.segments.concatenations"
	MetricAudioSeconds         = "cadence.audio.seconds"
	MetricTimelinesCompiled    = "cadence.timelines.compiled"
	MetricLessonBuilds         = "cadence.lessons.builds"
)

// Instruments groups the counters recorded during a run.
type Instruments struct {
	FragmentsSynthesized metric.Int64Counter
	SynthesisFailures    metric.Int64Counter
	SynthesisLatency     metric.Float64Histogram
	SegmentsAssembled    metric.Int64Counter
	SegmentsReused       metric.Int64Counter
	Concatenations       metric.Int64Counter
	AudioSeconds         metric.Float64Counter
	TimelinesCompiled    metric.Int64Counter
	LessonBuilds         metric.Int64Counter
}

// NewInstruments registers every instrument on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	var (
		ins  Instruments
		errs []error
		err  error
	)
	ins.FragmentsSynthesized, err = meter.Int64Counter(MetricFragmentsSynthesized, metric.WithDescription("Fragments sent to the speech provider"))
	errs = append(errs, err)
	ins.SynthesisFailures, err = meter.Int64Counter(MetricSynthesisFailures, metric.WithDescription("Failed synthesis calls"))
	errs = append(errs, err)
	ins.SynthesisLatency, err = meter.Float64Histogram(MetricSynthesisLatency, metric.WithDescription("Speech provider latency"), metric.WithUnit("s"))
	errs = append(errs, err)
	ins.SegmentsAssembled, err = meter.Int64Counter(MetricSegmentsAssembled, metric.WithDescription("Segments assembled into audio"))
	errs = append(errs, err)
	ins.SegmentsReused, err = meter.Int64Counter(MetricSegmentsReused, metric.WithDescription("Segments reused from stored results"))
	errs = append(errs, err)
	ins.Concatenations, err = meter.Int64Counter(MetricConcatenations, metric.WithDescription("Segments joined from multiple fragments"))
	errs = append(errs, err)
	ins.AudioSeconds, err = meter.Float64Counter(MetricAudioSeconds, metric.WithDescription("Seconds of segment audio produced"), metric.WithUnit("s"))
	errs = append(errs, err)
	ins.TimelinesCompiled, err = meter.Int64Counter(MetricTimelinesCompiled, metric.WithDescription("Timelines written or loaded"))
	errs = append(errs, err)
	ins.LessonBuilds, err = meter.Int64Counter(MetricLessonBuilds, metric.WithDescription("Lesson builds by outcome"))
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("register instruments: %w", err)
	}
	return &ins, nil
}

// Nop returns instruments that record nothing.
func Nop() *Instruments {
	ins, err := NewInstruments(noop.NewMeterProvider().Meter(meterName))
	if err != nil {
		panic(err)
	}
	return ins
}

// Provider is an in-process meter provider read on demand.
type Provider struct {
	provider    *sdkmetric.MeterProvider
	reader      *sdkmetric.ManualReader
	Instruments *Instruments
}

// New builds a meter provider backed by a manual reader.
func New() (*Provider, error) {
	reader := sdkmetric.NewManualReader()
	res := resource.NewSchemaless(attribute.String("service.name", meterName))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	ins, err := NewInstruments(provider.Meter(meterName))
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return &Provider{provider: provider, reader: reader, Instruments: ins}, nil
}

// Shutdown releases the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Sample is one flattened data point.
type Sample struct {
	Name       string
	Unit       string
	Attributes string
	Value      float64
	Count      uint64
}

// Snapshot collects current values. Histograms report their sum in Value and
// the number of observations in Count.
func (p *Provider) Snapshot(ctx context.Context) ([]Sample, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}
	var samples []Sample
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					samples = append(samples, Sample{Name: m.Name, Unit: m.Unit, Attributes: encode(dp.Attributes), Value: float64(dp.Value), Count: 1})
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					samples = append(samples, Sample{Name: m.Name, Unit: m.Unit, Attributes: encode(dp.Attributes), Value: dp.Value, Count: 1})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					samples = append(samples, Sample{Name: m.Name, Unit: m.Unit, Attributes: encode(dp.Attributes), Value: dp.Sum, Count: dp.Count})
				}
			}
		}
	}
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Attributes < samples[j].Attributes
	})
	return samples, nil
}

// Total sums the values recorded for name across attribute sets.
func Total(samples []Sample, name string) float64 {
	var total float64
	for _, s := range samples {
		if s.Name == name {
			total += s.Value
		}
	}
	return total
}

func encode(set attribute.Set) string {
	return set.Encoded(attribute.DefaultEncoder())
}
