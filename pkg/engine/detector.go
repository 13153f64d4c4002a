// Package engine ties the magic registry, TLS ALPN parser, and probe
// battery together into the deterministic, stateless-between-calls
// detection engine spec.md describes: one Detect call in, one
// protocol.Result or DetectorError out, nothing shared with the next call
// except the immutable DetectionConfig and the read-only registries built
// at construction time.
package engine

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/protosentry/detector/pkg/aggregate"
	"github.com/protosentry/detector/pkg/logging"
	"github.com/protosentry/detector/pkg/magic"
	"github.com/protosentry/detector/pkg/probe"
	"github.com/protosentry/detector/pkg/protocol"
	"github.com/protosentry/detector/pkg/tlsalpn"
)

// Detector is the engine's public entry point. It is safe for concurrent
// use: Detect never mutates the Detector itself, only the *probe.Context
// local to that call.
type Detector struct {
	config    DetectionConfig
	magic     *magic.Registry
	probes    *probe.Registry
	aggregate *aggregate.Aggregator
	log       *logrus.Logger
}

// New builds a Detector from config, validating it first. A nil logger
// uses pkg/logging's discard-everything default.
func New(config DetectionConfig, log *logrus.Logger) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Default()
	}

	reg, err := magic.NewRegistry()
	if err != nil {
		return nil, &DetectorError{Kind: KindInternal, Message: err.Error()}
	}
	reg.SetALPNDetector(tlsalpn.NewDetector())

	probes := probe.NewRegistry()
	// The heuristic probe is registered once, as global: it already
	// reports every protocol it can recognize via SupportedProtocols, so
	// also registering it per-protocol would make GetProbes return it
	// twice for any protocol it supports.
	probes.RegisterGlobalProbe(probe.NewHeuristicProbe())
	probes.RegisterGlobalProbe(probe.NewStatisticalProbe(config.Probe.BufferSize / 128))
	probes.RegisterProbe(probe.NewStunProbe())

	return &Detector{
		config:    config,
		magic:     reg,
		probes:    probes,
		aggregate: aggregate.New(),
		log:       log,
	}, nil
}

// Name identifies this engine in logs and diagnostics.
func (d *Detector) Name() string { return "protosentry-detector" }

// MinProbeSize returns the minimum byte count Detect requires.
func (d *Detector) MinProbeSize() int { return d.config.MinDataSize }

// MaxProbeSize returns the maximum byte count Detect accepts.
func (d *Detector) MaxProbeSize() int { return d.config.MaxDataSize }

// SupportedProtocols returns the union of protocols the magic registry
// and the probe battery can recognize.
func (d *Detector) SupportedProtocols() []protocol.Type {
	seen := make(map[protocol.Type]bool)
	var out []protocol.Type
	add := func(t protocol.Type) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range d.magic.SupportedProtocols() {
		add(t)
	}
	for _, p := range d.probes.AllProbes() {
		for _, t := range p.SupportedProtocols() {
			add(t)
		}
	}
	return out
}

// Detect classifies data, running the magic registry first and falling
// back to the probe battery only if the magic registry didn't reach
// MinConfidence on its own. Once config.Probe.MaxProbeTime has elapsed it
// starts no further probe; a probe already running is not interrupted.
// Probe candidates for protocols outside EnabledProtocols (other than
// Custom) are discarded before aggregation.
func (d *Detector) Detect(data []byte) (protocol.Result, error) {
	start := time.Now()

	if len(data) < d.config.MinDataSize {
		return protocol.Result{}, errInsufficientData(
			"need at least " + strconv.Itoa(d.config.MinDataSize) + " bytes")
	}
	if len(data) > d.config.MaxDataSize {
		return protocol.Result{}, errDataTooLarge(
			"data exceeds max_data_size of " + strconv.Itoa(d.config.MaxDataSize) + " bytes")
	}

	enabled, allEnabled := d.config.enabledSet()

	if info, ok := d.magic.QuickDetect(data, enabled, allEnabled); ok {
		if info.IsConfident(d.config.MinConfidence) {
			d.log.WithFields(logrus.Fields{
				"protocol":   info.ProtocolType.String(),
				"confidence": info.Confidence,
			}).Debug("magic registry reached a confident verdict")
			return protocol.Result{
				Info:         info,
				Elapsed:      time.Since(start).Nanoseconds(),
				Method:       protocol.MethodPassive,
				DetectorName: "magic",
			}, nil
		}
	}

	ctx := probe.NewContext(len(data))
	var names []string

	for _, p := range d.probes.AllProbes() {
		if ctx.IsTimeout(d.config.maxProbeTime()) {
			d.log.Warn("probe battery hit its time budget before exhausting all probes")
			break
		}
		if !allEnabled && !probeSupportsAny(p, enabled) {
			continue
		}
		if p.NeedsMoreData(data) {
			continue
		}
		before := len(ctx.Candidates)
		_, ok, err := p.Probe(data, ctx)
		if err != nil {
			d.log.WithFields(logrus.Fields{"probe": p.Name(), "error": err}).
				Warn("probe returned an error, skipping it")
			continue
		}
		if ok {
			for range ctx.Candidates[before:] {
				names = append(names, p.Name())
			}
		}
	}

	candidates := ctx.Candidates
	if !allEnabled {
		candidates = make([]protocol.Info, 0, len(ctx.Candidates))
		for _, c := range ctx.Candidates {
			if enabled[c.ProtocolType] || c.ProtocolType == protocol.Custom {
				candidates = append(candidates, c)
			}
		}
	}
	best, ok := d.aggregate.Aggregate(candidates, d.config.MinConfidence)
	if !ok {
		return protocol.Result{}, errNoProtocolDetected(
			"no probe reached the configured minimum confidence")
	}
	detectorName := "probe-battery"
	for i, c := range ctx.Candidates {
		if c.ProtocolType == best.ProtocolType && c.Confidence == best.Confidence {
			detectorName = names[i]
			break
		}
	}
	return protocol.Result{
		Info:         best,
		Elapsed:      time.Since(start).Nanoseconds(),
		Method:       aggregate.MethodForStrategy(d.config.Probe.Strategy),
		DetectorName: detectorName,
	}, nil
}

// DetectBatch runs Detect independently over every item, preserving
// order. A failure on one item never aborts the rest.
func (d *Detector) DetectBatch(items [][]byte) ([]protocol.Result, []error) {
	results := make([]protocol.Result, len(items))
	errs := make([]error, len(items))
	for i, data := range items {
		results[i], errs[i] = d.Detect(data)
	}
	return results, errs
}

// Confidence runs Detect and returns just the resulting confidence,
// 0 on any error.
func (d *Detector) Confidence(data []byte) float64 {
	result, err := d.Detect(data)
	if err != nil {
		return 0
	}
	return result.Info.Confidence
}

func probeSupportsAny(p probe.ProtocolProbe, enabled map[protocol.Type]bool) bool {
	for _, t := range p.SupportedProtocols() {
		if enabled[t] {
			return true
		}
	}
	return false
}
