/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package coordinator wires a config.Pipeline into a dag.Graph over a
// store.SampleReader, runs it field by field reporting progress and
// throughput, feeds the resulting observations to the mapping analyzer,
// and writes the combined AnalysisResult out to one or more
// destinations.
package coordinator

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/ioext"
	"github.com/coreos/go-systemd/daemon"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/orc/config"
	"github.com/ausocean/orc/dag"
	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/mapping"
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/observer/biphase"
	"github.com/ausocean/orc/observer/burstlevel"
	"github.com/ausocean/orc/observer/closedcaption"
	"github.com/ausocean/orc/observer/dropout"
	"github.com/ausocean/orc/observer/fieldparity"
	"github.com/ausocean/orc/observer/fmcode"
	"github.com/ausocean/orc/observer/leadinout"
	"github.com/ausocean/orc/observer/palphase"
	"github.com/ausocean/orc/observer/pulldown"
	"github.com/ausocean/orc/observer/vits"
	"github.com/ausocean/orc/observer/whiteflag"
	"github.com/ausocean/orc/orcerr"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/store"
	"github.com/ausocean/orc/video"
)

// watchdogEvery sets how many fields pass between systemd watchdog pings
// when orc runs as a long-lived service processing a capture queue.
// SdNotify is a no-op outside a systemd unit with WatchdogSec set, so
// this costs nothing when unused.
const watchdogEvery = 2000

// Logger is the subset of github.com/ausocean/utils/logging.Logger that
// this package calls.
type Logger interface {
	SetLevel(int8)
	Log(level int8, message string, params ...interface{})
	Debug(message string, params ...interface{})
	Info(message string, params ...interface{})
	Warning(message string, params ...interface{})
	Error(message string, params ...interface{})
}

// registry maps an observer name, as used in config.NodeConfig.Observer,
// to a constructor. The built-in observers are listed here directly;
// callers add further observers with Register.
var registry = map[string]func(opts map[string]interface{}) observer.Observer{
	"biphase":       func(map[string]interface{}) observer.Observer { return biphase.Observer{} },
	"fieldparity":   func(map[string]interface{}) observer.Observer { return fieldparity.Observer{} },
	"palphase":      func(map[string]interface{}) observer.Observer { return palphase.Observer{} },
	"pulldown":      func(map[string]interface{}) observer.Observer { return pulldown.Observer{} },
	"leadinout":     func(map[string]interface{}) observer.Observer { return leadinout.Observer{} },
	"burstlevel":    func(map[string]interface{}) observer.Observer { return burstlevel.Observer{} },
	"vits":          func(map[string]interface{}) observer.Observer { return vits.Observer{} },
	"dropout":       func(map[string]interface{}) observer.Observer { return dropout.Observer{} },
	"closedcaption": func(map[string]interface{}) observer.Observer { return closedcaption.Observer{} },
	"fmcode":        func(map[string]interface{}) observer.Observer { return fmcode.Observer{} },
	"whiteflag":     func(map[string]interface{}) observer.Observer { return whiteflag.Observer{} },
}

// Register adds or replaces the constructor for an observer name,
// letting callers plug in custom observers without editing this package.
func Register(name string, ctor func(opts map[string]interface{}) observer.Observer) {
	registry[name] = ctor
}

// AnalysisResult is the coordinator's top-level output.
type AnalysisResult struct {
	System      video.System
	MappingSpec string
	Rationale   []string
	FrameCount  int
	FieldCount  int
	Warnings    []string

	// GraphData holds an SVG-encoded quality timeline, built from the
	// run's burst-level observations; nil if none were recorded.
	GraphData []byte
}

// BuildGraph wires a dag.Graph from p, instantiating observers by name
// from registry and connecting nodes per p.Nodes[*].Inputs.
func BuildGraph(p *config.Pipeline, schema *obs.Schema) (*dag.Graph, map[string]dag.ID, error) {
	g := dag.NewGraph(schema)
	ids := make(map[string]dag.ID, len(p.Nodes))

	for i, nc := range p.Nodes {
		ctor, ok := registry[nc.Observer]
		if !ok {
			return nil, nil, orcerr.InvalidArgument("coordinator.BuildGraph", fmt.Errorf("unknown observer %q for node %q", nc.Observer, nc.Name))
		}
		id := dag.ID(i + 1)
		ids[nc.Name] = id

		var inputs []dag.ID
		for _, in := range nc.Inputs {
			inID, ok := ids[in]
			if !ok {
				return nil, nil, orcerr.InvalidArgument("coordinator.BuildGraph", fmt.Errorf("node %q depends on undeclared node %q", nc.Name, in))
			}
			inputs = append(inputs, inID)
		}

		maxInputs := -1
		if len(inputs) == 0 {
			maxInputs = 0
		}
		node := &dag.Node{
			ID:       id,
			Observer: ctor(nc.Options),
			Inputs:   inputs,
			TypeInfo: dag.NodeTypeInfo{Cardinality: cardinalityFor(len(inputs)), MaxInputs: maxInputs},
		}
		if err := g.AddNode(node); err != nil {
			return nil, nil, err
		}
	}
	return g, ids, nil
}

func cardinalityFor(nInputs int) dag.Cardinality {
	switch {
	case nInputs == 0:
		return dag.Source
	case nInputs == 1:
		return dag.Transform
	default:
		return dag.Merger
	}
}

// Run executes p against reader, writes the resulting AnalysisResult to
// every dest, and returns it. progress, if non-nil, is called after
// every field with the running count and estimated fields/sec.
func Run(p *config.Pipeline, reader store.SampleReader, log Logger, dests []io.Writer, progress func(done, total int, fieldsPerSec float64)) (*AnalysisResult, error) {
	schema := obs.NewSchema()
	g, _, err := BuildGraph(p, schema)
	if err != nil {
		return nil, err
	}
	if res, err := g.Validate(); err != nil {
		return nil, fmt.Errorf("coordinator: pipeline validation failed: %v (%v)", res.Errors, err)
	}

	rng := reader.Range()
	var fields []rep.FieldRepresentation
	var order []field.ID
	for id := rng.Start; id < rng.End; id = id.Add(1) {
		f, err := reader.Field(id)
		if err != nil {
			log.Warning("skipping unreadable field", "field", id.String(), "error", err.Error())
			continue
		}
		fields = append(fields, f)
		order = append(order, id)
	}
	log.Info("loaded capture", "fields", len(fields))

	fields, err = runPreprocessStages(fields)
	if err != nil {
		return nil, err
	}

	ctx := obs.NewContext(schema)
	calc := bitrate.Calculator{}
	total := len(fields)
	topo, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}
	for i, f := range fields {
		start := field.ID(0)
		if p.HistoryWindow > 0 && uint64(f.ID()) > p.HistoryWindow {
			start = field.ID(uint64(f.ID()) - p.HistoryWindow)
		}
		history := observer.NewHistory(ctx, field.NewRange(start, f.ID()))
		for _, id := range topo {
			n := g.Nodes()[id]
			if err := n.Observer.ProcessField(f, ctx, history); err != nil {
				return nil, orcerr.InvalidState("coordinator.Run", err)
			}
		}
		calc.Report(1)
		if progress != nil {
			progress(i+1, total, calc.Bitrate())
		}
		if i%watchdogEvery == 0 {
			daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}

	system := video.SystemUnknown
	if len(fields) > 0 {
		system = fields[0].Parameters().System
	}

	obsByField := make(map[field.ID]mapping.Observation, len(order))
	for _, id := range order {
		o := mapping.Observation{ID: id, VBIFrameNumber: -1}
		if v, ok := ctx.Get(id, biphase.KeyPictureNumber); ok {
			o.VBIFrameNumber = int(v.(int32))
		}
		if v, ok := ctx.Get(id, palphase.KeyPhase); ok {
			o.Phase = int(v.(int32))
		}
		if v, ok := ctx.Get(id, pulldown.KeyIsPulldown); ok {
			o.IsPulldown = v.(bool)
		}
		if v, ok := ctx.Get(id, leadinout.KeyInLeadIn); ok {
			o.InLeadIn = v.(bool)
		}
		if v, ok := ctx.Get(id, leadinout.KeyInLeadOut); ok {
			o.InLeadOut = v.(bool)
		}
		if v, ok := ctx.Get(id, leadinout.KeyIsStop); ok {
			o.IsStopCode = v.(bool)
		}
		if v, ok := ctx.Get(id, burstlevel.KeyMedianIRE); ok {
			o.QualityScore = v.(float64)
		}
		obsByField[id] = o
	}

	mres, err := mapping.Analyze(system, 2, obsByField, order)
	if err != nil {
		return nil, err
	}

	graphData, err := plotQuality(ctx, order)
	if err != nil {
		log.Warning("quality timeline render failed", "error", err.Error())
	}

	result := &AnalysisResult{
		System:      system,
		MappingSpec: mres.MappingSpec,
		Rationale:   mres.Rationale,
		FrameCount:  len(mres.Frames),
		FieldCount:  len(fields),
		GraphData:   graphData,
	}

	if len(dests) > 0 {
		w := ioext.MultiWriteCloser(toWriteClosers(dests)...)
		if err := writeResult(w, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// runPreprocessStages wraps fields as dag.Artifacts and runs them through
// the data-flow Stage pipeline before the Observer/Node graph sees them:
// first resolving any field whose video.System is still unknown, then
// attaching the resolved system name for observers and downstream
// tooling to retrieve via rep.ObservationAttachment without threading it
// through the shared ObservationContext.
func runPreprocessStages(fields []rep.FieldRepresentation) ([]rep.FieldRepresentation, error) {
	artifacts := make([]dag.Artifact, len(fields))
	for i, f := range fields {
		artifacts[i] = dag.Artifact{Field: f}
	}

	stages := []dag.Stage{
		dag.SystemDetectStage{},
		dag.AttachmentStage{
			Key: "resolved_system",
			Value: func(a dag.Artifact) interface{} {
				return a.Field.Parameters().System.String()
			},
		},
	}

	out, err := dag.RunStages(stages, artifacts)
	if err != nil {
		return nil, orcerr.InvalidState("coordinator.runPreprocessStages", err)
	}

	result := make([]rep.FieldRepresentation, len(out))
	for i, a := range out {
		result[i] = a.Field
	}
	return result, nil
}

// toWriteClosers adapts plain io.Writers to io.WriteClosers for
// ioext.MultiWriteCloser, which expects closers; writers that don't
// already implement Close get a no-op Close.
func toWriteClosers(ws []io.Writer) []io.WriteCloser {
	out := make([]io.WriteCloser, len(ws))
	for i, w := range ws {
		if wc, ok := w.(io.WriteCloser); ok {
			out[i] = wc
			continue
		}
		out[i] = nopCloser{w}
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeResult(w io.Writer, r *AnalysisResult) error {
	_, err := fmt.Fprintf(w, "system=%s frames=%d fields=%d mapping=%s\n", r.System, r.FrameCount, r.FieldCount, r.MappingSpec)
	return err
}

// plotQuality renders the per-field burst-level quality timeline from
// ctx as an SVG, sorted by field ID. Returns (nil, nil) if no field
// carries a burst-level observation.
func plotQuality(ctx *obs.Context, order []field.ID) ([]byte, error) {
	pts := make(plotter.XYs, 0, len(order))
	sorted := append([]field.ID(nil), order...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, id := range sorted {
		v, ok := ctx.Get(id, burstlevel.KeyMedianIRE)
		if !ok {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: v.(float64)})
	}
	if len(pts) == 0 {
		return nil, nil
	}

	p := plot.New()
	p.Title.Text = "burst level quality"
	p.X.Label.Text = "field index"
	p.Y.Label.Text = "median IRE"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("coordinator: plotQuality: %w", err)
	}
	p.Add(line)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "svg")
	if err != nil {
		return nil, fmt.Errorf("coordinator: plotQuality: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("coordinator: plotQuality: %w", err)
	}
	return buf.Bytes(), nil
}
