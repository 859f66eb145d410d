/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dag implements the executor that runs a directed acyclic
// graph of Observers over a field sequence: it validates that every
// node's required observations are satisfied by some upstream node (or
// by history) before running, then walks the graph in topological order
// for each field.
package dag

import (
	"fmt"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/orcerr"
	"github.com/ausocean/orc/rep"
)

// Cardinality classifies how many inputs/outputs a node type admits.
type Cardinality int

const (
	Source    Cardinality = iota // No inputs; produces observations from the raw field alone.
	Transform                    // Exactly one input.
	Splitter                     // One input, fans out to many downstream nodes (structural; all nodes may have multiple consumers).
	Merger                        // More than one input.
	Complex                       // Variable inputs/outputs, arbitrary semantics.
	Sink                          // Terminal; consumes but does not feed further nodes structurally.
)

// NodeTypeInfo bounds the input cardinality admitted by a node type.
type NodeTypeInfo struct {
	Cardinality         Cardinality
	MinInputs, MaxInputs int // MaxInputs == -1 means unbounded.
}

// ID identifies a node within a Graph. RootNode is a sentinel used to
// mean "no upstream dependency" in diagnostics; it is never a valid
// node to add.
type ID int32

const RootNode ID = -2

// Node is one step in the graph: an Observer plus its declared upstream
// dependencies and cardinality class.
type Node struct {
	ID       ID
	Observer observer.Observer
	TypeInfo NodeTypeInfo
	Inputs   []ID
}

// ValidationResult reports whether a Graph is runnable.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Graph is an ordered collection of Nodes forming a DAG over a shared
// ObservationContext/Schema.
type Graph struct {
	schema *obs.Schema
	nodes  map[ID]*Node
	order  []ID // insertion order, used for deterministic iteration.
}

// NewGraph builds an empty Graph validated against schema. schema may be
// nil to skip type-checked writes (Provides/Requires structure is still
// checked).
func NewGraph(schema *obs.Schema) *Graph {
	return &Graph{schema: schema, nodes: make(map[ID]*Node)}
}

// Nodes returns the graph's nodes keyed by ID, for callers (such as the
// coordinator) that need to walk a custom execution loop -- e.g. to
// report per-field progress -- rather than using Run directly.
func (g *Graph) Nodes() map[ID]*Node { return g.nodes }

// AddNode inserts n. It returns an error if n.ID is already present or
// n's cardinality constraints are violated by its Inputs count.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return orcerr.InvalidArgument("dag.AddNode", fmt.Errorf("duplicate node id %d", n.ID))
	}
	if n.TypeInfo.MaxInputs >= 0 && len(n.Inputs) > n.TypeInfo.MaxInputs {
		return orcerr.InvalidArgument("dag.AddNode", fmt.Errorf("node %d: %d inputs exceeds max %d", n.ID, len(n.Inputs), n.TypeInfo.MaxInputs))
	}
	if len(n.Inputs) < n.TypeInfo.MinInputs {
		return orcerr.InvalidArgument("dag.AddNode", fmt.Errorf("node %d: %d inputs below min %d", n.ID, len(n.Inputs), n.TypeInfo.MinInputs))
	}
	if n.Observer == nil {
		return orcerr.InvalidArgument("dag.AddNode", fmt.Errorf("node %d: nil observer", n.ID))
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)

	if g.schema != nil {
		for _, e := range n.Observer.Provides() {
			g.schema.Register(e)
		}
	}
	return nil
}

// Validate checks that every node's Requires keys are satisfied by
// either an upstream node's Provides, or are left unchecked (assumed to
// come from prior-field history) -- a node depending on a key no node in
// the graph ever provides is reported as an error, since it can never be
// satisfied even via history.
func (g *Graph) Validate() (*ValidationResult, error) {
	res := &ValidationResult{Valid: true}

	providedAnywhere := make(map[obs.Key]bool)
	for _, n := range g.nodes {
		for _, e := range n.Observer.Provides() {
			providedAnywhere[e.Key] = true
		}
	}

	order, err := g.TopoOrder()
	if err != nil {
		res.Valid = false
		res.Errors = append(res.Errors, err.Error())
		return res, err
	}

	providedUpTo := make(map[ID]map[obs.Key]bool)
	for _, id := range order {
		n := g.nodes[id]
		upstream := make(map[obs.Key]bool)
		for _, in := range n.Inputs {
			for k := range providedUpTo[in] {
				upstream[k] = true
			}
		}
		for _, req := range n.Observer.Requires() {
			if !upstream[req] {
				if !providedAnywhere[req] {
					res.Valid = false
					res.Errors = append(res.Errors, fmt.Sprintf("node %d requires %s, which no node in the graph provides", id, req.Full()))
				} else {
					res.Warnings = append(res.Warnings, fmt.Sprintf("node %d requires %s from history, not from a direct upstream input", id, req.Full()))
				}
			}
		}
		own := make(map[obs.Key]bool, len(upstream))
		for k := range upstream {
			own[k] = true
		}
		for _, e := range n.Observer.Provides() {
			own[e.Key] = true
		}
		providedUpTo[id] = own
	}

	if !res.Valid {
		return res, orcerr.InvalidState("dag.Validate", fmt.Errorf("%d unsatisfiable dependencies", len(res.Errors)))
	}
	return res, nil
}

// TopoOrder returns node IDs in an order where every node follows all of
// its Inputs. It returns an error if the graph contains a cycle or
// references an unknown input node.
func (g *Graph) TopoOrder() ([]ID, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[ID]int, len(g.nodes))
	var order []ID

	var visit func(id ID) error
	visit = func(id ID) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return orcerr.InvalidState("dag.TopoOrder", fmt.Errorf("cycle detected at node %d", id))
		}
		n, ok := g.nodes[id]
		if !ok {
			return orcerr.InvalidArgument("dag.TopoOrder", fmt.Errorf("node %d references unknown input", id))
		}
		color[id] = gray
		for _, in := range n.Inputs {
			if err := visit(in); err != nil {
				return err
			}
		}
		color[id] = black
		order = append(order, id)
		return nil
	}

	for _, id := range g.order {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Run processes fields in sequence, running every node (in topological
// order) against each field's representation, writing into ctx. window
// bounds how many prior fields remain visible via observer.History; pass
// 0 for unbounded history within the run.
func (g *Graph) Run(fields []rep.FieldRepresentation, ctx *obs.Context, window uint64) error {
	order, err := g.TopoOrder()
	if err != nil {
		return err
	}
	for _, f := range fields {
		start := field.ID(0)
		if window > 0 && uint64(f.ID()) > window {
			start = field.ID(uint64(f.ID()) - window)
		}
		history := observer.NewHistory(ctx, field.NewRange(start, f.ID()))
		for _, id := range order {
			n := g.nodes[id]
			if err := n.Observer.ProcessField(f, ctx, history); err != nil {
				return orcerr.InvalidState("dag.Run", fmt.Errorf("node %d (%s) on field %s: %w", id, n.Observer.Name(), f.ID(), err))
			}
		}
	}
	return nil
}
