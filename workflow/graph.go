package workflow

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// End is the terminal pseudo-node. Routing a node to End stops the run.
const End = "__end__"

// Decision is the outcome of a conditional edge.
type Decision int

const (
	Continue Decision = iota
	Stop
)

// ErrorPolicy controls what the engine does when a node returns an error.
type ErrorPolicy int

const (
	// ContinueWithDefault logs the failure, records it through the error
	// sink and follows the node's normal edge with the best-effort state
	// the node returned.
	ContinueWithDefault ErrorPolicy = iota
	// Propagate aborts the run and returns the error to the caller.
	Propagate
)

// NodeFunc takes the current state snapshot and returns the next one.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

type graphNode[S any] struct {
	fn     NodeFunc[S]
	policy ErrorPolicy
}

type conditionalEdge[S any] struct {
	decide func(S) Decision
	routes map[Decision]string
}

// Graph builds a fixed directed workflow over state type S. Execution is
// strictly sequential: one node at a time, single pass, no re-entry.
type Graph[S any] struct {
	nodes       map[string]graphNode[S]
	edges       map[string]string
	conditional map[string]conditionalEdge[S]
	entryPoint  string
	errorSink   func(state S, nodeName string, err error) S
}

func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:       make(map[string]graphNode[S]),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge[S]),
	}
}

func (g *Graph[S]) AddNode(name string, fn NodeFunc[S], policy ErrorPolicy) *Graph[S] {
	g.nodes[name] = graphNode[S]{fn: fn, policy: policy}
	return g
}

func (g *Graph[S]) SetEntryPoint(name string) *Graph[S] {
	g.entryPoint = name
	return g
}

func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = to
	return g
}

func (g *Graph[S]) AddConditionalEdges(from string, decide func(S) Decision, routes map[Decision]string) *Graph[S] {
	g.conditional[from] = conditionalEdge[S]{decide: decide, routes: routes}
	return g
}

// OnNodeError installs the sink invoked when a ContinueWithDefault node
// fails. The sink folds the failure into the state before routing continues.
func (g *Graph[S]) OnNodeError(sink func(state S, nodeName string, err error) S) *Graph[S] {
	g.errorSink = sink
	return g
}

// Compile validates the topology and returns an executable runner.
func (g *Graph[S]) Compile() (*Runner[S], error) {
	if g.entryPoint == "" {
		return nil, fmt.Errorf("graph has no entry point")
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("entry point %q is not a registered node", g.entryPoint)
	}

	for name := range g.nodes {
		_, hasEdge := g.edges[name]
		_, hasConditional := g.conditional[name]
		if hasEdge && hasConditional {
			return nil, fmt.Errorf("node %q has both a plain and a conditional edge", name)
		}
		if !hasEdge && !hasConditional {
			return nil, fmt.Errorf("node %q has no outgoing edge", name)
		}
	}

	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge from unknown node %q", from)
		}
		if err := g.checkTarget(to); err != nil {
			return nil, err
		}
	}

	for from, ce := range g.conditional {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("conditional edge from unknown node %q", from)
		}
		for _, d := range []Decision{Continue, Stop} {
			to, ok := ce.routes[d]
			if !ok {
				return nil, fmt.Errorf("conditional edge from %q does not route decision %d", from, d)
			}
			if err := g.checkTarget(to); err != nil {
				return nil, err
			}
		}
	}

	return &Runner[S]{graph: g}, nil
}

func (g *Graph[S]) checkTarget(to string) error {
	if to == End {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("edge to unknown node %q", to)
	}
	return nil
}

// Runner executes a compiled graph.
type Runner[S any] struct {
	graph *Graph[S]
}

// Invoke runs the graph from the entry point until End and returns the
// terminal state. A step cap guards against topology bugs; the compile-time
// checks make it unreachable for well-formed graphs.
func (r *Runner[S]) Invoke(ctx context.Context, initial S) (S, error) {
	g := r.graph
	state := initial
	current := g.entryPoint
	maxSteps := len(g.nodes) + 1

	for steps := 0; current != End; steps++ {
		if steps >= maxSteps {
			return state, fmt.Errorf("step cap exceeded at node %q", current)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		n := g.nodes[current]
		next, err := n.fn(ctx, state)
		if err != nil {
			if n.policy == Propagate {
				return state, fmt.Errorf("node %q: %w", current, err)
			}
			logger.Error("Node failed, continuing with default",
				zap.String("node", current), zap.Error(err))
			if g.errorSink != nil {
				next = g.errorSink(next, current, err)
			}
		}
		state = next

		if ce, ok := g.conditional[current]; ok {
			current = ce.routes[ce.decide(state)]
		} else {
			current = g.edges[current]
		}
	}

	return state, nil
}
