package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testState struct {
	visited []string
	flag    bool
	errNote string
}

func visit(name string) NodeFunc[testState] {
	return func(ctx context.Context, s testState) (testState, error) {
		s.visited = append(s.visited, name)
		return s, nil
	}
}

func TestGraphSequentialExecution(t *testing.T) {
	runner, err := NewGraph[testState]().
		AddNode("a", visit("a"), ContinueWithDefault).
		AddNode("b", visit("b"), ContinueWithDefault).
		AddNode("c", visit("c"), ContinueWithDefault).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", End).
		Compile()
	assert.NoError(t, err)

	final, err := runner.Invoke(t.Context(), testState{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, final.visited)
}

func conditionalRunner(t *testing.T) *Runner[testState] {
	t.Helper()
	runner, err := NewGraph[testState]().
		AddNode("branch", visit("branch"), ContinueWithDefault).
		AddNode("left", visit("left"), ContinueWithDefault).
		AddNode("right", visit("right"), ContinueWithDefault).
		SetEntryPoint("branch").
		AddConditionalEdges("branch", func(s testState) Decision {
			if s.flag {
				return Continue
			}
			return Stop
		}, map[Decision]string{Continue: "left", Stop: "right"}).
		AddEdge("left", End).
		AddEdge("right", End).
		Compile()
	assert.NoError(t, err)
	return runner
}

func TestGraphConditionalRouting(t *testing.T) {
	runner := conditionalRunner(t)

	final, err := runner.Invoke(t.Context(), testState{flag: true})
	assert.NoError(t, err)
	assert.Equal(t, []string{"branch", "left"}, final.visited)

	final, err = runner.Invoke(t.Context(), testState{flag: false})
	assert.NoError(t, err)
	assert.Equal(t, []string{"branch", "right"}, final.visited)
}

func TestGraphContinueWithDefault(t *testing.T) {
	failing := func(ctx context.Context, s testState) (testState, error) {
		s.visited = append(s.visited, "failing")
		return s, errors.New("boom")
	}

	runner, err := NewGraph[testState]().
		AddNode("failing", failing, ContinueWithDefault).
		AddNode("after", visit("after"), ContinueWithDefault).
		SetEntryPoint("failing").
		AddEdge("failing", "after").
		AddEdge("after", End).
		OnNodeError(func(s testState, nodeName string, err error) testState {
			s.errNote = nodeName + ": " + err.Error()
			return s
		}).
		Compile()
	assert.NoError(t, err)

	final, err := runner.Invoke(t.Context(), testState{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"failing", "after"}, final.visited)
	assert.Equal(t, "failing: boom", final.errNote)
}

func TestGraphPropagate(t *testing.T) {
	failing := func(ctx context.Context, s testState) (testState, error) {
		return s, errors.New("boom")
	}

	runner, err := NewGraph[testState]().
		AddNode("failing", failing, Propagate).
		AddNode("after", visit("after"), ContinueWithDefault).
		SetEntryPoint("failing").
		AddEdge("failing", "after").
		AddEdge("after", End).
		Compile()
	assert.NoError(t, err)

	final, err := runner.Invoke(t.Context(), testState{})
	assert.Error(t, err)
	assert.NotContains(t, final.visited, "after")
}

func TestGraphCompileValidation(t *testing.T) {
	_, err := NewGraph[testState]().
		AddNode("a", visit("a"), ContinueWithDefault).
		AddEdge("a", End).
		Compile()
	assert.Error(t, err, "missing entry point must fail")

	_, err = NewGraph[testState]().
		AddNode("a", visit("a"), ContinueWithDefault).
		SetEntryPoint("a").
		AddEdge("a", "ghost").
		Compile()
	assert.Error(t, err, "edge to unknown node must fail")

	_, err = NewGraph[testState]().
		AddNode("a", visit("a"), ContinueWithDefault).
		SetEntryPoint("a").
		Compile()
	assert.Error(t, err, "node without outgoing edge must fail")

	_, err = NewGraph[testState]().
		AddNode("a", visit("a"), ContinueWithDefault).
		AddNode("b", visit("b"), ContinueWithDefault).
		SetEntryPoint("a").
		AddConditionalEdges("a", func(testState) Decision { return Continue },
			map[Decision]string{Continue: "b"}).
		AddEdge("b", End).
		Compile()
	assert.Error(t, err, "conditional edge missing a decision route must fail")
}

func TestGraphStepCap(t *testing.T) {
	runner, err := NewGraph[testState]().
		AddNode("a", visit("a"), ContinueWithDefault).
		AddNode("b", visit("b"), ContinueWithDefault).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddEdge("b", "a").
		Compile()
	assert.NoError(t, err)

	_, err = runner.Invoke(t.Context(), testState{})
	assert.ErrorContains(t, err, "step cap")
}

func TestGraphContextCancellation(t *testing.T) {
	runner, err := NewGraph[testState]().
		AddNode("a", visit("a"), ContinueWithDefault).
		SetEntryPoint("a").
		AddEdge("a", End).
		Compile()
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = runner.Invoke(ctx, testState{})
	assert.ErrorIs(t, err, context.Canceled)
}
