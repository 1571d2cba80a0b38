package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const (
	SumMinutesToolName = "sum_minutes"
	minutesListParam   = "minutes_list"
)

// NewSumMinutesTool builds the duration-summing tool offered to the model
// during cooking time analysis. The handler is the only place the summation
// happens; the answer comes from the tool call's arguments, not from the
// model's prose.
func NewSumMinutesTool() MCPTool {
	return NewMCPToolBuilder(SumMinutesToolName, "調理時間（分）のリストを合計します。文書から抽出したすべての時間を分単位で渡してください。").
		NumberSliceParam(minutesListParam, "合計する時間のリスト（分単位）", true).
		WithHandler(func(ctx context.Context, params api.ToolCallFunctionArguments) (string, error) {
			minutes := coerceNumberSlice(params[minutesListParam])
			if minutes == nil {
				return "", fmt.Errorf("%s missing or not a list of numbers", minutesListParam)
			}
			return strconv.FormatFloat(Sum(minutes), 'f', -1, 64), nil
		}).
		Build()
}

// Sum totals a list of durations in minutes.
func Sum(minutes []float64) float64 {
	var total float64
	for _, m := range minutes {
		total += m
	}
	return total
}

// InterceptSumMinutes scans the model's tool calls for sum_minutes and runs
// the registered handler on the call's literal arguments. Returns the parsed
// total, or nil when no sum_minutes call carries a usable minutes list.
func InterceptSumMinutes(ctx context.Context, available []MCPTool, toolCalls []api.ToolCall) *float64 {
	for _, call := range toolCalls {
		if call.Function.Name != SumMinutesToolName {
			continue
		}

		tool := FindByName(available, call.Function.Name)
		if tool == nil || tool.Handler == nil {
			logger.Error("sum_minutes call without a registered handler")
			continue
		}

		out, err := tool.Handler(ctx, call.Function.Arguments)
		if err != nil {
			logger.Error("sum_minutes call failed",
				zap.Error(err), zap.Any("arguments", call.Function.Arguments))
			continue
		}

		total, err := strconv.ParseFloat(out, 64)
		if err != nil {
			logger.Error("sum_minutes produced a non-numeric result", zap.String("result", out))
			continue
		}
		return &total
	}
	return nil
}

// coerceNumberSlice accepts the loosely typed argument values models produce:
// JSON numbers arrive as float64, but integers and numeric strings show up too.
func coerceNumberSlice(v any) []float64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case float64:
			out = append(out, n)
		case float32:
			out = append(out, float64(n))
		case int:
			out = append(out, float64(n))
		case int64:
			out = append(out, float64(n))
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil
			}
			out = append(out, f)
		default:
			return nil
		}
	}
	return out
}
