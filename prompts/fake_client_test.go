package prompts

import (
	"context"

	"github.com/SaiNageswarS/recipe-flow/llm"
	"github.com/ollama/ollama/api"
)

// fakeLLMClient replays scripted responses, one per GenerateInference call.
type fakeLLMClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeLLMClient) GenerateInference(ctx context.Context, messages []llm.Message, callback func(chunk string) error, opts ...llm.LLMOption) error {
	idx := f.calls
	f.calls++

	if idx < len(f.errs) && f.errs[idx] != nil {
		return f.errs[idx]
	}

	resp := ""
	if idx < len(f.responses) {
		resp = f.responses[idx]
	} else if len(f.responses) > 0 {
		resp = f.responses[len(f.responses)-1]
	}
	return callback(resp)
}

func (f *fakeLLMClient) GenerateInferenceWithTools(ctx context.Context, messages []llm.Message, contentCallback func(chunk string) error, toolCallback func(toolCalls []api.ToolCall) error, opts ...llm.LLMOption) error {
	return f.GenerateInference(ctx, messages, contentCallback, opts...)
}

func (f *fakeLLMClient) Capabilities() llm.Capability { return llm.NativeToolCalling }

func (f *fakeLLMClient) GetModel() string { return "fake-model" }
