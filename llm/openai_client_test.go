package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     "test-key",
		httpClient: &http.Client{},
		url:        url,
		model:      "gpt-4o",
	}
}

func TestOpenAIClientCapabilities(t *testing.T) {
	tests := []struct {
		model        string
		capabilities Capability
	}{
		{"gpt-4o", NativeToolCalling},
		{"gpt-4o-mini", NativeToolCalling},
		{"gpt-4.1", NativeToolCalling},
		{"some-unsupported-model", Capability(0)},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			client := &OpenAIClient{model: tt.model}
			assert.Equal(t, tt.capabilities, client.Capabilities())
			assert.Equal(t, tt.model, client.GetModel())
		})
	}
}

func TestNewOpenAIClientWithKey(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	client := NewOpenAIClient("gpt-4o")
	assert.NotNil(t, client)
	assert.Equal(t, "gpt-4o", client.GetModel())
}

func TestOpenAIClientGenerateInference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		response := openAIResponse{
			Choices: []openAIChoice{
				{
					Message: openAIChoiceMessage{
						Content: "Hello, this is a test response",
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	messages := []Message{
		{Role: "user", Content: "Hello"},
	}

	var result string
	err := client.GenerateInference(context.Background(), messages, func(chunk string) error {
		result = chunk
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello, this is a test response", result)
}

func TestOpenAIClientWithSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		err := json.NewDecoder(r.Body).Decode(&request)
		require.NoError(t, err)

		// Check that system message was prepended
		require.Len(t, request.Messages, 2)
		assert.Equal(t, "system", request.Messages[0].Role)
		assert.Equal(t, "You are a helpful assistant", request.Messages[0].Content)
		assert.Equal(t, "user", request.Messages[1].Role)

		response := openAIResponse{
			Choices: []openAIChoice{
				{Message: openAIChoiceMessage{Content: "Hello! How can I help you?"}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var result string
	err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "Hello"}},
		func(chunk string) error {
			result = chunk
			return nil
		},
		WithSystemPrompt("You are a helpful assistant"))

	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help you?", result)
}

func TestOpenAIClientGenerateInferenceWithTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := openAIResponse{
			Choices: []openAIChoice{
				{
					Message: openAIChoiceMessage{
						ToolCalls: []openAIToolCall{
							{
								ID:   "call_123",
								Type: "function",
								Function: openAIToolCallFunction{
									Name:      "sum_minutes",
									Arguments: `{"minutes_list": [10, 15]}`,
								},
							},
						},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	tools := []api.Tool{
		{
			Function: api.ToolFunction{
				Name:        "sum_minutes",
				Description: "Sums a list of minute values",
			},
		},
	}

	var toolCalls []api.ToolCall
	err := client.GenerateInferenceWithTools(
		context.Background(),
		[]Message{{Role: "user", Content: "Add the times"}},
		func(chunk string) error { return nil },
		func(calls []api.ToolCall) error {
			toolCalls = calls
			return nil
		},
		WithTools(tools),
	)

	require.NoError(t, err)
	require.Len(t, toolCalls, 1)
	assert.Equal(t, "sum_minutes", toolCalls[0].Function.Name)

	args, ok := toolCalls[0].Function.Arguments["minutes_list"].([]any)
	require.True(t, ok)
	assert.Len(t, args, 2)
}

func TestOpenAIClientFileAttachment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request map[string]any
		err := json.NewDecoder(r.Body).Decode(&request)
		require.NoError(t, err)

		messages := request["messages"].([]any)
		require.Len(t, messages, 1)

		userMsg := messages[0].(map[string]any)
		parts := userMsg["content"].([]any)
		require.Len(t, parts, 2)

		textPart := parts[0].(map[string]any)
		assert.Equal(t, "text", textPart["type"])
		assert.Equal(t, "Classify this document", textPart["text"])

		filePart := parts[1].(map[string]any)
		assert.Equal(t, "file", filePart["type"])
		file := filePart["file"].(map[string]any)
		assert.Equal(t, "recipe.pdf", file["filename"])
		assert.True(t, strings.HasPrefix(file["file_data"].(string), "data:application/pdf;base64,"))

		response := openAIResponse{
			Choices: []openAIChoice{
				{Message: openAIChoiceMessage{Content: `{"is_recipe": true, "reason": "ok"}`}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var result string
	err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "Classify this document"}},
		func(chunk string) error {
			result = chunk
			return nil
		},
		WithFileAttachment("recipe.pdf", []byte("%PDF-1.4 fake")))

	require.NoError(t, err)
	assert.Contains(t, result, "is_recipe")
}

func TestOpenAIClientZeroTemperatureOnWire(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request map[string]any
		err := json.NewDecoder(r.Body).Decode(&request)
		require.NoError(t, err)

		// Deterministic callers set temperature 0; the field must not be
		// dropped from the request.
		temp, ok := request["temperature"]
		require.True(t, ok, "temperature missing from request body")
		assert.Equal(t, 0.0, temp)

		response := openAIResponse{
			Choices: []openAIChoice{
				{Message: openAIChoiceMessage{Content: "ok"}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "Hello"}},
		func(chunk string) error { return nil },
		WithTemperature(0.0))

	require.NoError(t, err)
}

func TestConvertToolsToOpenAIFormat(t *testing.T) {
	tools := []api.Tool{
		{
			Function: api.ToolFunction{
				Name:        "sum_minutes",
				Description: "Sums a list of minute values",
			},
		},
	}

	openAITools := convertToolsToOpenAIFormat(tools)

	require.Len(t, openAITools, 1)
	assert.Equal(t, "function", openAITools[0].Type)
	assert.Equal(t, "sum_minutes", openAITools[0].Function.Name)

	assert.Nil(t, convertToolsToOpenAIFormat(nil))
}
