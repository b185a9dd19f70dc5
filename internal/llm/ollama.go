package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Ollama talks to a local Ollama server.
type Ollama struct {
	Endpoint string
	Model    string
	Timeout  time.Duration

	httpClient *http.Client
}

// NewOllama creates an Ollama provider.
func NewOllama(endpoint, model string, timeout time.Duration) *Ollama {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = "http://localhost:11434"
	}
	return &Ollama{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Model:      model,
		Timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns provider name
func (o *Ollama) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (o *Ollama) post(ctx context.Context, stream bool, prompt string) (*http.Response, error) {
	body, err := json.Marshal(ollamaRequest{Model: o.Model, Prompt: prompt, Stream: stream})
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("ollama returned status %s", resp.Status)
	}
	return resp, nil
}

// Generate sends a prompt and returns the full generated text.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.post(ctx, false, prompt)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}

// GenerateStream sends a prompt and forwards each response token to onToken.
// Ollama streams newline-delimited JSON objects until one carries done=true.
func (o *Ollama) GenerateStream(ctx context.Context, prompt string, onToken func(string)) error {
	resp, err := o.post(ctx, true, prompt)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var chunk ollamaResponse
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			return fmt.Errorf("decode ollama stream chunk: %w", err)
		}
		if chunk.Response != "" && onToken != nil {
			onToken(chunk.Response)
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ollama stream: %w", err)
	}
	return nil
}
