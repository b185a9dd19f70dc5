package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// Bedrock implements Provider for Amazon Bedrock, Anthropic model family.
type Bedrock struct {
	Region  string
	Model   string
	Timeout time.Duration

	svc *bedrockruntime.Client
}

// NewBedrock initializes a Bedrock client using the default AWS config chain.
func NewBedrock(region, model string, timeout time.Duration) (*Bedrock, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("bedrock model is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cfg aws.Config
	var err error
	if strings.TrimSpace(region) != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	} else {
		// Allow region to be resolved from AWS profile/env
		cfg, err = awsconfig.LoadDefaultConfig(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" && strings.TrimSpace(region) == "" {
		return nil, fmt.Errorf("AWS region not resolved; set llm region, AWS_REGION, or a profile region")
	}
	return &Bedrock{Region: region, Model: model, Timeout: timeout, svc: bedrockruntime.NewFromConfig(cfg)}, nil
}

// Name returns provider name
func (b *Bedrock) Name() string { return "bedrock" }

func (b *Bedrock) modelID() string {
	// Leave ARNs and inference profiles alone; plain IDs may need the
	// revision suffix.
	id := b.Model
	lower := strings.ToLower(id)
	if !strings.HasPrefix(lower, "arn:") && !strings.Contains(lower, "inference-profile/") && !strings.Contains(id, ":") {
		id += ":0"
	}
	return id
}

func anthropicPayload(prompt string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        1024,
		"temperature":       0.2,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": prompt},
				},
			},
		},
	})
}

// Generate sends a prompt to Bedrock and returns the generated text.
func (b *Bedrock) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := anthropicPayload(prompt)
	if err != nil {
		return "", fmt.Errorf("encode bedrock request: %w", err)
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}
	out, err := b.svc.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID()),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke error: %w", err)
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode bedrock response: %w", err)
	}
	for _, c := range resp.Content {
		if c.Type == "text" && strings.TrimSpace(c.Text) != "" {
			return strings.TrimSpace(c.Text), nil
		}
	}
	return "", fmt.Errorf("empty response from bedrock model")
}

// GenerateStream invokes the model with a response stream, forwarding each
// text delta to onToken.
func (b *Bedrock) GenerateStream(ctx context.Context, prompt string, onToken func(string)) error {
	body, err := anthropicPayload(prompt)
	if err != nil {
		return fmt.Errorf("encode bedrock request: %w", err)
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}
	out, err := b.svc.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(b.modelID()),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("bedrock stream invoke error: %w", err)
	}
	stream := out.GetStream()
	defer func() { _ = stream.Close() }()

	for event := range stream.Events() {
		chunk, ok := event.(*brtypes.ResponseStreamMemberChunk)
		if !ok {
			continue
		}
		var delta struct {
			Type  string `json:"type"`
			Delta struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"delta"`
		}
		if err := json.Unmarshal(chunk.Value.Bytes, &delta); err != nil {
			continue
		}
		if delta.Delta.Type == "text_delta" && delta.Delta.Text != "" && onToken != nil {
			onToken(delta.Delta.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("bedrock stream error: %w", err)
	}
	return nil
}
