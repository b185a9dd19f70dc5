package llm

import (
	"fmt"
	"strings"
	"time"
)

// NewProviderFromConfig creates a Provider from config fields.
func NewProviderFromConfig(provider, endpoint, model, region string, timeout time.Duration) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "ollama", "":
		return NewOllama(endpoint, model, timeout), nil
	case "bedrock":
		return NewBedrock(region, model, timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
