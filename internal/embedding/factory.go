package embedding

import (
	"context"
	"fmt"

	"github.com/ragmesh/querycore/internal/embedding/providers"
)

// NewProvider dispatches on cfg.Provider to construct the configured
// embedding backend.
func NewProvider(ctx context.Context, cfg Config) (providers.Provider, error) {
	switch cfg.Provider {
	case "bedrock":
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		return providers.NewBedrockProvider(ctx, region)
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return providers.NewOpenAIProvider(cfg.APIKey), nil
	case "", "mock":
		dims := cfg.Dimension
		if dims == 0 {
			dims = 768
		}
		return providers.NewMockProvider(dims), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
