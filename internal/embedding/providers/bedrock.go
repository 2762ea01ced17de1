package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockProvider generates embeddings via Amazon Bedrock foundation
// models, dispatching the request shape by model family (Titan, Cohere).
type BedrockProvider struct {
	client *bedrockruntime.Client
	region string
}

// NewBedrockProvider loads the default AWS config for region and wraps a
// Bedrock runtime client.
func NewBedrockProvider(ctx context.Context, region string) (*BedrockProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &BedrockProvider{client: bedrockruntime.NewFromConfig(cfg), region: region}, nil
}

func (p *BedrockProvider) Name() string { return "bedrock" }

type titanEmbedRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type cohereEmbedRequest struct {
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type,omitempty"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *BedrockProvider) Embed(ctx context.Context, text, model string) ([]float32, error) {
	var modelID string
	var body []byte
	var err error

	switch model {
	case "titan-embed-text-v2":
		modelID = "amazon.titan-embed-text-v2:0"
		body, err = json.Marshal(titanEmbedRequest{InputText: text})
	case "embed-english-v3", "embed-multilingual-v3":
		modelID = fmt.Sprintf("cohere.%s", model)
		body, err = json.Marshal(cohereEmbedRequest{Texts: []string{text}, InputType: "search_document"})
	default:
		return nil, fmt.Errorf("unsupported bedrock model: %s", model)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal bedrock request: %w", err)
	}

	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke bedrock model: %w", err)
	}

	if model == "titan-embed-text-v2" {
		var resp titanEmbedResponse
		if err := json.Unmarshal(output.Body, &resp); err != nil {
			return nil, fmt.Errorf("parse titan response: %w", err)
		}
		return resp.Embedding, nil
	}

	var resp cohereEmbedResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("parse cohere response: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings in cohere response")
	}
	return resp.Embeddings[0], nil
}

func (p *BedrockProvider) Dimension(model string) int {
	switch model {
	case "titan-embed-text-v2":
		return 1024
	case "embed-english-v3", "embed-multilingual-v3":
		return 1024
	default:
		return 1536
	}
}
