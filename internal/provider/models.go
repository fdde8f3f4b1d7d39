// models.go lists the text-generation foundation models available to
// this account through the Bedrock control plane.
package provider

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrock/types"

	"recipegate/internal/config"
	"recipegate/internal/domain"
)

// BedrockModelLister lists foundation models via the bedrock
// control-plane API. It requires IAM credentials; the Bearer-token
// runtime path has no control-plane access.
type BedrockModelLister struct {
	client *bedrock.Client
}

// NewBedrockModelLister creates a model lister, or returns an error when
// no IAM credential source is available.
func NewBedrockModelLister(cfg *config.Config) (*BedrockModelLister, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Bedrock.Region),
	}
	if cfg.Bedrock.AccessKeyID != "" && cfg.Bedrock.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Bedrock.AccessKeyID,
				cfg.Bedrock.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockModelLister{client: bedrock.NewFromConfig(awsCfg)}, nil
}

// ListModels returns the active text-output foundation models.
func (l *BedrockModelLister) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	out, err := l.client.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{
		ByOutputModality: bedrocktypes.ModelModalityText,
	})
	if err != nil {
		return nil, fmt.Errorf("listing foundation models: %w", err)
	}

	var models []domain.ModelInfo
	for _, summary := range out.ModelSummaries {
		if summary.ModelId == nil {
			continue
		}
		name := *summary.ModelId
		if summary.ModelName != nil {
			name = *summary.ModelName
		}
		providerName := ""
		if summary.ProviderName != nil {
			providerName = *summary.ProviderName
		}

		models = append(models, domain.ModelInfo{
			ID:       *summary.ModelId,
			Name:     name,
			Provider: providerName,
			Active:   summary.ModelLifecycle != nil && summary.ModelLifecycle.Status == bedrocktypes.FoundationModelLifecycleStatusActive,
		})
	}

	return models, nil
}
