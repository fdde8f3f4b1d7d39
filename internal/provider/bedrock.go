// bedrock.go implements the AWS Bedrock generation client.
//
// AUTHENTICATION OPTIONS:
//  1. IAM credentials (Access Key + Secret Key) - uses the AWS SDK
//     bedrockruntime client with SigV4 signing.
//  2. Bearer token (Long-Term API Key) - plain HTTPS against the
//     bedrock-runtime endpoint.
//
// Both paths invoke the Anthropic messages API (InvokeModel) and return
// the raw completion text to the recipe parser.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"recipegate/internal/config"
	"recipegate/internal/domain"
	"recipegate/internal/recipe"
)

const anthropicVersion = "bedrock-2023-05-31"

// BedrockClient generates recipes through AWS Bedrock.
type BedrockClient struct {
	// Configuration
	model        string
	maxTokens    int
	temperature  float64
	topP         float64
	timeout      time.Duration
	region       string
	regionPrefix string // "us.", "eu.", "global."

	// Bearer token auth
	apiKey     string
	endpoint   string // overrides the regional bedrock-runtime endpoint
	httpClient *http.Client

	// IAM auth
	runtimeClient *bedrockruntime.Client
}

// anthropicRequest is the InvokeModel body for Claude models.
type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
	Temperature      float64            `json:"temperature"`
	TopP             float64            `json:"top_p"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewBedrockClient creates a Bedrock generation client from config.
func NewBedrockClient(cfg *config.Config) (*BedrockClient, error) {
	client := &BedrockClient{
		model:        cfg.Generation.Model,
		maxTokens:    cfg.Generation.MaxTokens,
		temperature:  cfg.Generation.Temperature,
		topP:         cfg.Generation.TopP,
		timeout:      cfg.Generation.Timeout,
		region:       cfg.Bedrock.Region,
		regionPrefix: cfg.Bedrock.RegionPrefix,
		httpClient:   buildHTTPClient(),
	}
	if client.region == "" {
		client.region = defaultRegionFor(client.regionPrefix)
	}

	switch {
	case cfg.Bedrock.AccessKeyID != "" && cfg.Bedrock.SecretAccessKey != "":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(client.region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.Bedrock.AccessKeyID,
				cfg.Bedrock.SecretAccessKey,
				"",
			)),
			awsconfig.WithHTTPClient(client.httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client.runtimeClient = bedrockruntime.NewFromConfig(awsCfg)
	case cfg.Bedrock.APIKey != "":
		client.apiKey = cfg.Bedrock.APIKey
	default:
		// Fall back to the ambient credential chain (instance profile,
		// env vars, shared config) so the service works on EC2/ECS/Lambda
		// without explicit keys.
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(client.region),
			awsconfig.WithHTTPClient(client.httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client.runtimeClient = bedrockruntime.NewFromConfig(awsCfg)
	}

	return client, nil
}

// defaultRegionFor maps a cross-region inference profile prefix to a
// home region when no explicit region is configured.
func defaultRegionFor(prefix string) string {
	switch prefix {
	case "eu.":
		return "eu-central-1"
	case "ap.":
		return "ap-northeast-1"
	default:
		return "us-east-1"
	}
}

// Generate invokes the model once with a prompt built from req and
// parses the completion into a GeneratedRecipe. The call is bounded by
// the configured generation timeout, applied on top of (and expected to
// be shorter than) the caller's deadline; an exceeded deadline comes
// back as ProviderError(Timeout), never as a hang.
func (c *BedrockClient) Generate(ctx context.Context, req *domain.RecipeRequest) (*domain.GeneratedRecipe, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: recipe.BuildPrompt(req)},
		},
		Temperature: c.temperature,
		TopP:        c.topP,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding model request: %w", err)
	}

	var text string
	if c.runtimeClient != nil {
		text, err = c.invokeSDK(ctx, body)
	} else {
		text, err = c.invokeREST(ctx, body)
	}
	if err != nil {
		return nil, classifyBedrockError(err)
	}

	return recipe.ParseGeneratedRecipe(text)
}

// invokeSDK calls InvokeModel through the signed SDK client.
func (c *BedrockClient) invokeSDK(ctx context.Context, body []byte) (string, error) {
	out, err := c.runtimeClient.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", err
	}
	return decodeAnthropicBody(out.Body)
}

// invokeREST calls the bedrock-runtime HTTPS endpoint with a Bearer
// long-term API key.
func (c *BedrockClient) invokeREST(ctx context.Context, body []byte) (string, error) {
	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", c.region)
	}
	url := fmt.Sprintf("%s/model/%s/invoke", endpoint, c.model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &httpStatusError{status: resp.StatusCode, body: string(respBody)}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return decodeAnthropicBody(respBody)
}

// decodeAnthropicBody extracts the first text block from a response
// envelope. A malformed or text-free envelope is the model producing
// unusable output, not the service being down, so it is classified as
// invalid output.
func decodeAnthropicBody(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.NewProviderError(domain.ProviderInvalidModelOutput,
			"malformed model response envelope", err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", domain.NewProviderError(domain.ProviderInvalidModelOutput,
		"model response contained no text content", nil)
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("bedrock API error %d: %s", e.status, e.body)
}

// classifyBedrockError maps transport and service failures onto the
// provider error taxonomy.
func classifyBedrockError(err error) error {
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewProviderError(domain.ProviderTimeout, "model invocation timed out", err)
	}

	var throttled *brtypes.ThrottlingException
	if errors.As(err, &throttled) {
		return domain.NewProviderError(domain.ProviderRateLimited, "model invocation throttled", err)
	}
	var quota *brtypes.ServiceQuotaExceededException
	if errors.As(err, &quota) {
		return domain.NewProviderError(domain.ProviderRateLimited, "service quota exceeded", err)
	}
	var modelTimeout *brtypes.ModelTimeoutException
	if errors.As(err, &modelTimeout) {
		return domain.NewProviderError(domain.ProviderTimeout, "model timed out", err)
	}
	var unavailable *brtypes.ServiceUnavailableException
	if errors.As(err, &unavailable) {
		return domain.NewProviderError(domain.ProviderUnavailable, "bedrock unavailable", err)
	}
	var notReady *brtypes.ModelNotReadyException
	if errors.As(err, &notReady) {
		return domain.NewProviderError(domain.ProviderUnavailable, "model not ready", err)
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.status == http.StatusTooManyRequests:
			return domain.NewProviderError(domain.ProviderRateLimited, "model invocation throttled", err)
		case statusErr.status == http.StatusGatewayTimeout:
			return domain.NewProviderError(domain.ProviderTimeout, "model invocation timed out", err)
		case statusErr.status >= 500:
			return domain.NewProviderError(domain.ProviderUnavailable, "bedrock unavailable", err)
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(domain.ProviderUnavailable,
			fmt.Sprintf("bedrock call failed: %s", apiErr.ErrorCode()), err)
	}

	return domain.NewProviderError(domain.ProviderUnavailable, "model invocation failed", err)
}
