package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/upb/shopping-assistant/services/providers"
)

const (
	providerName = "bedrock"
	contentJSON  = "application/json"
)

// RuntimeAPI is the subset of the Bedrock runtime client used by the adapter.
type RuntimeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Adapter implements providers.ModelInvoker on top of Bedrock InvokeModel.
type Adapter struct {
	api RuntimeAPI
}

// NewAdapter loads AWS configuration for cfg and builds a Bedrock runtime adapter.
func NewAdapter(ctx context.Context, cfg providers.ProviderConfig) (*Adapter, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(cfg.Timeout)))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return NewAdapterWithAPI(bedrockruntime.NewFromConfig(awsCfg)), nil
}

// NewAdapterWithAPI wraps an existing runtime client.
func NewAdapterWithAPI(api RuntimeAPI) *Adapter {
	return &Adapter{api: api}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// InvokeJSON invokes modelID with request as the JSON body and decodes the reply into response.
func (a *Adapter) InvokeJSON(ctx context.Context, modelID string, request, response interface{}) error {
	body, err := json.Marshal(request)
	if err != nil {
		return providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, err)
	}

	out, err := a.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String(contentJSON),
		Accept:      aws.String(contentJSON),
		Body:        body,
	})
	if err != nil {
		return providers.NewProviderError(a.Name(), "INVOKE_ERROR", "Model invocation failed", httpStatus(err), err)
	}
	if out == nil || len(out.Body) == 0 {
		return providers.NewProviderError(a.Name(), "EMPTY_BODY", "Model returned an empty body", 0, nil)
	}

	if err := json.Unmarshal(out.Body, response); err != nil {
		return providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", 0, err)
	}
	return nil
}

// httpStatus pulls the HTTP status out of an SDK response error when present.
func httpStatus(err error) int {
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}
