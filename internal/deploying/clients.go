// Where: internal/deploying/clients.go
// What: AWS SDK adapters for deployment operations.
// Why: Map deployment inputs to SDK types behind narrow interfaces so
//      the pipeline can be exercised against fakes.
package deploying

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/poruru/lambda-shepherd/internal/awsconn"
)

// ConfigurationChanges holds the sparse set of function configuration
// fields to modify. Nil fields are left untouched.
type ConfigurationChanges struct {
	FunctionName string
	Layers       []string
	HasLayers    bool
	Runtime      *string
	MemorySize   *int32
	Timeout      *int32
	Environment  map[string]string
	HasEnv       bool
	Handler      *string
}

// IsEmpty reports whether no field would change.
func (c ConfigurationChanges) IsEmpty() bool {
	return !c.HasLayers &&
		c.Runtime == nil &&
		c.MemorySize == nil &&
		c.Timeout == nil &&
		!c.HasEnv &&
		c.Handler == nil
}

// ToMap renders the changes for display.
func (c ConfigurationChanges) ToMap() map[string]any {
	out := map[string]any{}
	if c.HasLayers {
		out["Layers"] = c.Layers
	}
	if c.Runtime != nil {
		out["Runtime"] = *c.Runtime
	}
	if c.MemorySize != nil {
		out["MemorySize"] = *c.MemorySize
	}
	if c.Timeout != nil {
		out["Timeout"] = *c.Timeout
	}
	if c.HasEnv {
		out["Environment"] = map[string]any{"Variables": c.Environment}
	}
	if c.Handler != nil {
		out["Handler"] = *c.Handler
	}
	return out
}

// LambdaAPI is the Lambda surface the deployment pipeline depends on.
type LambdaAPI interface {
	GetFunctionConfiguration(ctx context.Context, name string) (*lambda.GetFunctionConfigurationOutput, error)
	UpdateFunctionCode(ctx context.Context, name string, bucket string, key string) (*lambda.UpdateFunctionCodeOutput, error)
	UpdateFunctionConfiguration(ctx context.Context, changes ConfigurationChanges) error
	PublishVersion(ctx context.Context, name string, codeSha256 string, description string) (*lambda.PublishVersionOutput, error)
	PublishLayerVersion(ctx context.Context, name string, bucket string, key string, description string, runtime string) (*lambda.PublishLayerVersionOutput, error)
	LatestLayerVersion(ctx context.Context, layerNameOrArn string) (int64, bool, error)
	WaitForFunctionUpdated(ctx context.Context, name string) error
}

// S3API is the S3 surface the deployment pipeline depends on.
type S3API interface {
	Upload(ctx context.Context, bucket string, key string, path string) error
	Copy(ctx context.Context, bucket string, sourceKey string, destinationKey string) error
	Exists(ctx context.Context, bucket string, key string) (bool, error)
}

// ClientProvider builds regional API clients for the pipeline.
type ClientProvider interface {
	Lambda(region string) LambdaAPI
	S3(region string) S3API
}

// ConnectionProvider adapts the AWS connection into the pipeline's
// client provider contract.
type ConnectionProvider struct {
	Connection *awsconn.Connection
}

func (p ConnectionProvider) Lambda(region string) LambdaAPI {
	return awsLambdaClient{client: p.Connection.Lambda(region)}
}

func (p ConnectionProvider) S3(region string) S3API {
	return awsS3Client{client: p.Connection.S3(region)}
}

type awsLambdaClient struct {
	client *lambda.Client
}

func (c awsLambdaClient) GetFunctionConfiguration(ctx context.Context, name string) (*lambda.GetFunctionConfigurationOutput, error) {
	return c.client.GetFunctionConfiguration(ctx, &lambda.GetFunctionConfigurationInput{
		FunctionName: aws.String(name),
	})
}

func (c awsLambdaClient) UpdateFunctionCode(ctx context.Context, name string, bucket string, key string) (*lambda.UpdateFunctionCodeOutput, error) {
	return c.client.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(name),
		S3Bucket:     aws.String(bucket),
		S3Key:        aws.String(key),
		Publish:      false,
	})
}

func (c awsLambdaClient) UpdateFunctionConfiguration(ctx context.Context, changes ConfigurationChanges) error {
	input := &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(changes.FunctionName),
	}
	if changes.HasLayers {
		input.Layers = changes.Layers
	}
	if changes.Runtime != nil {
		input.Runtime = lambdatypes.Runtime(*changes.Runtime)
	}
	if changes.MemorySize != nil {
		input.MemorySize = changes.MemorySize
	}
	if changes.Timeout != nil {
		input.Timeout = changes.Timeout
	}
	if changes.HasEnv {
		input.Environment = &lambdatypes.Environment{Variables: changes.Environment}
	}
	if changes.Handler != nil {
		input.Handler = changes.Handler
	}
	_, err := c.client.UpdateFunctionConfiguration(ctx, input)
	return err
}

func (c awsLambdaClient) PublishVersion(ctx context.Context, name string, codeSha256 string, description string) (*lambda.PublishVersionOutput, error) {
	return c.client.PublishVersion(ctx, &lambda.PublishVersionInput{
		FunctionName: aws.String(name),
		CodeSha256:   aws.String(codeSha256),
		Description:  aws.String(description),
	})
}

func (c awsLambdaClient) PublishLayerVersion(ctx context.Context, name string, bucket string, key string, description string, runtime string) (*lambda.PublishLayerVersionOutput, error) {
	return c.client.PublishLayerVersion(ctx, &lambda.PublishLayerVersionInput{
		LayerName:   aws.String(name),
		Description: aws.String(description),
		Content: &lambdatypes.LayerVersionContentInput{
			S3Bucket: aws.String(bucket),
			S3Key:    aws.String(key),
		},
		CompatibleRuntimes: []lambdatypes.Runtime{lambdatypes.Runtime(runtime)},
	})
}

func (c awsLambdaClient) LatestLayerVersion(ctx context.Context, layerNameOrArn string) (int64, bool, error) {
	paginator := lambda.NewListLayerVersionsPaginator(c.client, &lambda.ListLayerVersionsInput{
		LayerName: aws.String(layerNameOrArn),
	})
	var latest int64
	var found bool
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, false, err
		}
		for _, version := range page.LayerVersions {
			if version.Version > latest {
				latest = version.Version
				found = true
			}
		}
	}
	return latest, found, nil
}

func (c awsLambdaClient) WaitForFunctionUpdated(ctx context.Context, name string) error {
	waiter := lambda.NewFunctionUpdatedV2Waiter(c.client)
	return waiter.Wait(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	}, functionUpdateWaitLimit)
}

type awsS3Client struct {
	client *s3.Client
}

func (c awsS3Client) Upload(ctx context.Context, bucket string, key string, path string) error {
	file, err := openUploadFile(path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	return err
}

func (c awsS3Client) Copy(ctx context.Context, bucket string, sourceKey string, destinationKey string) error {
	_, err := c.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(destinationKey),
		CopySource: aws.String(bucket + "/" + sourceKey),
	})
	return err
}

func (c awsS3Client) Exists(ctx context.Context, bucket string, key string) (bool, error) {
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}
