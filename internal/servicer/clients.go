// Where: internal/servicer/clients.go
// What: AWS SDK adapter for version service operations.
// Why: Narrow interface over listing, fetching and removing deployed
//      function and layer versions.
package servicer

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/poruru/lambda-shepherd/internal/awsconn"
)

// LambdaAPI is the Lambda surface the version services depend on.
type LambdaAPI interface {
	ListFunctionVersions(ctx context.Context, functionName string) ([]lambdatypes.FunctionConfiguration, error)
	ListAliases(ctx context.Context, functionName string, functionVersion string) ([]lambdatypes.AliasConfiguration, error)
	GetFunctionConfiguration(ctx context.Context, functionName string, qualifier string) (*lambda.GetFunctionConfigurationOutput, error)
	DeleteFunction(ctx context.Context, versionArn string) error
	ListLayerVersions(ctx context.Context, layerName string) ([]lambdatypes.LayerVersionsListItem, error)
	GetLayerVersion(ctx context.Context, layerName string, version int64) (*lambda.GetLayerVersionOutput, error)
	DeleteLayerVersion(ctx context.Context, layerName string, version int64) error
	CreateAlias(ctx context.Context, functionName string, name string, version string) error
	UpdateAlias(ctx context.Context, functionName string, name string, version string) error
}

// ClientProvider builds regional service clients.
type ClientProvider interface {
	Lambda(region string) LambdaAPI
}

// ConnectionProvider adapts the AWS connection into the service's
// client provider contract.
type ConnectionProvider struct {
	Connection *awsconn.Connection
}

func (p ConnectionProvider) Lambda(region string) LambdaAPI {
	return awsLambdaClient{client: p.Connection.Lambda(region)}
}

type awsLambdaClient struct {
	client *lambda.Client
}

func (c awsLambdaClient) ListFunctionVersions(ctx context.Context, functionName string) ([]lambdatypes.FunctionConfiguration, error) {
	paginator := lambda.NewListVersionsByFunctionPaginator(c.client, &lambda.ListVersionsByFunctionInput{
		FunctionName: aws.String(functionName),
	})
	var out []lambdatypes.FunctionConfiguration
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		out = append(out, page.Versions...)
	}
	return out, nil
}

func (c awsLambdaClient) ListAliases(ctx context.Context, functionName string, functionVersion string) ([]lambdatypes.AliasConfiguration, error) {
	input := &lambda.ListAliasesInput{
		FunctionName: aws.String(functionName),
		MaxItems:     aws.Int32(500),
	}
	if functionVersion != "" && functionVersion != "$LATEST" {
		input.FunctionVersion = aws.String(functionVersion)
	}
	response, err := c.client.ListAliases(ctx, input)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return response.Aliases, nil
}

func (c awsLambdaClient) GetFunctionConfiguration(ctx context.Context, functionName string, qualifier string) (*lambda.GetFunctionConfigurationOutput, error) {
	if qualifier == "" {
		qualifier = "$LATEST"
	}
	return c.client.GetFunctionConfiguration(ctx, &lambda.GetFunctionConfigurationInput{
		FunctionName: aws.String(functionName),
		Qualifier:    aws.String(qualifier),
	})
}

func (c awsLambdaClient) DeleteFunction(ctx context.Context, versionArn string) error {
	_, err := c.client.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
		FunctionName: aws.String(versionArn),
	})
	return err
}

func (c awsLambdaClient) ListLayerVersions(ctx context.Context, layerName string) ([]lambdatypes.LayerVersionsListItem, error) {
	paginator := lambda.NewListLayerVersionsPaginator(c.client, &lambda.ListLayerVersionsInput{
		LayerName: aws.String(layerName),
	})
	var out []lambdatypes.LayerVersionsListItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		out = append(out, page.LayerVersions...)
	}
	return out, nil
}

func (c awsLambdaClient) GetLayerVersion(ctx context.Context, layerName string, version int64) (*lambda.GetLayerVersionOutput, error) {
	return c.client.GetLayerVersion(ctx, &lambda.GetLayerVersionInput{
		LayerName:     aws.String(layerName),
		VersionNumber: aws.Int64(version),
	})
}

func (c awsLambdaClient) DeleteLayerVersion(ctx context.Context, layerName string, version int64) error {
	_, err := c.client.DeleteLayerVersion(ctx, &lambda.DeleteLayerVersionInput{
		LayerName:     aws.String(layerName),
		VersionNumber: aws.Int64(version),
	})
	return err
}

func (c awsLambdaClient) CreateAlias(ctx context.Context, functionName string, name string, version string) error {
	_, err := c.client.CreateAlias(ctx, &lambda.CreateAliasInput{
		FunctionName:    aws.String(functionName),
		Name:            aws.String(name),
		FunctionVersion: aws.String(version),
	})
	return err
}

func (c awsLambdaClient) UpdateAlias(ctx context.Context, functionName string, name string, version string) error {
	_, err := c.client.UpdateAlias(ctx, &lambda.UpdateAliasInput{
		FunctionName:    aws.String(functionName),
		Name:            aws.String(name),
		FunctionVersion: aws.String(version),
	})
	return err
}

func isNotFound(err error) bool {
	var notFound *lambdatypes.ResourceNotFoundException
	return errors.As(err, &notFound)
}
