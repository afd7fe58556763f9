// Where: internal/definitions/infomatics.go
// What: Read-only views over deployed Lambda API responses.
// Why: Commands and deploy diffs need typed access to remote state.
package definitions

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// Status is a sparse state/reason/code triple from a function response.
type Status struct {
	State  string
	Reason string
	Code   string
}

// ToMap returns only the populated fields for display.
func (s Status) ToMap() map[string]string {
	out := map[string]string{}
	if s.State != "" {
		out["state"] = s.State
	}
	if s.Reason != "" {
		out["reason"] = s.Reason
	}
	if s.Code != "" {
		out["code"] = s.Code
	}
	return out
}

// LayerReference is a view over a layer entry attached to a function.
type LayerReference struct {
	Response lambdatypes.Layer
}

// Arn returns the versioned layer ARN.
func (r LayerReference) Arn() string {
	return aws.ToString(r.Response.Arn)
}

// UnversionedArn strips the version qualifier from the layer ARN.
func (r LayerReference) UnversionedArn() string {
	parts := strings.Split(r.Arn(), ":")
	if len(parts) < 8 {
		return r.Arn()
	}
	return strings.Join(parts[:7], ":")
}

// Name extracts the layer name from the ARN.
func (r LayerReference) Name() string {
	parts := strings.Split(r.Arn(), ":")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// Version extracts the version qualifier from the ARN.
func (r LayerReference) Version() string {
	parts := strings.Split(r.Arn(), ":")
	return parts[len(parts)-1]
}

// Size renders the layer code size for display.
func (r LayerReference) Size() string {
	return HumanReadableSize(r.Response.CodeSize)
}

// LambdaLayer is a view over one published layer version listing.
type LambdaLayer struct {
	Response lambdatypes.LayerVersionsListItem

	// LayerName is the name the versions were listed under.
	LayerName string

	// CodeSize is only known for individually fetched versions.
	CodeSize int64
}

// Size renders the layer code size for display.
func (l LambdaLayer) Size() string {
	return HumanReadableSize(l.CodeSize)
}

// Arn returns the versioned layer ARN.
func (l LambdaLayer) Arn() string {
	return aws.ToString(l.Response.LayerVersionArn)
}

// UnversionedArn strips the version qualifier from the layer ARN.
func (l LambdaLayer) UnversionedArn() string {
	parts := strings.Split(l.Arn(), ":")
	if len(parts) < 8 {
		return l.Arn()
	}
	return strings.Join(parts[:7], ":")
}

// Version returns the published version number.
func (l LambdaLayer) Version() int64 {
	return l.Response.Version
}

// Description returns the layer version description.
func (l LambdaLayer) Description() string {
	return aws.ToString(l.Response.Description)
}

// Created parses the version's creation timestamp, zero when missing.
func (l LambdaLayer) Created() time.Time {
	value := aws.ToString(l.Response.CreatedDate)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.Truncate(time.Second)
	}
	return time.Time{}
}

// Runtimes lists the compatible runtimes.
func (l LambdaLayer) Runtimes() []string {
	out := make([]string, 0, len(l.Response.CompatibleRuntimes))
	for _, runtime := range l.Response.CompatibleRuntimes {
		out = append(out, string(runtime))
	}
	return out
}

// NewLambdaLayer converts a get-layer-version response into the shared
// layer view.
func NewLambdaLayer(output *lambda.GetLayerVersionOutput, layerName string) LambdaLayer {
	if output == nil {
		return LambdaLayer{LayerName: layerName}
	}
	var codeSize int64
	if output.Content != nil {
		codeSize = output.Content.CodeSize
	}
	return LambdaLayer{
		LayerName: layerName,
		CodeSize:  codeSize,
		Response: lambdatypes.LayerVersionsListItem{
			LayerVersionArn:    output.LayerVersionArn,
			Version:            output.Version,
			Description:        output.Description,
			CreatedDate:        output.CreatedDate,
			CompatibleRuntimes: output.CompatibleRuntimes,
		},
	}
}

// FunctionAlias is a view over a function alias configuration.
type FunctionAlias struct {
	Response lambdatypes.AliasConfiguration
}

// Arn returns the alias ARN.
func (a FunctionAlias) Arn() string {
	return aws.ToString(a.Response.AliasArn)
}

// Name returns the alias name.
func (a FunctionAlias) Name() string {
	return aws.ToString(a.Response.Name)
}

// FunctionVersion returns the version the alias points at.
func (a FunctionAlias) FunctionVersion() string {
	return aws.ToString(a.Response.FunctionVersion)
}

// Description returns the alias description.
func (a FunctionAlias) Description() string {
	return aws.ToString(a.Response.Description)
}

// LambdaFunction is a view over a function configuration plus the
// aliases that exist for the function version.
type LambdaFunction struct {
	Response lambdatypes.FunctionConfiguration
	Aliases  []FunctionAlias
}

// NewLambdaFunction converts a get-function-configuration response
// into the shared function view.
func NewLambdaFunction(output *lambda.GetFunctionConfigurationOutput) LambdaFunction {
	if output == nil {
		return LambdaFunction{}
	}
	return LambdaFunction{Response: lambdatypes.FunctionConfiguration{
		FunctionName:               output.FunctionName,
		FunctionArn:                output.FunctionArn,
		Runtime:                    output.Runtime,
		Role:                       output.Role,
		Handler:                    output.Handler,
		Description:                output.Description,
		LastModified:               output.LastModified,
		CodeSize:                   output.CodeSize,
		CodeSha256:                 output.CodeSha256,
		Timeout:                    output.Timeout,
		MemorySize:                 output.MemorySize,
		Version:                    output.Version,
		RevisionId:                 output.RevisionId,
		Environment:                output.Environment,
		Layers:                     output.Layers,
		State:                      output.State,
		StateReason:                output.StateReason,
		StateReasonCode:            output.StateReasonCode,
		LastUpdateStatus:           output.LastUpdateStatus,
		LastUpdateStatusReason:     output.LastUpdateStatusReason,
		LastUpdateStatusReasonCode: output.LastUpdateStatusReasonCode,
	}}
}

// Name returns the function name.
func (f LambdaFunction) Name() string {
	return aws.ToString(f.Response.FunctionName)
}

// Arn returns the function ARN.
func (f LambdaFunction) Arn() string {
	return aws.ToString(f.Response.FunctionArn)
}

// Runtime returns the configured runtime tag.
func (f LambdaFunction) Runtime() string {
	return string(f.Response.Runtime)
}

// Role returns the execution role ARN.
func (f LambdaFunction) Role() string {
	return aws.ToString(f.Response.Role)
}

// Handler returns the configured entrypoint.
func (f LambdaFunction) Handler() string {
	return aws.ToString(f.Response.Handler)
}

// Description returns the function description.
func (f LambdaFunction) Description() string {
	return aws.ToString(f.Response.Description)
}

// Modified returns the last-modified timestamp string.
func (f LambdaFunction) Modified() string {
	return aws.ToString(f.Response.LastModified)
}

// Size renders the code bundle size for display.
func (f LambdaFunction) Size() string {
	return HumanReadableSize(f.Response.CodeSize)
}

// Timeout renders the invocation timeout for display.
func (f LambdaFunction) Timeout() string {
	return fmt.Sprintf("%ds", aws.ToInt32(f.Response.Timeout))
}

// Memory renders the memory allocation for display.
func (f LambdaFunction) Memory() string {
	return fmt.Sprintf("%dMB", aws.ToInt32(f.Response.MemorySize))
}

// Version returns the function version of this response.
func (f LambdaFunction) Version() string {
	return aws.ToString(f.Response.Version)
}

// RevisionID returns the revision identifier of this response.
func (f LambdaFunction) RevisionID() string {
	return aws.ToString(f.Response.RevisionId)
}

// Environment returns the deployed environment variables, never nil.
func (f LambdaFunction) Environment() map[string]string {
	if f.Response.Environment == nil || f.Response.Environment.Variables == nil {
		return map[string]string{}
	}
	return f.Response.Environment.Variables
}

// Layers lists the layer references attached to the function.
func (f LambdaFunction) Layers() []LayerReference {
	out := make([]LayerReference, 0, len(f.Response.Layers))
	for _, layer := range f.Response.Layers {
		out = append(out, LayerReference{Response: layer})
	}
	return out
}

// GetLayer finds the attached layer matching a name or ARN, nil when
// the function has no such attachment.
func (f LambdaFunction) GetLayer(nameOrArn string) *LayerReference {
	for _, reference := range f.Layers() {
		if nameOrArn == reference.Name() || nameOrArn == reference.Arn() {
			match := reference
			return &match
		}
	}
	return nil
}

// Status returns the function's current state.
func (f LambdaFunction) Status() Status {
	return Status{
		State:  string(f.Response.State),
		Reason: aws.ToString(f.Response.StateReason),
		Code:   string(f.Response.StateReasonCode),
	}
}

// UpdateStatus returns the state of the last update operation.
func (f LambdaFunction) UpdateStatus() Status {
	return Status{
		State:  string(f.Response.LastUpdateStatus),
		Reason: aws.ToString(f.Response.LastUpdateStatusReason),
		Code:   string(f.Response.LastUpdateStatusReasonCode),
	}
}

// PublishedLayer is a view over a layer publish response.
type PublishedLayer struct {
	Response *lambda.PublishLayerVersionOutput
}

// Arn returns the unversioned layer ARN.
func (p PublishedLayer) Arn() string {
	return aws.ToString(p.Response.LayerArn)
}

// Version returns the newly published version number.
func (p PublishedLayer) Version() int64 {
	return p.Response.Version
}

// VersionedArn returns the versioned layer ARN.
func (p PublishedLayer) VersionedArn() string {
	return aws.ToString(p.Response.LayerVersionArn)
}

// HumanReadableSize renders a byte count with a 1024-stepped unit.
func HumanReadableSize(numberOfBytes int64) string {
	value := float64(numberOfBytes)
	unit := "bytes"
	for _, larger := range []string{"KB", "MB", "GB", "TB"} {
		if value/1024 < 1 {
			break
		}
		value /= 1024
		unit = larger
	}
	return fmt.Sprintf("%s %s", strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0"), unit)
}
