package commands

import (
	"context"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/logging"
	"github.com/poruru/lambda-shepherd/internal/servicer"
	"github.com/poruru/lambda-shepherd/internal/ui"
)

type testAccount struct{}

func (testAccount) AccountID() string { return "111122223333" }
func (testAccount) Region() string    { return "eu-west-1" }

// fakeServiceLambda is an in-memory servicer.LambdaAPI recording the
// destructive calls.
type fakeServiceLambda struct {
	versions      map[string][]lambdatypes.FunctionConfiguration
	aliases       map[string][]lambdatypes.AliasConfiguration
	layerVersions map[string][]lambdatypes.LayerVersionsListItem

	deletedFunctions []string
	deletedLayers    []string
	createdAliases   []string
	updatedAliases   []string
}

func (f *fakeServiceLambda) ListFunctionVersions(_ context.Context, functionName string) ([]lambdatypes.FunctionConfiguration, error) {
	return f.versions[functionName], nil
}

func (f *fakeServiceLambda) ListAliases(_ context.Context, functionName string, functionVersion string) ([]lambdatypes.AliasConfiguration, error) {
	var out []lambdatypes.AliasConfiguration
	for _, alias := range f.aliases[functionName] {
		if functionVersion != "" && aws.ToString(alias.FunctionVersion) != functionVersion {
			continue
		}
		out = append(out, alias)
	}
	return out, nil
}

func (f *fakeServiceLambda) GetFunctionConfiguration(_ context.Context, functionName string, qualifier string) (*lambda.GetFunctionConfigurationOutput, error) {
	for _, configuration := range f.versions[functionName] {
		if aws.ToString(configuration.Version) == qualifier {
			return &lambda.GetFunctionConfigurationOutput{
				FunctionName: configuration.FunctionName,
				Version:      configuration.Version,
			}, nil
		}
	}
	return nil, errors.New("function not found")
}

func (f *fakeServiceLambda) DeleteFunction(_ context.Context, versionArn string) error {
	f.deletedFunctions = append(f.deletedFunctions, versionArn)
	return nil
}

func (f *fakeServiceLambda) ListLayerVersions(_ context.Context, layerName string) ([]lambdatypes.LayerVersionsListItem, error) {
	return f.layerVersions[layerName], nil
}

func (f *fakeServiceLambda) GetLayerVersion(_ context.Context, layerName string, version int64) (*lambda.GetLayerVersionOutput, error) {
	return &lambda.GetLayerVersionOutput{Version: version}, nil
}

func (f *fakeServiceLambda) DeleteLayerVersion(_ context.Context, layerName string, version int64) error {
	f.deletedLayers = append(f.deletedLayers, layerName+":"+strconv.FormatInt(version, 10))
	return nil
}

func (f *fakeServiceLambda) CreateAlias(_ context.Context, functionName string, name string, version string) error {
	f.createdAliases = append(f.createdAliases, functionName+"/"+name+"="+version)
	return nil
}

func (f *fakeServiceLambda) UpdateAlias(_ context.Context, functionName string, name string, version string) error {
	f.updatedAliases = append(f.updatedAliases, functionName+"/"+name+"="+version)
	return nil
}

type fakeServiceClients struct {
	lambda *fakeServiceLambda
}

func (c fakeServiceClients) Lambda(region string) servicer.LambdaAPI { return c.lambda }

func newTestShell(t *testing.T, data map[string]any, service *fakeServiceLambda) *Shell {
	t.Helper()
	if service == nil {
		service = &fakeServiceLambda{}
	}
	return &Shell{
		Context: &definitions.Context{
			Configuration: definitions.NewConfiguration(t.TempDir(), data, testAccount{}, t.TempDir()),
		},
		Selection:      definitions.NewSelection(),
		Console:        ui.New(io.Discard),
		Log:            logging.NewWithWriter(io.Discard, false),
		ServiceClients: fakeServiceClients{lambda: service},
	}
}

func publishedVersion(name string, version string) lambdatypes.FunctionConfiguration {
	return lambdatypes.FunctionConfiguration{
		FunctionName: aws.String(name),
		FunctionArn:  aws.String("arn:aws:lambda:eu-west-1:111122223333:function:" + name + ":" + version),
		Version:      aws.String(version),
	}
}

func publishedLayerVersion(name string, version int64) lambdatypes.LayerVersionsListItem {
	arn := "arn:aws:lambda:eu-west-1:111122223333:layer:" + name
	return lambdatypes.LayerVersionsListItem{
		LayerVersionArn: aws.String(arn + ":" + strconv.FormatInt(version, 10)),
		Version:         version,
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	shell := newTestShell(t, map[string]any{"targets": []any{}}, nil)

	result := shell.Execute(context.Background(), "bogus")
	if result.Status != StatusFailed {
		t.Fatalf("status = %q", result.Status)
	}

	if result := shell.Execute(context.Background(), "   "); result.Status != StatusSucceeded {
		t.Fatalf("blank line status = %q", result.Status)
	}
}

func TestExecuteSelectNarrowsTargets(t *testing.T) {
	shell := newTestShell(t, map[string]any{
		"targets": []any{
			map[string]any{"name": "app"},
			map[string]any{"name": "worker"},
			map[string]any{"name": "shared-deps", "kind": "layer"},
		},
	}, nil)

	result := shell.Execute(context.Background(), "select -e app")
	if result.Status != StatusSucceeded {
		t.Fatalf("select failed: %s", result.Message)
	}

	selected := shell.Context.SelectedTargets(shell.Selection)
	names := targetNames(selected.FunctionTargets())
	if len(names) != 1 || names[0] != "app" {
		t.Fatalf("selected functions = %v", names)
	}

	// A bare * resets back to everything.
	shell.Execute(context.Background(), "select *")
	selected = shell.Context.SelectedTargets(shell.Selection)
	if len(selected.Targets) != 3 {
		t.Fatalf("reset selected %d targets", len(selected.Targets))
	}
}

func TestRunHaltsQueueOnFailure(t *testing.T) {
	shell := newTestShell(t, map[string]any{"targets": []any{}}, nil)
	shell.Queue = []string{"bogus", "help"}

	if err := shell.Run(context.Background()); err == nil {
		t.Fatal("failed queued command did not halt the run")
	}
	if len(shell.Queue) != 1 {
		t.Fatalf("queue = %v", shell.Queue)
	}
}

func TestRunStopsOnExit(t *testing.T) {
	shell := newTestShell(t, map[string]any{"targets": []any{}}, nil)
	shell.Queue = []string{"help", "exit"}

	if err := shell.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !shell.Shutdown {
		t.Fatal("exit did not set shutdown")
	}
}
