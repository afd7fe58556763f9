// Where: internal/awsconn/connection.go
// What: AWS session wrapper with caller identity resolution.
// Why: One resolved credential chain shared by every AWS operation.
package awsconn

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Connection wraps a resolved AWS configuration along with the caller
// identity of the session. It satisfies the account-info contract the
// configuration views derive values against.
type Connection struct {
	cfg       aws.Config
	accountID string
	userID    string
	callerArn string
}

// New resolves the default credential chain and the caller identity.
// An optional profile selects a shared-config profile.
func New(ctx context.Context, profile string) (*Connection, error) {
	var options []func(*config.LoadOptions) error
	if profile != "" {
		options = append(options, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("load aws configuration: %w", err)
	}

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("resolve caller identity: %w", err)
	}

	return &Connection{
		cfg:       cfg,
		accountID: aws.ToString(identity.Account),
		userID:    aws.ToString(identity.UserId),
		callerArn: aws.ToString(identity.Arn),
	}, nil
}

// NewFromConfig builds a connection from an already-resolved
// configuration and identity, used by tests.
func NewFromConfig(cfg aws.Config, accountID string, userID string, callerArn string) *Connection {
	return &Connection{
		cfg:       cfg,
		accountID: accountID,
		userID:    userID,
		callerArn: callerArn,
	}
}

// Region returns the session's default region.
func (c *Connection) Region() string {
	return c.cfg.Region
}

// AccountID returns the account the session is bound to.
func (c *Connection) AccountID() string {
	return c.accountID
}

// UserID returns the fully-qualified user ID of the session.
func (c *Connection) UserID() string {
	return c.userID
}

// CallerArn returns the ARN of the session's caller.
func (c *Connection) CallerArn() string {
	return c.callerArn
}

// UserSlug derives the short account/user display form of the caller
// for use in the shell prompt.
func (c *Connection) UserSlug() string {
	if index := strings.Index(c.callerArn, "iam::"); index >= 0 {
		return c.callerArn[index+len("iam::"):]
	}
	if index := strings.Index(c.callerArn, "sts::"); index >= 0 {
		slug := c.callerArn[index+len("sts::"):]
		if cut := strings.LastIndex(slug, "/"); cut >= 0 {
			return slug[:cut]
		}
		return slug
	}
	return c.callerArn
}

// Credentials retrieves the session's resolved credentials, used to
// hand credentials to package-manager subprocesses.
func (c *Connection) Credentials(ctx context.Context) (aws.Credentials, error) {
	return c.cfg.Credentials.Retrieve(ctx)
}

// Lambda builds a Lambda client for the given region, defaulting to
// the session region when empty.
func (c *Connection) Lambda(region string) *lambda.Client {
	return lambda.NewFromConfig(c.regional(region))
}

// S3 builds an S3 client for the given region, defaulting to the
// session region when empty.
func (c *Connection) S3(region string) *s3.Client {
	return s3.NewFromConfig(c.regional(region))
}

func (c *Connection) regional(region string) aws.Config {
	cfg := c.cfg.Copy()
	if region != "" {
		cfg.Region = region
	}
	return cfg
}
