package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretsAPI is the subset of the Secrets Manager client used here.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerResolver reads the latest version of a secret from AWS
// Secrets Manager. Secrets are keyed by project and name as "<project>/<name>";
// with no project the bare name is used.
type SecretsManagerResolver struct {
	client  secretsAPI
	project string
}

// NewSecretsManagerResolver creates a resolver. If endpoint is non-empty it
// overrides the service endpoint (for LocalStack and similar).
func NewSecretsManagerResolver(ctx context.Context, project, region, endpoint string) (*SecretsManagerResolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var opts []func(*secretsmanager.Options)
	if endpoint != "" {
		opts = append(opts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &SecretsManagerResolver{
		client:  secretsmanager.NewFromConfig(cfg, opts...),
		project: project,
	}, nil
}

// SecretID returns the store key for name.
func (r *SecretsManagerResolver) SecretID(name string) string {
	if r.project == "" {
		return name
	}
	return r.project + "/" + name
}

func (r *SecretsManagerResolver) Resolve(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", unavailable("(unset)", errors.New("secret name is empty"))
	}

	id := r.SecretID(name)
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", unavailable(id, err)
	}

	switch {
	case out.SecretString != nil:
		return *out.SecretString, nil
	case len(out.SecretBinary) > 0:
		return string(out.SecretBinary), nil
	}
	return "", unavailable(id, errors.New("secret has no value"))
}
