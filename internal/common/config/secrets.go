package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmPrefix marks an environment value as a reference to an SSM parameter,
// e.g. SHOPIFY_API_SECRET=ssm:/shop-dash/prod/api-secret.
const ssmPrefix = "ssm:"

type SecretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

type parameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SSMResolver struct {
	client parameterGetter
}

func NewSSMResolver(client parameterGetter) *SSMResolver {
	return &SSMResolver{client: client}
}

func (r *SSMResolver) Resolve(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %s has no value", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// lazyResolver only loads AWS credentials when a value actually references SSM.
type lazyResolver struct {
	once     sync.Once
	resolver SecretResolver
	err      error
}

func lazySSMResolver() SecretResolver {
	return &lazyResolver{}
}

func (l *lazyResolver) Resolve(ctx context.Context, name string) (string, error) {
	l.once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			l.err = fmt.Errorf("load aws config: %w", err)
			return
		}
		l.resolver = NewSSMResolver(ssm.NewFromConfig(cfg))
	})
	if l.err != nil {
		return "", l.err
	}
	return l.resolver.Resolve(ctx, name)
}

func resolveValue(ctx context.Context, secrets SecretResolver, key, value string) (string, error) {
	if !strings.HasPrefix(value, ssmPrefix) {
		return value, nil
	}
	if secrets == nil {
		return "", ErrInvalidConfig.WithCause(fmt.Errorf("%s references ssm but no resolver is configured", key))
	}
	resolved, err := secrets.Resolve(ctx, strings.TrimPrefix(value, ssmPrefix))
	if err != nil {
		return "", ErrInvalidConfig.WithCause(fmt.Errorf("%s: %w", key, err))
	}
	return resolved, nil
}

func mustSecret(ctx context.Context, secrets SecretResolver, key string) (string, error) {
	v, err := mustEnv(key)
	if err != nil {
		return "", err
	}
	resolved, err := resolveValue(ctx, secrets, key, v)
	if err != nil {
		return "", err
	}
	if resolved == "" {
		return "", ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s resolved to an empty value", key))
	}
	return resolved, nil
}

func optionalSecret(ctx context.Context, secrets SecretResolver, key string) (string, error) {
	v := getEnv(key, "")
	if v == "" {
		return "", nil
	}
	return resolveValue(ctx, secrets, key, v)
}
