// Package secrets resolves the upstream model credential.
//
// The key comes from provider.api_key (usually ${GEMINI_API_KEY}) or, when
// that is empty, from an AWS SSM parameter named by provider.api_key_parameter.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

var (
	ErrNoSSMClient     = errors.New("secrets: no SSM client for credential lookup")
	ErrNoParameterName = errors.New("secrets: credential parameter name is empty")
	ErrEmptyParameter  = errors.New("secrets: credential parameter has no value")
)

// ssmClient is the part of *ssm.Client used to read the credential.
type ssmClient interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// KeyReader reads a credential stored under a parameter name.
type KeyReader interface {
	ReadKey(ctx context.Context, name string) (string, error)
}

// SSMKeyStore reads SecureString credentials from SSM Parameter Store.
type SSMKeyStore struct {
	client ssmClient
}

func NewSSMKeyStore(client ssmClient) (*SSMKeyStore, error) {
	if client == nil {
		return nil, ErrNoSSMClient
	}
	return &SSMKeyStore{client: client}, nil
}

// LoadSSMKeyStore builds an SSMKeyStore from the default AWS config chain
// (environment, shared profile, instance role).
func LoadSSMKeyStore(ctx context.Context) (*SSMKeyStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: aws config for credential lookup: %w", err)
	}
	return NewSSMKeyStore(ssm.NewFromConfig(cfg))
}

// ReadKey implements KeyReader. The value is decrypted server side.
func (s *SSMKeyStore) ReadKey(ctx context.Context, name string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrNoSSMClient
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoParameterName
	}

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("secrets: read credential %s: %w", name, err)
	}
	if out == nil || out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyParameter, name)
	}
	return *out.Parameter.Value, nil
}
