// Package paramstore reads secrets from AWS Systems Manager Parameter Store.
package paramstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ErrNotFound is returned when a parameter exists but carries no value.
var ErrNotFound = errors.New("parameter has no value")

// API is the subset of the SSM client used by Store.
type API interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Store fetches decrypted parameter values. Values are not cached.
type Store struct {
	api API
}

func New(api API) *Store {
	return &Store{api: api}
}

// Get returns the decrypted value of the named parameter.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return aws.ToString(out.Parameter.Value), nil
}
