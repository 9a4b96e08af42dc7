package openai

import (
	"context"
	"errors"
)

// ErrNoKey is returned when no API key source is configured.
var ErrNoKey = errors.New("openai: no api key configured")

// KeySource yields the API key for one invocation.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a key supplied through configuration.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) {
	if k == "" {
		return "", ErrNoKey
	}
	return string(k), nil
}

// ParameterGetter reads a secret by name.
type ParameterGetter interface {
	Get(ctx context.Context, name string) (string, error)
}

// ParameterKey fetches the key from a parameter store on every call.
type ParameterKey struct {
	Store ParameterGetter
	Name  string
}

func (p ParameterKey) APIKey(ctx context.Context) (string, error) {
	if p.Store == nil || p.Name == "" {
		return "", ErrNoKey
	}
	return p.Store.Get(ctx, p.Name)
}
