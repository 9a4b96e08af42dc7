package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeSSM struct {
	values map[string]string
	calls  int
	input  *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.input = in
	v, ok := f.values[aws.ToString(in.Name)]
	if !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("not found")}
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func TestGet(t *testing.T) {
	f := &fakeSSM{values: map[string]string{"/augur/openai-key": "sk-test", "/augur/empty": ""}}
	s := New(f)

	v, err := s.Get(context.Background(), "/augur/openai-key")
	if err != nil || v != "sk-test" {
		t.Fatalf("get = %q, %v", v, err)
	}
	if !aws.ToBool(f.input.WithDecryption) {
		t.Fatal("expected decryption")
	}
	if _, err := s.Get(context.Background(), "/augur/openai-key"); err != nil {
		t.Fatal(err)
	}
	if f.calls != 2 {
		t.Fatalf("values must not be cached, calls = %d", f.calls)
	}

	var nf *types.ParameterNotFound
	if _, err := s.Get(context.Background(), "/augur/missing"); !errors.As(err, &nf) {
		t.Fatalf("missing: %v", err)
	}
	if _, err := s.Get(context.Background(), "/augur/empty"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty: %v", err)
	}
}
