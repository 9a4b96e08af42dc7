package bedrock

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ChunkStream yields raw payload chunks of a response stream. Next returns
// io.EOF once the stream is exhausted.
type ChunkStream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Invoker starts a streaming model invocation.
type Invoker interface {
	InvokeStream(ctx context.Context, modelID string, body []byte) (ChunkStream, error)
}

// RuntimeAPI is the subset of the bedrockruntime client used here.
type RuntimeAPI interface {
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

type sdkInvoker struct {
	api RuntimeAPI
}

// NewInvoker wraps a bedrockruntime client.
func NewInvoker(api RuntimeAPI) Invoker {
	return &sdkInvoker{api: api}
}

func (s *sdkInvoker) InvokeStream(ctx context.Context, modelID string, body []byte) (ChunkStream, error) {
	out, err := s.api.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, err
	}
	return &eventStream{s: out.GetStream()}, nil
}

type eventStream struct {
	s *bedrockruntime.InvokeModelWithResponseStreamEventStream
}

func (e *eventStream) Next(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-e.s.Events():
			if !ok {
				if err := e.s.Err(); err != nil {
					return nil, err
				}
				return nil, io.EOF
			}
			if chunk, ok := ev.(*types.ResponseStreamMemberChunk); ok {
				return chunk.Value.Bytes, nil
			}
		}
	}
}

func (e *eventStream) Close() error {
	return e.s.Close()
}
