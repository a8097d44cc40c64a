package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// InvokeAPIClient is the part of the lambda client used to invoke functions.
type InvokeAPIClient interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaInvoker invokes lambda functions without waiting for their result.
type LambdaInvoker struct {
	client InvokeAPIClient
}

func NewLambdaInvokerWithClient(client InvokeAPIClient) *LambdaInvoker {
	return &LambdaInvoker{client: client}
}

func NewLambdaInvoker(cfg aws.Config) *LambdaInvoker {
	return NewLambdaInvokerWithClient(lambda.NewFromConfig(cfg))
}

// InvokeAsync queues an invocation of function with payload. Lambda only
// reports whether the event was accepted.
func (l *LambdaInvoker) InvokeAsync(ctx context.Context, function string, payload []byte) error {
	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(function),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return err
	}
	if out.FunctionError != nil {
		return fmt.Errorf("function error: %s", aws.ToString(out.FunctionError))
	}
	return nil
}
