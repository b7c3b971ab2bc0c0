package llm

import (
	"context"
	"time"

	"github.com/capitalize-ai/finwise-assistant/pkg/metrics"
)

// Call purposes used as metric labels.
const (
	PurposeGenerate = "generate"
	PurposeValidate = "validate"
	PurposeRespond  = "respond"
)

// CompleteObserved calls c.Complete and records the outcome under purpose.
func CompleteObserved(ctx context.Context, c Client, purpose string, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	resp, err := c.Complete(ctx, req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordLLMCall(purpose, "", "error", elapsed, 0, 0)
		return nil, err
	}
	metrics.RecordLLMCall(purpose, resp.Model, "success", elapsed, resp.TokensIn, resp.TokensOut)
	return resp, nil
}
