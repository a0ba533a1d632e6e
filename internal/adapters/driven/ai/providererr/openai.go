package providererr

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// FromOpenAI translates an error returned by the go-openai client.
// Context cancellation is passed through untouched.
func FromOpenAI(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return FromStatus(provider, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return FromStatus(provider, reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	return Transport(provider, err)
}
