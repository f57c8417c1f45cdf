package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeBody is the uniform JSON body every endpoint produces.
type envelopeBody struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
	Success bool   `json:"success"`
}

// EnvelopeTransformer wraps every response body in the standard envelope so
// clients can rely on a single shape. Error bodies carry the machine-readable
// code; success bodies carry the payload under data.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if apiErr, ok := v.(*APIError); ok {
		return &envelopeBody{
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
		}, nil
	}

	// Status strings are three-digit codes, so a lexical compare works.
	return &envelopeBody{
		Success: status < "400",
		Data:    v,
	}, nil
}
