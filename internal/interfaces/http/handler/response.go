package handler

import "github.com/projecta/backend/internal/interfaces/http/dto"

// APIResponse is the envelope every JSON endpoint answers with. It only
// exists so the OpenAPI document can name the type of Data.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse documents the envelope of a failed request
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// CountData carries the number of rows an operation touched, such as the
// attendees enrolled on a course
type CountData struct {
	Count int64 `json:"count" example:"2"`
}
