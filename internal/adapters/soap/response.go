package soap

import (
	"net/http"
)

// RawHTTPResponse is the captured result of one exchange. The body is fully read.
type RawHTTPResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// StatusCategory groups HTTP status codes the way callers branch on them
type StatusCategory string

const (
	StatusSuccess     StatusCategory = "success"      // 2xx
	StatusClientError StatusCategory = "client_error" // 4xx
	StatusServerError StatusCategory = "server_error" // 5xx
	StatusOther       StatusCategory = "other"        // 1xx, 3xx and anything unexpected
)

// CategoryForStatus maps a status code onto its category.
func CategoryForStatus(code int) StatusCategory {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case isClientErrorStatus(code):
		return StatusClientError
	case code >= 500 && code < 600:
		return StatusServerError
	default:
		return StatusOther
	}
}

func isClientErrorStatus(code int) bool {
	return code >= 400 && code < 500
}

// Response is what an action-specific wrapper must expose for classification.
type Response interface {
	// StatusCategory is the category of the HTTP status the response arrived with.
	StatusCategory() StatusCategory
	// IsGatewayServerError reports a gateway failure signalled in the body, whatever the status.
	IsGatewayServerError() bool
}

// ResponseFactory wraps a raw exchange into an action-specific Response.
type ResponseFactory func(raw *RawHTTPResponse) (Response, error)

// BaseResponse carries the raw exchange. Action wrappers embed it.
// On its own it only knows the status code, so a 5xx counts as a gateway server error.
type BaseResponse struct {
	raw *RawHTTPResponse
}

// NewBaseResponse wraps raw; a nil raw is treated as an empty response.
func NewBaseResponse(raw *RawHTTPResponse) BaseResponse {
	if raw == nil {
		raw = &RawHTTPResponse{Header: http.Header{}}
	}
	return BaseResponse{raw: raw}
}

// BaseResponseFactory is the ResponseFactory for callers that need no body inspection.
func BaseResponseFactory(raw *RawHTTPResponse) (Response, error) {
	return NewBaseResponse(raw), nil
}

func (r BaseResponse) Raw() *RawHTTPResponse {
	return r.raw
}

func (r BaseResponse) StatusCode() int {
	return r.raw.StatusCode
}

func (r BaseResponse) Body() []byte {
	return r.raw.Body
}

func (r BaseResponse) StatusCategory() StatusCategory {
	return CategoryForStatus(r.raw.StatusCode)
}

func (r BaseResponse) IsGatewayServerError() bool {
	return r.StatusCategory() == StatusServerError
}
