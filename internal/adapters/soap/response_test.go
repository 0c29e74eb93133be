package soap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/soap-gateway/internal/testutil/fixtures"
)

// flaggedResponse lets a test pick the body-level verdict independently of the status
type flaggedResponse struct {
	BaseResponse
	serverError bool
}

func (r flaggedResponse) IsGatewayServerError() bool {
	return r.serverError
}

func flaggedFactory(serverError bool) ResponseFactory {
	return func(raw *RawHTTPResponse) (Response, error) {
		return flaggedResponse{BaseResponse: NewBaseResponse(raw), serverError: serverError}, nil
	}
}

func TestCategoryForStatus(t *testing.T) {
	tests := []struct {
		code int
		want StatusCategory
	}{
		{200, StatusSuccess},
		{204, StatusSuccess},
		{302, StatusOther},
		{100, StatusOther},
		{400, StatusClientError},
		{404, StatusClientError},
		{499, StatusClientError},
		{500, StatusServerError},
		{503, StatusServerError},
		{600, StatusOther},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryForStatus(tt.code))
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		serverError bool
		want        OutcomeKind
	}{
		{"4xx wins over body failure", 400, true, OutcomeClientError},
		{"404 without body failure", 404, false, OutcomeClientError},
		{"200 with body failure", 200, true, OutcomeServerError},
		{"200 clean", 200, false, OutcomeSuccess},
		{"500 reported clean by wrapper", 500, false, OutcomeSuccess},
		{"500 with body failure", 500, true, OutcomeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &RawHTTPResponse{StatusCode: tt.status}
			resp, err := flaggedFactory(tt.serverError)(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, classify(tt.status, resp))
		})
	}
}

func TestBaseResponse(t *testing.T) {
	raw := &RawHTTPResponse{StatusCode: 502, Body: []byte("bad gateway")}
	resp := NewBaseResponse(raw)

	assert.Same(t, raw, resp.Raw())
	assert.Equal(t, 502, resp.StatusCode())
	assert.Equal(t, []byte("bad gateway"), resp.Body())
	assert.Equal(t, StatusServerError, resp.StatusCategory())
	assert.True(t, resp.IsGatewayServerError())

	empty := NewBaseResponse(nil)
	assert.Equal(t, 0, empty.StatusCode())
	assert.False(t, empty.IsGatewayServerError())
}

func TestXMLResponse_ParsesBody(t *testing.T) {
	raw := &RawHTTPResponse{StatusCode: 200, Body: []byte(fixtures.PaymentResponseXML("APPROVED"))}
	resp, err := NewXMLResponse(raw)
	require.NoError(t, err)

	assert.NoError(t, resp.ParseError())
	require.NotNil(t, resp.Document())
	assert.Equal(t, "APPROVED", resp.Text("//PaymentResponse/Result"))
	assert.Equal(t, "", resp.Text("//Missing"))

	_, hasFault := resp.Fault()
	assert.False(t, hasFault)
	assert.False(t, resp.IsGatewayServerError())
}

func TestXMLResponse_Faults(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		faultString string
		want        bool
	}{
		{"server fault", 500, "Gateway internal error", true},
		{"fault on 200", 200, "Service unavailable", true},
		{"validation fault", 500, "validation", false},
		{"validation fault any case", 500, "Validation", false},
		{"validation fault on 200", 200, "validation", false},
		{"validation prefix is a server fault", 500, "validation service unavailable", true},
		{"validation with detail is a server fault", 500, "Validation failed: amount", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fixtures.NewSOAPResponse().WithFault("soap:Server", tt.faultString).Build()
			resp, err := NewXMLResponse(&RawHTTPResponse{StatusCode: tt.status, Body: []byte(body)})
			require.NoError(t, err)

			fault, ok := resp.Fault()
			require.True(t, ok)
			assert.Equal(t, "soap:Server", fault.Code)
			assert.Equal(t, tt.faultString, fault.String)
			assert.Equal(t, tt.want, resp.IsGatewayServerError())
		})
	}
}

func TestXMLResponse_SOAP12Fault(t *testing.T) {
	body := `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"><env:Body><env:Fault>` +
		`<env:Code><env:Value>env:Receiver</env:Value></env:Code>` +
		`<env:Reason><env:Text xml:lang="en">Processing error</env:Text></env:Reason>` +
		`</env:Fault></env:Body></env:Envelope>`
	resp, err := NewXMLResponse(&RawHTTPResponse{StatusCode: 500, Body: []byte(body)})
	require.NoError(t, err)

	fault, ok := resp.Fault()
	require.True(t, ok)
	assert.Equal(t, "env:Receiver", fault.Code)
	assert.Equal(t, "Processing error", fault.String)
	assert.True(t, resp.IsGatewayServerError())
}

func TestFault_IsValidation(t *testing.T) {
	assert.True(t, Fault{String: "validation"}.IsValidation())
	assert.True(t, Fault{String: "VALIDATION"}.IsValidation())
	assert.False(t, Fault{String: "validation service unavailable"}.IsValidation())
	assert.False(t, Fault{String: "request validation"}.IsValidation())
	assert.False(t, Fault{}.IsValidation())
}

func TestXMLResponse_ServerStatusWithXMLBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"proxy html page on 503", 503, "<html><body><h1>503 Service Unavailable</h1></body></html>"},
		{"empty envelope on 500", 500, fixtures.NewSOAPResponse().Build()},
		{"payload on 502", 502, fixtures.PaymentResponseXML("APPROVED")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewXMLResponse(&RawHTTPResponse{StatusCode: tt.status, Body: []byte(tt.body)})
			require.NoError(t, err)
			require.NoError(t, resp.ParseError())

			_, hasFault := resp.Fault()
			assert.False(t, hasFault)
			assert.True(t, resp.IsGatewayServerError())
			assert.Equal(t, OutcomeServerError, classify(tt.status, resp))
		})
	}
}

func TestXMLResponse_NonXMLBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"plain text on 503", 503, "Service Unavailable", true},
		{"truncated xml on 500", 500, "<soap:Envelope><soap:Body>", true},
		{"empty on 500", 500, "", true},
		{"plain text on 200", 200, "OK", false},
		{"empty on 404", 404, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewXMLResponse(&RawHTTPResponse{StatusCode: tt.status, Body: []byte(tt.body)})
			require.NoError(t, err)
			assert.Error(t, resp.ParseError())
			assert.Nil(t, resp.Document())
			assert.Equal(t, tt.want, resp.IsGatewayServerError())
		})
	}
}

func TestXMLResponseFactory_NilRaw(t *testing.T) {
	_, err := XMLResponseFactory(nil)
	assert.Error(t, err)
}

func TestOutcome_Err(t *testing.T) {
	resp := NewBaseResponse(&RawHTTPResponse{StatusCode: 404})

	ok := &Outcome{Kind: OutcomeSuccess, Response: resp}
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Err())

	clientOutcome := &Outcome{Kind: OutcomeClientError, Response: resp, Action: "Authorize"}
	var clientErr *ClientError
	require.ErrorAs(t, clientOutcome.Err(), &clientErr)
	assert.Same(t, clientOutcome, clientErr.Outcome)
	assert.False(t, clientErr.Retriable())
	assert.Contains(t, clientErr.Error(), "(HTTP 404)")

	serverOutcome := &Outcome{Kind: OutcomeServerError, Response: resp}
	var serverErr *ServerError
	require.ErrorAs(t, serverOutcome.Err(), &serverErr)
	assert.True(t, serverErr.Retriable())

	var nilOutcome *Outcome
	assert.False(t, nilOutcome.OK())
	assert.NoError(t, nilOutcome.Err())
}

func TestOutcomeKind_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "client_error", OutcomeClientError.String())
	assert.Equal(t, "server_error", OutcomeServerError.String())
	assert.Equal(t, "unknown", OutcomeKind(9).String())
}
