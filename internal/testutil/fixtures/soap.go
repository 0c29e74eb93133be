package fixtures

import (
	"fmt"
	"strings"
)

// SOAPResponseBuilder provides fluent API for building gateway response bodies.
type SOAPResponseBuilder struct {
	body        string
	faultCode   string
	faultString string
	hasFault    bool
}

// NewSOAPResponse creates a builder for an empty SOAP 1.1 response.
func NewSOAPResponse() *SOAPResponseBuilder {
	return &SOAPResponseBuilder{}
}

// WithBody sets the raw XML placed inside soap:Body.
func (b *SOAPResponseBuilder) WithBody(xml string) *SOAPResponseBuilder {
	b.body = xml
	return b
}

// WithFault replaces the body with a SOAP fault.
func (b *SOAPResponseBuilder) WithFault(code, message string) *SOAPResponseBuilder {
	b.hasFault = true
	b.faultCode = code
	b.faultString = message
	return b
}

// Build renders the envelope.
func (b *SOAPResponseBuilder) Build() string {
	var inner strings.Builder
	if b.hasFault {
		fmt.Fprintf(&inner, "<soap:Fault><faultcode>%s</faultcode><faultstring>%s</faultstring></soap:Fault>", b.faultCode, b.faultString)
	} else {
		inner.WriteString(b.body)
	}
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">` +
		`<soap:Body>` + inner.String() + `</soap:Body>` +
		`</soap:Envelope>`
}

// PaymentResponseXML is a minimal successful payment action response.
func PaymentResponseXML(result string) string {
	return NewSOAPResponse().
		WithBody(fmt.Sprintf(`<ns1:PaymentResponse xmlns:ns1="urn:gateway"><ns1:Result>%s</ns1:Result></ns1:PaymentResponse>`, result)).
		Build()
}
