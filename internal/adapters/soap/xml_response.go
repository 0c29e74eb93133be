package soap

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// validationFault is the fault string the gateway uses for rejected request content.
// Such faults belong to the action wrapper, not to the server-error path.
const validationFault = "validation"

// Fault is a SOAP fault found in a response body.
type Fault struct {
	Code   string
	String string
}

// IsValidation reports whether the gateway rejected the request content.
// Only the exact fault string counts, ignoring case.
func (f Fault) IsValidation() bool {
	return strings.EqualFold(f.String, validationFault)
}

// XMLResponse parses the body as XML and looks for a SOAP fault.
// A body that is not XML is kept; ParseError reports why.
type XMLResponse struct {
	BaseResponse
	doc      *etree.Document
	parseErr error
}

// NewXMLResponse builds an XMLResponse. It only fails when raw is nil.
func NewXMLResponse(raw *RawHTTPResponse) (*XMLResponse, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil raw response")
	}

	r := &XMLResponse{BaseResponse: NewBaseResponse(raw)}
	if len(raw.Body) == 0 {
		r.parseErr = fmt.Errorf("empty response body")
		return r, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw.Body); err != nil {
		r.parseErr = fmt.Errorf("failed to parse response XML: %w", err)
		return r, nil
	}
	if doc.Root() == nil {
		r.parseErr = fmt.Errorf("response XML has no root element")
		return r, nil
	}
	r.doc = doc
	return r, nil
}

// XMLResponseFactory is the ResponseFactory for plain SOAP responses.
func XMLResponseFactory(raw *RawHTTPResponse) (Response, error) {
	return NewXMLResponse(raw)
}

// Document returns the parsed body, or nil when it was not XML.
func (r *XMLResponse) Document() *etree.Document {
	return r.doc
}

// ParseError is non-nil when the body could not be parsed.
func (r *XMLResponse) ParseError() error {
	return r.parseErr
}

// Text returns the trimmed text of the first element matching path, or "".
func (r *XMLResponse) Text(path string) string {
	if r.doc == nil {
		return ""
	}
	el := r.doc.FindElement(path)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// Fault returns the SOAP 1.1 or 1.2 fault in the body, if any.
func (r *XMLResponse) Fault() (Fault, bool) {
	if r.doc == nil {
		return Fault{}, false
	}
	el := r.doc.FindElement("//Body/Fault")
	if el == nil {
		return Fault{}, false
	}

	f := Fault{}
	if c := el.FindElement("faultcode"); c != nil {
		f.Code = strings.TrimSpace(c.Text())
	} else if c := el.FindElement("Code/Value"); c != nil {
		f.Code = strings.TrimSpace(c.Text())
	}
	if s := el.FindElement("faultstring"); s != nil {
		f.String = strings.TrimSpace(s.Text())
	} else if s := el.FindElement("Reason/Text"); s != nil {
		f.String = strings.TrimSpace(s.Text())
	}
	return f, true
}

// IsGatewayServerError is true for every 5xx unless the body carries a validation fault,
// and for a non-validation fault on any other status.
func (r *XMLResponse) IsGatewayServerError() bool {
	fault, hasFault := r.Fault()
	if hasFault && fault.IsValidation() {
		return false
	}
	return hasFault || r.StatusCategory() == StatusServerError
}
