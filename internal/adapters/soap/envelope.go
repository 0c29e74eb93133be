package soap

import (
	"fmt"
	"strings"
)

// bodyPlaceholder marks where the action payload goes in an envelope template.
const bodyPlaceholder = "%s"

// DefaultEnvelopeTemplate is the SOAP 1.1 envelope the gateway expects.
const DefaultEnvelopeTemplate = `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <soap:Body>
    %s
  </soap:Body>
</soap:Envelope>
`

// DefaultEnvelope is the parsed DefaultEnvelopeTemplate.
var DefaultEnvelope = MustEnvelope(DefaultEnvelopeTemplate)

// Envelope is a fixed wrapper with a single substitution point split into prefix and suffix.
type Envelope struct {
	prefix string
	suffix string
}

// NewEnvelope validates that template contains exactly one %s.
func NewEnvelope(template string) (Envelope, error) {
	if n := strings.Count(template, bodyPlaceholder); n != 1 {
		return Envelope{}, fmt.Errorf("envelope template must contain exactly one %s placeholder, found %d", bodyPlaceholder, n)
	}
	prefix, suffix, _ := strings.Cut(template, bodyPlaceholder)
	return Envelope{prefix: prefix, suffix: suffix}, nil
}

// MustEnvelope is NewEnvelope for package-level templates.
func MustEnvelope(template string) Envelope {
	env, err := NewEnvelope(template)
	if err != nil {
		panic(err)
	}
	return env
}

// Wrap inserts payload verbatim. The payload is not escaped or checked for well-formedness.
func (e Envelope) Wrap(payload string) string {
	var b strings.Builder
	b.Grow(len(e.prefix) + len(payload) + len(e.suffix))
	b.WriteString(e.prefix)
	b.WriteString(payload)
	b.WriteString(e.suffix)
	return b.String()
}
