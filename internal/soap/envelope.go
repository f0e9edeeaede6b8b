// Package soap serves the cnsCliente operation of the legacy ws_newcon.asmx endpoint.
package soap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	NamespaceSOAP = "http://schemas.xmlsoap.org/soap/envelope/"
	NamespaceTNS  = "http://tempuri.org/"

	Operation = "cnsCliente"
)

var (
	ErrMalformed        = errors.New("XML malformado")
	ErrMissingOperation = errors.New("Envelope SOAP inválido - método cnsCliente não encontrado")
)

// Params holds the child elements of the operation element keyed by local name.
type Params map[string]string

// Request is the cnsCliente input after field-name fallback resolution.
type Request struct {
	TaxID      string
	Type       string
	PersonType string
	GroupType  string
}

// Candidate element names per logical field, first non-empty wins.
var (
	taxIDKeys      = []string{"Cgc_Cpf_Cliente", "cgc_Cpf_Cliente", "cpf_cnpj"}
	typeKeys       = []string{"Tipo", "tipo"}
	personTypeKeys = []string{"Pessoa", "pessoa"}
	groupTypeKeys  = []string{"Tipo_Grupo", "tipo_Grupo"}
)

// First returns the first non-empty value among keys.
func (p Params) First(keys ...string) string {
	for _, k := range keys {
		if v := p[k]; v != "" {
			return v
		}
	}
	return ""
}

// Request resolves the logical cnsCliente fields.
func (p Params) Request() Request {
	return Request{
		TaxID:      p.First(taxIDKeys...),
		Type:       p.First(typeKeys...),
		PersonType: p.First(personTypeKeys...),
		GroupType:  p.First(groupTypeKeys...),
	}
}

// ParseRequest reads an envelope and returns the parameters of the cnsCliente
// element found directly under Body. Namespace prefixes are ignored; Envelope
// and Body also match in lower case.
func ParseRequest(r io.Reader) (Params, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	depth := 0
	// 1: inside Envelope, 2: inside Body, 3: inside operation
	stage := 0
	params := Params{}
	var (
		current string
		text    strings.Builder
		found   bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			name := t.Name.Local
			switch {
			case depth == 1 && isEnvelope(name):
				stage = 1
			case depth == 2 && stage == 1 && isBody(name):
				stage = 2
			case depth == 3 && stage == 2 && name == Operation && !found:
				stage = 3
				found = true
			case depth == 4 && stage == 3:
				current = name
				text.Reset()
			}
		case xml.CharData:
			if depth == 4 && stage == 3 && current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 4 && stage == 3 && current != "" {
				if _, seen := params[current]; !seen {
					params[current] = strings.TrimSpace(text.String())
				}
				current = ""
			}
			if depth == 3 && stage == 3 {
				stage = 2
			}
			depth--
		}
	}
	if !found {
		return nil, ErrMissingOperation
	}
	return params, nil
}

func isEnvelope(name string) bool { return name == "Envelope" || name == "envelope" }
func isBody(name string) bool     { return name == "Body" || name == "body" }
