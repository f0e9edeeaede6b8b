package soap

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/connectus/newcon-mock/internal/customer"
	"github.com/connectus/newcon-mock/internal/ledger"
)

// NotFoundMessage is the ErrMsg of a lookup miss; the call itself still succeeds.
const NotFoundMessage = "Cliente não encontrado para o CPF/CNPJ informado"

type envelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	Soap    string   `xml:"xmlns:soap,attr"`
	TNS     string   `xml:"xmlns:tns,attr"`
	Body    body     `xml:"soap:Body"`
}

type body struct {
	Payload any
}

// ClientResponse lists the success fields in wire order.
type ClientResponse struct {
	XMLName        xml.Name `xml:"tns:cnsClienteResponse"`
	Name           string   `xml:"Nome"`
	TaxID          string   `xml:"Cgc_Cpf_Cliente"`
	Document       string   `xml:"Documento"`
	Issuer         string   `xml:"Orgao_Emissor"`
	DocumentIssued string   `xml:"Data_Exp_Doc"`
	Birthplace     string   `xml:"Naturalidade"`
	DocumentState  string   `xml:"UF_Doc_Cliente"`
	Nationality    string   `xml:"Nacionalidade"`
	BirthDate      string   `xml:"Data_Nascimento"`
	MaritalStatus  string   `xml:"Estado_Civil"`
	Sex            string   `xml:"Sexo"`
	Mobile         string   `xml:"Celular"`
	Email          string   `xml:"E_Mail"`
	MonthlyIncome  string   `xml:"Valor_Renda_Mensal"`
	ProfessionCode int      `xml:"Codigo_Profissao"`
	PersonType     string   `xml:"Pessoa"`
	ErrMsg         string   `xml:"ErrMsg"`
}

// FaultResponse carries an error in ErrMsg with the remaining fields blank.
type FaultResponse struct {
	XMLName       xml.Name `xml:"tns:cnsClienteResponse"`
	Name          string   `xml:"Nome"`
	TaxID         string   `xml:"Cgc_Cpf_Cliente"`
	BirthDate     string   `xml:"Data_Nascimento"`
	MonthlyIncome string   `xml:"Valor_Renda_Mensal"`
	ErrMsg        string   `xml:"ErrMsg"`
}

// NewClientResponse maps a registry entry to the wire shape.
func NewClientResponse(c customer.Client) ClientResponse {
	return ClientResponse{
		Name:           c.Name,
		TaxID:          FormatTaxID(c.TaxID),
		Document:       c.Document,
		Issuer:         c.Issuer,
		DocumentIssued: c.DocumentIssued,
		Birthplace:     c.Birthplace,
		DocumentState:  c.DocumentState,
		Nationality:    c.Nationality,
		BirthDate:      c.BirthDate,
		MaritalStatus:  c.MaritalStatus,
		Sex:            c.Sex,
		Mobile:         c.Mobile,
		Email:          c.Email,
		MonthlyIncome:  strconv.FormatFloat(c.MonthlyIncome, 'f', 2, 64),
		ProfessionCode: c.ProfessionCode,
		PersonType:     c.PersonType,
	}
}

// SuccessEnvelope renders the response for a found client.
func SuccessEnvelope(c customer.Client) ([]byte, error) {
	return marshal(NewClientResponse(c))
}

// FaultEnvelope renders a response whose ErrMsg carries msg.
func FaultEnvelope(msg string) ([]byte, error) {
	return marshal(FaultResponse{MonthlyIncome: "0.00", ErrMsg: msg})
}

func marshal(payload any) ([]byte, error) {
	env := envelope{Soap: NamespaceSOAP, TNS: NamespaceTNS, Body: body{Payload: payload}}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// FormatTaxID renders 11 digits as a CPF (000.000.000-00) and 14 digits as a
// CNPJ (00.000.000/0000-00). Other lengths come back as bare digits.
func FormatTaxID(raw string) string {
	d := string(ledger.NormalizeKey(raw))
	switch len(d) {
	case 11:
		return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
	case 14:
		return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
	default:
		return d
	}
}
