// Package customer holds the client registry served by the cnsCliente operation.
package customer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/connectus/newcon-mock/internal/ledger"
)

// Person types.
const (
	Individual   = "F"
	Organization = "J"
)

var ErrNotFound = errors.New("customer: not found")

// Client is a registered customer. Dates keep the upstream local-time layout
// without zone, e.g. 2020-01-15T00:00:00.
type Client struct {
	TaxID          string  `yaml:"cgc_cpf_cliente"`
	Name           string  `yaml:"nome"`
	Document       string  `yaml:"documento"`
	Issuer         string  `yaml:"orgao_emissor"`
	DocumentIssued string  `yaml:"data_exp_doc"`
	Birthplace     string  `yaml:"naturalidade"`
	DocumentState  string  `yaml:"uf_doc_cliente"`
	Nationality    string  `yaml:"nacionalidade"`
	BirthDate      string  `yaml:"data_nascimento"`
	MaritalStatus  string  `yaml:"estado_civil"`
	Sex            string  `yaml:"sexo"`
	Mobile         string  `yaml:"celular"`
	Email          string  `yaml:"e_mail"`
	MonthlyIncome  float64 `yaml:"valor_renda_mensal"`
	ProfessionCode int     `yaml:"codigo_profissao"`
	PersonType     string  `yaml:"pessoa"`
}

// Directory is an immutable index of clients by normalized tax id.
type Directory struct {
	byKey map[ledger.Key]Client
}

// NewDirectory indexes clients, rejecting empty or duplicated tax ids.
func NewDirectory(clients []Client) (*Directory, error) {
	d := &Directory{byKey: make(map[ledger.Key]Client, len(clients))}
	for _, c := range clients {
		key := ledger.NormalizeKey(c.TaxID)
		if key == "" {
			return nil, fmt.Errorf("customer %q: empty tax id", c.Name)
		}
		if _, dup := d.byKey[key]; dup {
			return nil, fmt.Errorf("customer %s: duplicated", key)
		}
		c.TaxID = string(key)
		c.PersonType = strings.ToUpper(c.PersonType)
		d.byKey[key] = c
	}
	return d, nil
}

// Lookup finds a client by CPF/CNPJ in any formatting. A non-empty personType
// must match the client's type, compared case-insensitively.
func (d *Directory) Lookup(rawTaxID, personType string) (Client, error) {
	key := ledger.NormalizeKey(rawTaxID)
	if key == "" {
		return Client{}, ErrNotFound
	}
	c, ok := d.byKey[key]
	if !ok {
		return Client{}, ErrNotFound
	}
	if personType != "" && !strings.EqualFold(c.PersonType, personType) {
		return Client{}, ErrNotFound
	}
	return c, nil
}

// Len returns the number of registered clients.
func (d *Directory) Len() int { return len(d.byKey) }

// DefaultClients returns the stock registry.
func DefaultClients() []Client {
	return []Client{
		{
			TaxID:          "12345678901",
			Name:           "João Silva Santos",
			Document:       "123456789",
			Issuer:         "SSP-SP",
			DocumentIssued: "2020-01-15T00:00:00",
			Birthplace:     "São Paulo",
			DocumentState:  "SP",
			Nationality:    "Brasileira",
			BirthDate:      "1985-06-20T00:00:00",
			MaritalStatus:  "S",
			Sex:            "M",
			Mobile:         "11987654321",
			Email:          "joao.silva@email.com",
			MonthlyIncome:  5500.00,
			ProfessionCode: 1234,
			PersonType:     Individual,
		},
		{
			TaxID:          "98765432100",
			Name:           "Maria Oliveira Costa",
			Document:       "987654321",
			Issuer:         "SSP-RJ",
			DocumentIssued: "2019-03-10T00:00:00",
			Birthplace:     "Rio de Janeiro",
			DocumentState:  "RJ",
			Nationality:    "Brasileira",
			BirthDate:      "1990-12-05T00:00:00",
			MaritalStatus:  "C",
			Sex:            "F",
			Mobile:         "21987654321",
			Email:          "maria.oliveira@email.com",
			MonthlyIncome:  8200.50,
			ProfessionCode: 2345,
			PersonType:     Individual,
		},
		{
			TaxID:          "12345678000190",
			Name:           "Empresa Exemplo LTDA",
			Document:       "12345678000190",
			Issuer:         "JUCEG",
			DocumentIssued: "2018-08-25T00:00:00",
			DocumentState:  "GO",
			Nationality:    "Brasileira",
			BirthDate:      "2018-08-25T00:00:00",
			Mobile:         "62987654321",
			Email:          "contato@empresaexemplo.com.br",
			MonthlyIncome:  25000.00,
			PersonType:     Organization,
		},
	}
}
