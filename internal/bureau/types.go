// Package bureau provides the canned document and credit-bureau snapshots
// returned by the validation service. Field names follow the Newcon wire format.
package bureau

// DocumentCheck is the presence/validity state of one document class.
type DocumentCheck struct {
	Present   bool    `json:"presente"`
	ExpiresOn *string `json:"data_validade"`
	Valid     bool    `json:"valido"`
	Kind      string  `json:"tipo,omitempty"`
}

type IdentityDocuments struct {
	RG  DocumentCheck `json:"rg"`
	CNH DocumentCheck `json:"cnh"`
}

// DocumentValidation groups the checks per document class.
type DocumentValidation struct {
	Income         DocumentCheck     `json:"renda"`
	Residence      DocumentCheck     `json:"residencia"`
	Identification IdentityDocuments `json:"identificacao"`
}

// SPC is the credit protection bureau snapshot.
type SPC struct {
	Message         string `json:"msg"`
	Situation       string `json:"situacao"`
	HasRestrictions bool   `json:"possuiRestricoesSPC"`
	Score           Score  `json:"score"`
	Alerts          Alerts `json:"alertas"`
}

type Score struct {
	Value       int    `json:"valor"`
	Class       string `json:"classe"`
	Probability string `json:"probabilidade"`
}

type Alerts struct {
	Total   string       `json:"quantidade_total"`
	Summary AlertSummary `json:"resumo"`
}

type AlertSummary struct {
	LastOccurrence string   `json:"data_ultima_ocorrencia"`
	Kinds          []string `json:"tipos"`
}

// Serpro is the federal registry snapshot. Exactly one of Consumer or Company is set,
// depending on whether the subject is an individual or an organization.
type Serpro struct {
	Message    string          `json:"msg"`
	ServerDate string          `json:"dataConsultaServidor"`
	StatusCode int             `json:"status_code"`
	Consumer   *SerproConsumer `json:"consumidor,omitempty"`
	Company    *SerproCompany  `json:"empresa,omitempty"`
}

type SerproConsumer struct {
	Individual SerproIndividual `json:"consumidor-pessoa-fisica"`
}

type SerproIndividual struct {
	CPF       MaskedCPF `json:"cpf"`
	BirthDate string    `json:"data-nascimento"`
	Email     string    `json:"email"`
	Address   Address   `json:"endereco"`
	Situation Situation `json:"situacao"`
}

type MaskedCPF struct {
	Number       string `json:"numero"`
	OriginRegion string `json:"regiao-origem"`
}

type SerproCompany struct {
	LegalName         string    `json:"razao-social"`
	TradeName         string    `json:"nome-fantasia"`
	CNPJ              string    `json:"cnpj"`
	Situation         Situation `json:"situacao"`
	Address           Address   `json:"endereco"`
	Partners          []Partner `json:"socios"`
	EstablishmentType string    `json:"tipo-estabelecimento"`
}

type Address struct {
	Street   string `json:"logradouro"`
	District string `json:"bairro"`
	City     string `json:"cidade"`
	State    string `json:"uf"`
	ZIP      string `json:"cep"`
}

type Situation struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
}

type Partner struct {
	Name          string `json:"nome"`
	Qualification string `json:"qualificacao"`
	Kind          string `json:"tipo-socio"`
	Share         string `json:"percentual-participacao"`
}
