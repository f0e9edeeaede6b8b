package bureau

import "time"

// Provider synthesizes snapshots. Implementations must be safe for concurrent use.
type Provider interface {
	Documents(subject string) DocumentValidation
	SPC(subject string) SPC
	Serpro(individual bool, at time.Time) Serpro
}

// Canned returns the same fixed payloads for every subject.
type Canned struct{}

var _ Provider = Canned{}

func date(s string) *string { return &s }

func (Canned) Documents(string) DocumentValidation {
	return DocumentValidation{
		Income: DocumentCheck{
			Present:   true,
			ExpiresOn: date("2025-08-15"),
			Valid:     true,
			Kind:      "holerite",
		},
		Residence: DocumentCheck{
			Present:   true,
			ExpiresOn: date("2025-12-31"),
			Valid:     true,
			Kind:      "conta_luz",
		},
		Identification: IdentityDocuments{
			RG:  DocumentCheck{Present: true, ExpiresOn: date("2030-06-20"), Valid: true},
			CNH: DocumentCheck{Present: false, ExpiresOn: nil, Valid: false},
		},
	}
}

func (Canned) SPC(string) SPC {
	return SPC{
		Message:         "Consulta SPC realizada com sucesso",
		Situation:       "Regular",
		HasRestrictions: false,
		Score:           Score{Value: 750, Class: "C", Probability: "15.2%"},
		Alerts: Alerts{
			Total: "2",
			Summary: AlertSummary{
				LastOccurrence: "2024-01-15T00:00:00-03:00",
				Kinds:          []string{"Consulta SPC", "Análise de Crédito"},
			},
		},
	}
}

// Serpro returns the individual (consumer) shape for CPFs and the company shape otherwise.
func (Canned) Serpro(individual bool, at time.Time) Serpro {
	out := Serpro{
		Message:    "Consulta Serpro já realizada nesta data",
		ServerDate: at.UTC().Format(time.DateOnly),
		StatusCode: 200,
	}
	if individual {
		out.Consumer = &SerproConsumer{Individual: SerproIndividual{
			CPF:       MaskedCPF{Number: "***.***.***-**", OriginRegion: "SAO PAULO"},
			BirthDate: "1985-06-20T00:00:00-03:00",
			Email:     "***@***.com",
			Address: Address{
				Street:   "RUA DAS FLORES, 123",
				District: "CENTRO",
				City:     "SAO PAULO",
				State:    "SP",
				ZIP:      "01234-567",
			},
			Situation: Situation{Code: "0", Description: "REGULAR"},
		}}
		return out
	}
	out.Company = &SerproCompany{
		LegalName: "EMPRESA EXEMPLO LTDA",
		TradeName: "EXEMPLO",
		CNPJ:      "**.***.***/****-**",
		Situation: Situation{Code: "02", Description: "ATIVA"},
		Address: Address{
			Street:   "AV PRINCIPAL, 456",
			District: "INDUSTRIAL",
			City:     "GOIANIA",
			State:    "GO",
			ZIP:      "74000-000",
		},
		Partners: []Partner{
			{Name: "João Silva", Qualification: "49", Kind: "2", Share: "50.0"},
			{Name: "Maria Santos", Qualification: "49", Kind: "2", Share: "50.0"},
		},
		EstablishmentType: "1",
	}
	return out
}
