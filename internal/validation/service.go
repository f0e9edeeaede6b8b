// Package validation runs a document check for a CPF/CNPJ and, on request,
// attaches bureau snapshots while honouring the ledger grace period.
package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/connectus/newcon-mock/internal/audit"
	"github.com/connectus/newcon-mock/internal/bureau"
	"github.com/connectus/newcon-mock/internal/ledger"
	"github.com/connectus/newcon-mock/internal/obs"
	"github.com/connectus/newcon-mock/internal/stream"
)

// GraceMessage is attached to results replayed from an earlier consultation.
const GraceMessage = "Dentro do período de carência - dados da última consulta"

// Outcome labels one Validate call for metrics and the event stream.
type Outcome string

const (
	OutcomeFresh         Outcome = "fresh"
	OutcomeGraceReplay   Outcome = "grace_replay"
	OutcomeDocumentsOnly Outcome = "documents_only"
)

var (
	ErrMissingSubject = errors.New("cpf_cnpj é obrigatório")
	ErrInternal       = errors.New("validation: internal fault")
)

// QueryBureaus maps the consulta_opc_SN flag; only "S" enables bureau lookups.
func QueryBureaus(flag string) bool { return flag == "S" }

type Service struct {
	ledger   *ledger.Ledger
	provider bureau.Provider
	events   *stream.Stream
}

type Option func(*Service)

// WithProvider swaps the bureau snapshot source.
func WithProvider(p bureau.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithEvents publishes a masked event per consultation.
func WithEvents(st *stream.Stream) Option {
	return func(s *Service) { s.events = st }
}

func New(l *ledger.Ledger, opts ...Option) *Service {
	s := &Service{ledger: l, provider: bureau.Canned{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate builds the consultation for rawSubject and records it. The ledger
// append happens after the response is built, so the grace check only sees
// earlier calls.
func (s *Service) Validate(ctx context.Context, rawSubject string, queryBureaus bool) (ledger.Consultation, Outcome, error) {
	if rawSubject == "" {
		return ledger.Consultation{}, "", ErrMissingSubject
	}
	key := ledger.NormalizeKey(rawSubject)
	if key == "" {
		return ledger.Consultation{}, "", ErrMissingSubject
	}

	unlock := s.ledger.Lock(key)
	defer unlock()

	now := s.ledger.Now()
	result := ledger.Consultation{
		CPFCNPJ:    rawSubject,
		ServerDate: now.Format(time.DateOnly),
		StatusCode: 200,
		Documents:  s.provider.Documents(string(key)),
	}

	outcome := OutcomeDocumentsOnly
	if queryBureaus {
		recent, err := s.ledger.HasRecentRecord(ctx, key, now)
		if err != nil {
			return ledger.Consultation{}, "", fmt.Errorf("%w: grace lookup: %v", ErrInternal, err)
		}
		if !recent {
			spc := s.provider.SPC(string(key))
			serpro := s.provider.Serpro(key.Individual(), now)
			result.SPC = &spc
			result.Serpro = &serpro
			outcome = OutcomeFresh
		} else {
			result.Message = GraceMessage
			prev, ok, err := s.ledger.Latest(ctx, key)
			if err != nil {
				return ledger.Consultation{}, "", fmt.Errorf("%w: latest lookup: %v", ErrInternal, err)
			}
			if ok {
				result.Overlay(prev)
			}
			outcome = OutcomeGraceReplay
		}
	}

	rec, err := s.ledger.Append(ctx, key, result)
	if err != nil {
		return ledger.Consultation{}, "", fmt.Errorf("%w: append: %v", ErrInternal, err)
	}

	obs.RecordConsultation(string(outcome))
	event := "validation.consulted"
	if outcome == OutcomeGraceReplay {
		event = "validation.grace_replay"
	}
	_ = audit.LogEvent(ctx, event, map[string]any{
		"subject":   key.Masked(),
		"outcome":   string(outcome),
		"bureaus":   result.HasBureauData(),
		"record_id": rec.ID,
	})
	s.events.Publish(stream.ConsultationEvent{
		Subject:    key.Masked(),
		Outcome:    string(outcome),
		RecordedAt: rec.RecordedAt,
	})
	return result, outcome, nil
}

// History returns the recorded consultations for rawSubject, oldest first.
func (s *Service) History(ctx context.Context, rawSubject string, onlyLatest bool) ([]ledger.Record, error) {
	if rawSubject == "" {
		return nil, ErrMissingSubject
	}
	key := ledger.NormalizeKey(rawSubject)
	if key == "" {
		return []ledger.Record{}, nil
	}
	recs, err := s.ledger.History(ctx, key, onlyLatest)
	if err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrInternal, err)
	}
	return recs, nil
}

// Ready reports whether the ledger backend answers.
func (s *Service) Ready(ctx context.Context) error { return s.ledger.Ping(ctx) }
