package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/connectus/newcon-mock/internal/bureau"
)

// Key is the digit-only form of a CPF or CNPJ; it partitions the ledger.
type Key string

// NormalizeKey strips everything but ASCII digits.
func NormalizeKey(raw string) Key {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return Key(b.String())
}

// Individual reports whether the key is a CPF (11 digits). Anything else is
// treated as an organization.
func (k Key) Individual() bool { return len(k) == 11 }

func (k Key) String() string { return string(k) }

// Masked hides the middle digits for logs and event feeds.
func (k Key) Masked() string {
	s := string(k)
	if len(s) <= 5 {
		return strings.Repeat("*", len(s))
	}
	return s[:3] + strings.Repeat("*", len(s)-5) + s[len(s)-2:]
}

// Consultation is one validation result as returned to the caller.
type Consultation struct {
	CPFCNPJ    string                    `json:"cpf_cnpj"`
	ServerDate string                    `json:"dataConsultaServidor"`
	StatusCode int                       `json:"status_code"`
	Documents  bureau.DocumentValidation `json:"validacao_docs"`
	SPC        *bureau.SPC               `json:"dados_spc,omitempty"`
	Serpro     *bureau.Serpro            `json:"dados_serpro,omitempty"`
	Message    string                    `json:"msg,omitempty"`
	// Timestamp is only set when fields were replayed from an earlier record.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Overlay copies every field present on prev over c, last write wins. Fields
// absent on prev (nil bureau sections, empty message) leave c untouched.
func (c *Consultation) Overlay(prev Record) {
	c.CPFCNPJ = prev.CPFCNPJ
	c.ServerDate = prev.ServerDate
	c.StatusCode = prev.StatusCode
	c.Documents = prev.Documents
	if prev.SPC != nil {
		c.SPC = prev.SPC
	}
	if prev.Serpro != nil {
		c.Serpro = prev.Serpro
	}
	if prev.Message != "" {
		c.Message = prev.Message
	}
	ts := prev.RecordedAt
	c.Timestamp = &ts
}

// HasBureauData reports whether any bureau section is attached.
func (c Consultation) HasBureauData() bool { return c.SPC != nil || c.Serpro != nil }

// Record is an immutable ledger entry.
type Record struct {
	ID  string `json:"id"`
	Key Key    `json:"-"`
	Consultation
	RecordedAt time.Time `json:"timestamp"`
}

var (
	ErrEmptyKey = errors.New("ledger: empty subject key")
	ErrNotFound = errors.New("ledger: not found")
)
