package payment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMalformedRecord is returned when inbound payment data cannot be
// normalized into a canonical record.
var ErrMalformedRecord = errors.New("payment record cannot be normalized")

// CanonicalPaymentRecord is the scheme-agnostic representation of a single
// transfer instruction. All fields are optional except ID, which is always
// populated (generated when the source carries no identifier). Records are
// immutable once built: the normalizer creates them, the evaluator reads
// them.
type CanonicalPaymentRecord struct {
	ID          string `json:"id"`
	Scheme      string `json:"scheme,omitempty"`
	MessageType string `json:"message_type,omitempty"`

	Amount      string `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	TotalAmount string `json:"total_amount,omitempty"`

	MessageID     string `json:"message_id,omitempty"`
	InstructionID string `json:"instruction_id,omitempty"`
	EndToEndID    string `json:"end_to_end_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`

	DebtorName    string `json:"debtor_name,omitempty"`
	DebtorIBAN    string `json:"debtor_iban,omitempty"`
	DebtorAgent   string `json:"debtor_agent,omitempty"`
	DebtorCountry string `json:"debtor_country,omitempty"`

	CreditorName    string `json:"creditor_name,omitempty"`
	CreditorIBAN    string `json:"creditor_iban,omitempty"`
	CreditorAgent   string `json:"creditor_agent,omitempty"`
	CreditorCountry string `json:"creditor_country,omitempty"`

	OrderingCustomer string `json:"ordering_customer,omitempty"`
	Beneficiary      string `json:"beneficiary,omitempty"`

	SettlementDate   string `json:"settlement_date,omitempty"`
	SettlementMethod string `json:"settlement_method,omitempty"`
	ClearingSystem   string `json:"clearing_system,omitempty"`

	ServiceLevel    string `json:"service_level,omitempty"`
	LocalInstrument string `json:"local_instrument,omitempty"`
	CategoryPurpose string `json:"category_purpose,omitempty"`
	PurposeCode     string `json:"purpose_code,omitempty"`
	ChargeBearer    string `json:"charge_bearer,omitempty"`

	RemittanceUnstructured string `json:"remittance_unstructured,omitempty"`
	CreditorReference      string `json:"creditor_reference,omitempty"`
	CreditorReferenceType  string `json:"creditor_reference_type,omitempty"`

	CreationDateTime   string `json:"creation_date_time,omitempty"`
	AcceptanceDateTime string `json:"acceptance_date_time,omitempty"`

	// Extras carries scheme-specific fields that have no canonical slot.
	Extras map[string]string `json:"extras,omitempty"`
}

// SenderRef returns the best available originator reference.
func (r *CanonicalPaymentRecord) SenderRef() string {
	if r.DebtorIBAN != "" {
		return r.DebtorIBAN
	}
	if r.OrderingCustomer != "" {
		return r.OrderingCustomer
	}
	return r.DebtorName
}

// ReceiverRef returns the best available beneficiary reference.
func (r *CanonicalPaymentRecord) ReceiverRef() string {
	if r.CreditorIBAN != "" {
		return r.CreditorIBAN
	}
	if r.Beneficiary != "" {
		return r.Beneficiary
	}
	return r.CreditorName
}

// HasPurposeCode reports whether any purpose classification is present.
func (r *CanonicalPaymentRecord) HasPurposeCode() bool {
	return r.PurposeCode != "" || r.CategoryPurpose != ""
}

func generatedID() string {
	return fmt.Sprintf("PAY_%s", uuid.NewString()[:8])
}
