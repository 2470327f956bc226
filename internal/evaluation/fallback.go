package evaluation

import (
	"fmt"

	"github.com/payguard/backend/internal/payment"
)

// deterministicChecks is the rule-based path used when no reasoning
// collaborator is available or its call failed. The checks never fail
// themselves; fields that cannot be interpreted simply produce no finding.
func (e *Evaluator) deterministicChecks(scheme string, record *payment.CanonicalPaymentRecord) []Violation {
	violations := []Violation{}

	switch scheme {
	case "SEPA":
		violations = append(violations, e.sepaChecks(record)...)
	case "SWIFT_MT103":
		violations = append(violations, e.mt103Checks(record)...)
	case "CHAPS":
		violations = append(violations, e.chapsChecks(record)...)
	case "SIX":
		violations = append(violations, e.sixChecks(record)...)
	}

	return violations
}

func (e *Evaluator) sepaChecks(record *payment.CanonicalPaymentRecord) []Violation {
	var violations []Violation

	if amount, err := payment.ParseAmount(record.Amount); err == nil {
		if amount.Cmp(e.sepaThreshold) > 0 && !record.HasPurposeCode() {
			violations = append(violations, Violation{
				Severity:   "high",
				Rule:       "Purpose code requirement for high-value transfers",
				Issue:      fmt.Sprintf("Amount %s exceeds %s but no purpose code is present", record.Amount, e.policy.SEPAThreshold),
				Impact:     "Payment will be rejected by the clearing system",
				Suggestion: "Add a purpose code or category purpose to the instruction",
				FieldPath:  "purpose_code",
			})
		}
		if amount.DecimalPlaces() > 2 {
			violations = append(violations, Violation{
				Severity:   "medium",
				Rule:       "Amount format",
				Issue:      fmt.Sprintf("Amount %s carries more than two decimal places", record.Amount),
				Impact:     "Settlement amount may be truncated or the message repaired",
				Suggestion: "Express the amount with at most two decimal places",
				FieldPath:  "amount",
			})
		}
	}

	if record.Currency != "" && record.Currency != "EUR" {
		violations = append(violations, Violation{
			Severity:   "high",
			Rule:       "Settlement currency",
			Issue:      fmt.Sprintf("Currency %s is not permitted, SEPA transfers settle in EUR only", record.Currency),
			Impact:     "Payment will be rejected by the clearing system",
			Suggestion: "Convert the instruction to EUR or route it through another scheme",
			FieldPath:  "currency",
		})
	}

	if len(record.RemittanceUnstructured) > e.policy.RemittanceMaxChars {
		violations = append(violations, Violation{
			Severity:   "medium",
			Rule:       "Unstructured remittance length",
			Issue:      fmt.Sprintf("Remittance information is %d characters, the limit is %d", len(record.RemittanceUnstructured), e.policy.RemittanceMaxChars),
			Impact:     "Remittance text may be truncated in transit",
			Suggestion: "Shorten the remittance information or use a structured reference",
			FieldPath:  "remittance_unstructured",
		})
	}

	// Structural checks only apply once the record demonstrably came from a
	// full interbank message; field-map submissions are often partial.
	if record.MessageType == "PACS.008" {
		violations = append(violations, pacs008Checks(record)...)
	}

	return violations
}

func pacs008Checks(record *payment.CanonicalPaymentRecord) []Violation {
	var violations []Violation

	mandatory := []struct {
		value, name, path string
	}{
		{record.DebtorIBAN, "debtor IBAN", "debtor_iban"},
		{record.CreditorIBAN, "creditor IBAN", "creditor_iban"},
		{record.EndToEndID, "end-to-end identification", "end_to_end_id"},
	}
	for _, f := range mandatory {
		if f.value == "" {
			violations = append(violations, Violation{
				Severity:   "high",
				Rule:       "Mandatory field presence",
				Issue:      fmt.Sprintf("Required %s is missing", f.name),
				Impact:     "Payment will be rejected by the clearing system",
				Suggestion: fmt.Sprintf("Populate the %s before submission", f.name),
				FieldPath:  f.path,
			})
		}
	}

	if record.ChargeBearer != "" && record.ChargeBearer != "SLEV" {
		violations = append(violations, Violation{
			Severity:   "medium",
			Rule:       "Charge bearer restriction",
			Issue:      fmt.Sprintf("Charge bearer %s is not allowed, credit transfers require SLEV", record.ChargeBearer),
			Impact:     "Message may be repaired or returned by the receiving agent",
			Suggestion: "Set the charge bearer to SLEV",
			FieldPath:  "charge_bearer",
		})
	}

	if record.SettlementMethod != "" {
		allowed := map[string]bool{"CLRG": true, "INDA": true, "INGA": true, "COVE": true}
		if !allowed[record.SettlementMethod] {
			violations = append(violations, Violation{
				Severity:   "medium",
				Rule:       "Settlement method",
				Issue:      fmt.Sprintf("Settlement method %s is not one of the permitted values", record.SettlementMethod),
				Impact:     "Message may be rejected during interbank settlement",
				Suggestion: "Use CLRG, INDA, INGA or COVE as the settlement method",
				FieldPath:  "settlement_method",
			})
		}
	}

	return violations
}

func (e *Evaluator) mt103Checks(record *payment.CanonicalPaymentRecord) []Violation {
	var violations []Violation

	if record.OrderingCustomer == "" && record.DebtorName == "" {
		violations = append(violations, Violation{
			Severity:   "high",
			Rule:       "Ordering customer presence",
			Issue:      "Field 50a ordering customer is missing",
			Impact:     "Message will be rejected by the receiving institution",
			Suggestion: "Populate the ordering customer details",
			FieldPath:  "ordering_customer",
		})
	}

	if record.Beneficiary == "" && record.CreditorName == "" {
		violations = append(violations, Violation{
			Severity:   "high",
			Rule:       "Beneficiary presence",
			Issue:      "Field 59a beneficiary customer is missing",
			Impact:     "Message will be rejected by the receiving institution",
			Suggestion: "Populate the beneficiary customer details",
			FieldPath:  "beneficiary",
		})
	}

	if len(record.RemittanceUnstructured) > e.policy.RemittanceMaxChars {
		violations = append(violations, Violation{
			Severity:   "medium",
			Rule:       "Remittance information length",
			Issue:      fmt.Sprintf("Field 70 remittance information is %d characters, the limit is %d", len(record.RemittanceUnstructured), e.policy.RemittanceMaxChars),
			Impact:     "Remittance text may be truncated in transit",
			Suggestion: "Shorten the remittance information",
			FieldPath:  "remittance_unstructured",
		})
	}

	return violations
}

func (e *Evaluator) chapsChecks(record *payment.CanonicalPaymentRecord) []Violation {
	var violations []Violation

	if record.Currency != "" && record.Currency != "GBP" {
		violations = append(violations, Violation{
			Severity:   "high",
			Rule:       "Settlement currency",
			Issue:      fmt.Sprintf("Currency %s is not permitted, CHAPS settles in GBP only", record.Currency),
			Impact:     "Payment will be rejected by the clearing system",
			Suggestion: "Convert the instruction to GBP or route it through another scheme",
			FieldPath:  "currency",
		})
	}

	return violations
}

func (e *Evaluator) sixChecks(record *payment.CanonicalPaymentRecord) []Violation {
	var violations []Violation

	if record.Currency != "" && record.Currency != "CHF" && record.Currency != "EUR" {
		violations = append(violations, Violation{
			Severity:   "high",
			Rule:       "Settlement currency",
			Issue:      fmt.Sprintf("Currency %s is not permitted, Swiss payments settle in CHF or EUR", record.Currency),
			Impact:     "Payment will be rejected by the clearing system",
			Suggestion: "Convert the instruction to CHF or EUR",
			FieldPath:  "currency",
		})
	}

	if record.CreditorReferenceType == "QRR" && len(record.CreditorReference) != 27 {
		violations = append(violations, Violation{
			Severity:   "medium",
			Rule:       "QR reference format",
			Issue:      fmt.Sprintf("QR reference has %d characters, a QRR reference must have exactly 27", len(record.CreditorReference)),
			Impact:     "Reconciliation at the creditor bank will fail",
			Suggestion: "Provide the full 27-character QR reference",
			FieldPath:  "creditor_reference",
		})
	}

	return violations
}
