package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizeMap maps a free-form field map onto the canonical record. Known
// keys fill typed fields; everything else lands in Extras. Missing fields
// stay empty, they never fail the normalization. Only a nil or empty map is
// rejected as malformed.
func NormalizeMap(fields map[string]any) (*CanonicalPaymentRecord, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty field map", ErrMalformedRecord)
	}

	rec := &CanonicalPaymentRecord{}

	slots := map[string]*string{
		"id":                      &rec.ID,
		"scheme":                  &rec.Scheme,
		"message_type":            &rec.MessageType,
		"amount":                  &rec.Amount,
		"currency":                &rec.Currency,
		"total_amount":            &rec.TotalAmount,
		"message_id":              &rec.MessageID,
		"instruction_id":          &rec.InstructionID,
		"end_to_end_id":           &rec.EndToEndID,
		"transaction_id":          &rec.TransactionID,
		"debtor_name":             &rec.DebtorName,
		"debtor_iban":             &rec.DebtorIBAN,
		"debtor_agent":            &rec.DebtorAgent,
		"debtor_country":          &rec.DebtorCountry,
		"creditor_name":           &rec.CreditorName,
		"creditor_iban":           &rec.CreditorIBAN,
		"creditor_agent":          &rec.CreditorAgent,
		"creditor_country":        &rec.CreditorCountry,
		"ordering_customer":       &rec.OrderingCustomer,
		"beneficiary":             &rec.Beneficiary,
		"settlement_date":         &rec.SettlementDate,
		"settlement_method":       &rec.SettlementMethod,
		"clearing_system":         &rec.ClearingSystem,
		"service_level":           &rec.ServiceLevel,
		"local_instrument":        &rec.LocalInstrument,
		"category_purpose":        &rec.CategoryPurpose,
		"purpose_code":            &rec.PurposeCode,
		"charge_bearer":           &rec.ChargeBearer,
		"remittance_unstructured": &rec.RemittanceUnstructured,
		"remittance_info":         &rec.RemittanceUnstructured,
		"creditor_reference":      &rec.CreditorReference,
		"creditor_reference_type": &rec.CreditorReferenceType,
		"creation_date_time":      &rec.CreationDateTime,
		"acceptance_date_time":    &rec.AcceptanceDateTime,
	}

	for key, value := range fields {
		text := stringify(value)
		if text == "" {
			continue
		}
		if slot, ok := slots[strings.ToLower(key)]; ok {
			*slot = text
			continue
		}
		if rec.Extras == nil {
			rec.Extras = make(map[string]string)
		}
		rec.Extras[key] = text
	}

	if rec.ID == "" {
		rec.ID = generatedID()
	}
	rec.Scheme = strings.ToUpper(rec.Scheme)

	return rec, nil
}

// stringify renders an arbitrary JSON-decoded value as text. Numbers are
// formatted from their decimal representation where possible so amounts do
// not pick up binary rounding artifacts.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
