package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeMapFillsCanonicalSlots(t *testing.T) {
	record, err := NormalizeMap(map[string]any{
		"id":            "PAY-123",
		"scheme":        "sepa",
		"amount":        "15000.00",
		"currency":      "EUR",
		"debtor_iban":   "DE89370400440532013000",
		"creditor_iban": "FR1420041010050500013M02606",
		"purpose_code":  "SALA",
	})
	require.NoError(t, err)

	require.Equal(t, "PAY-123", record.ID)
	require.Equal(t, "SEPA", record.Scheme)
	require.Equal(t, "15000.00", record.Amount)
	require.Equal(t, "EUR", record.Currency)
	require.Equal(t, "DE89370400440532013000", record.DebtorIBAN)
	require.True(t, record.HasPurposeCode())
	require.Nil(t, record.Extras)
}

func TestNormalizeMapRejectsEmptyInput(t *testing.T) {
	_, err := NormalizeMap(nil)
	require.ErrorIs(t, err, ErrMalformedRecord)

	_, err = NormalizeMap(map[string]any{})
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestNormalizeMapGeneratesMissingID(t *testing.T) {
	record, err := NormalizeMap(map[string]any{"amount": "10.00"})
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.Contains(t, record.ID, "PAY_")
}

func TestNormalizeMapKeepsUnknownFieldsAsExtras(t *testing.T) {
	record, err := NormalizeMap(map[string]any{
		"amount":        "10.00",
		"custom_field":  "custom-value",
		"another_field": 42,
	})
	require.NoError(t, err)

	require.Equal(t, "custom-value", record.Extras["custom_field"])
	require.Equal(t, "42", record.Extras["another_field"])
}

func TestNormalizeMapFormatsNumbersWithoutArtifacts(t *testing.T) {
	record, err := NormalizeMap(map[string]any{
		"amount": float64(12500.5),
	})
	require.NoError(t, err)
	require.Equal(t, "12500.5", record.Amount)
}

func TestNormalizeMapIgnoresNullValues(t *testing.T) {
	record, err := NormalizeMap(map[string]any{
		"amount":       "10.00",
		"purpose_code": nil,
	})
	require.NoError(t, err)
	require.False(t, record.HasPurposeCode())
}

func TestSenderAndReceiverRefPreferIBANs(t *testing.T) {
	record := &CanonicalPaymentRecord{
		DebtorName:       "ACME GmbH",
		DebtorIBAN:       "DE89370400440532013000",
		OrderingCustomer: "ACME ORDERING",
		CreditorName:     "Widget SARL",
	}

	require.Equal(t, "DE89370400440532013000", record.SenderRef())
	require.Equal(t, "Widget SARL", record.ReceiverRef())

	record.DebtorIBAN = ""
	require.Equal(t, "ACME ORDERING", record.SenderRef())
}
