package rules

import "time"

const defaultVersion = "v2023"

// defaultRulebookTexts are the built-in rulebooks used when a scheme has
// neither an uploaded document nor library rules.
var defaultRulebookTexts = map[string]string{
	"SEPA": `SEPA Credit Transfer Compliance Rules (EPC Rulebook)

MANDATORY FIELDS:
- Debtor Name, Debtor IBAN, Debtor Agent BIC
- Creditor Name, Creditor IBAN, Creditor Agent BIC
- Transaction ID (1-35 characters, unique per PSP)
- End-to-End ID (NOTPROVIDED if not given)

AMOUNT VALIDATION:
- Currency must be EUR
- Amount range 0.01 to 999999999.99, maximum 2 decimal places
- Purpose Code mandatory for amounts above EUR 12,500

FORMAT RULES:
- Service Level Code must be SEPA
- Charge Bearer must be SLEV
- Settlement Method one of CLRG, INGA, INDA
- Unstructured remittance information maximum 140 characters
- SEPA character set only`,

	"SWIFT_MT103": `SWIFT MT103 Single Customer Credit Transfer Rules

- Field 20 (Sender's Reference) mandatory, 16 characters maximum
- Field 32A (Value Date/Currency/Amount) mandatory
- Field 50 (Ordering Customer) mandatory
- Field 59 (Beneficiary) mandatory
- Field 70 (Remittance Information) maximum 140 characters (4x35)
- Field 71A (Details of Charges) one of BEN, OUR, SHA`,

	"CHAPS": `CHAPS Same-Day Sterling Credit Transfer Rules

- Currency must be GBP
- Settlement same business day
- Full originator and beneficiary details required for all payments`,

	"SIX": `SIX Swiss Interbank Clearing Rules

- QR-IBAN payments require a structured QR reference
- Currency must be CHF or EUR
- Structured creditor reference mandatory with QR-IBAN accounts`,
}

// DefaultRulebookText returns the built-in rulebook text for a scheme, or ""
// for an unknown scheme.
func DefaultRulebookText(scheme string) string {
	return defaultRulebookTexts[scheme]
}

type defaultRuleSpec struct {
	id          string
	category    string
	title       string
	description string
	severity    string
	fieldPath   string
	example     string
}

var defaultRuleSpecs = map[string][]defaultRuleSpec{
	"SEPA": {
		{
			id:          "AT-T001",
			category:    "Service Level",
			title:       "Service Level Code Must Be SEPA",
			description: "SEPA Usage Rule: Only 'SEPA' is allowed as Service Level Code for SEPA Credit Transfers",
			severity:    SeverityHigh,
			fieldPath:   "GrpHdr/PmtTpInf/SvcLvl/Cd",
			example:     "If Service Level is set to 'INST' or 'URGP', payment will be rejected",
		},
		{
			id:          "AT-T002",
			category:    "Amount Validation",
			title:       "Currency Must Be EUR",
			description: "SEPA Usage Rule: Only 'EUR' is allowed as currency. Amount must be 0.01 or more and 999999999.99 or less",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/IntrBkSttlmAmt",
			example:     "Using USD or GBP currency will cause immediate rejection",
		},
		{
			id:          "AT-T051",
			category:    "Settlement",
			title:       "Settlement Date Required",
			description: "SEPA Rulebook AT-T051: Settlement Date of the Credit Transfer is mandatory",
			severity:    SeverityHigh,
			fieldPath:   "GrpHdr/IntrBkSttlmDt",
			example:     "Missing settlement date will prevent processing",
		},
		{
			id:          "ChrgBr-Rule",
			category:    "Charges",
			title:       "Charge Bearer Must Be SLEV",
			description: "SEPA Usage Rule: Only 'SLEV' is allowed for Charge Bearer",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/ChrgBr",
			example:     "Using 'SHAR' or 'CRED' will cause rejection",
		},
		{
			id:          "AT-D001",
			category:    "IBAN Validation",
			title:       "Debtor IBAN Required",
			description: "SEPA Rulebook AT-D001: The IBAN of the account of the Originator is mandatory",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/DbtrAcct/Id/IBAN",
			example:     "Missing or invalid IBAN format will cause rejection",
		},
		{
			id:          "AT-C001",
			category:    "IBAN Validation",
			title:       "Creditor IBAN Required",
			description: "SEPA Rulebook AT-C001: The IBAN of the account of the Beneficiary is mandatory",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/CdtrAcct/Id/IBAN",
			example:     "Missing or invalid IBAN will prevent payment processing",
		},
		{
			id:          "AT-D002",
			category:    "BIC Validation",
			title:       "Debtor Agent BIC Required",
			description: "SEPA Rulebook AT-D002: The BIC code of the Originator PSP is mandatory",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/DbtrAgt/FinInstnId/BICFI",
			example:     "Missing BIC code will cause payment rejection",
		},
		{
			id:          "AT-C002",
			category:    "BIC Validation",
			title:       "Creditor Agent BIC Required",
			description: "SEPA Rulebook AT-C002: The BIC code of the Beneficiary PSP is mandatory",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/CdtrAgt/FinInstnId/BICFI",
			example:     "Invalid BIC format will cause rejection",
		},
		{
			id:          "AT-P001",
			category:    "Party Information",
			title:       "Debtor Name Mandatory",
			description: "SEPA Rulebook AT-P001: Name of the Originator is mandatory, limited to 70 characters",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/Dbtr/Nm",
			example:     "Missing debtor name or exceeding 70 characters will cause issues",
		},
		{
			id:          "AT-E001",
			category:    "Party Information",
			title:       "Creditor Name Mandatory",
			description: "SEPA Rulebook AT-E001: Name of the Beneficiary is mandatory, limited to 70 characters",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/Cdtr/Nm",
			example:     "Missing creditor name will prevent payment completion",
		},
		{
			id:          "AT-T014",
			category:    "Payment Identification",
			title:       "End-to-End ID Required",
			description: "SEPA Rulebook AT-T014: The Originator's Reference must be passed in the end-to-end chain. Use NOTPROVIDED if not given",
			severity:    SeverityMedium,
			fieldPath:   "CdtTrfTxInf/PmtId/EndToEndId",
			example:     "Empty End-to-End ID should be set to NOTPROVIDED",
		},
		{
			id:          "AT-T054",
			category:    "Payment Identification",
			title:       "Transaction ID Required and Unique",
			description: "SEPA Rulebook AT-T054: The Originator PSP's reference must be unique and meaningful, 1-35 characters",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/PmtId/TxId",
			example:     "Duplicate or missing Transaction ID will cause rejection",
		},
		{
			id:          "SttlmMtd-Rule",
			category:    "Settlement",
			title:       "Settlement Method Restriction",
			description: "SEPA Usage Rule: Only CLRG, INGA, and INDA are allowed as Settlement Method",
			severity:    SeverityHigh,
			fieldPath:   "GrpHdr/SttlmInf/SttlmMtd",
			example:     "Using other settlement methods will cause rejection",
		},
		{
			id:          "Amount-Format",
			category:    "Amount Validation",
			title:       "Amount Decimal Format",
			description: "SEPA Format Rule: The fractional part has a maximum of two digits",
			severity:    SeverityMedium,
			fieldPath:   "CdtTrfTxInf/IntrBkSttlmAmt",
			example:     "Amount like 100.123 with 3 decimals will be rejected",
		},
		{
			id:          "Purpose-Threshold",
			category:    "Amount Validation",
			title:       "Purpose Code Above Threshold",
			description: "EPC Rulebook: a Purpose Code is mandatory for amounts above EUR 12,500",
			severity:    SeverityHigh,
			fieldPath:   "CdtTrfTxInf/Purp/Cd",
			example:     "A EUR 15,000 transfer without purpose code breaks straight-through processing",
		},
	},
	"SWIFT_MT103": {
		{
			id:          "MT103-F20",
			category:    "Mandatory Fields",
			title:       "Sender's Reference Required",
			description: "Field 20 is mandatory and limited to 16 characters",
			severity:    SeverityHigh,
			example:     "A missing sender's reference causes message rejection",
		},
		{
			id:          "MT103-F70",
			category:    "Format Rules",
			title:       "Remittance Information Length",
			description: "Field 70 remittance information must not exceed 140 characters (4 lines of 35)",
			severity:    SeverityMedium,
			example:     "Overlong remittance text is truncated or rejected by receiving banks",
		},
		{
			id:          "MT103-F71A",
			category:    "Charges",
			title:       "Details of Charges Restriction",
			description: "Field 71A must be one of BEN, OUR, SHA",
			severity:    SeverityHigh,
			example:     "Any other charge code fails network validation",
		},
	},
	"CHAPS": {
		{
			id:          "CHAPS-CCY",
			category:    "Amount Validation",
			title:       "Sterling Only",
			description: "CHAPS processes GBP payments only",
			severity:    SeverityHigh,
			example:     "A EUR-denominated instruction cannot settle over CHAPS",
		},
		{
			id:          "CHAPS-PARTY",
			category:    "Party Information",
			title:       "Full Party Details Required",
			description: "Complete originator and beneficiary details are required for all CHAPS payments",
			severity:    SeverityHigh,
			example:     "Payments without full beneficiary details are held for repair",
		},
	},
	"SIX": {
		{
			id:          "SIX-QRR",
			category:    "Reference Validation",
			title:       "QR-IBAN Requires Structured Reference",
			description: "Payments to a QR-IBAN must carry a structured QR reference",
			severity:    SeverityHigh,
			example:     "A QR-IBAN credit without QR reference is rejected by the receiving bank",
		},
		{
			id:          "SIX-CCY",
			category:    "Amount Validation",
			title:       "Currency Restriction",
			description: "Only CHF and EUR are supported",
			severity:    SeverityMedium,
			example:     "USD payments must be routed outside SIC",
		},
	},
}

// DefaultRules returns the fixed, hand-curated fallback rule set for a
// scheme. Unknown schemes get an empty set.
func DefaultRules(scheme string) []Rule {
	specs := defaultRuleSpecs[scheme]
	out := make([]Rule, 0, len(specs))
	now := time.Now()
	for _, s := range specs {
		out = append(out, Rule{
			ID:          s.id,
			Scheme:      scheme,
			Category:    s.category,
			Title:       s.title,
			Description: s.description,
			Severity:    s.severity,
			FieldPath:   s.fieldPath,
			Example:     s.example,
			Source:      SourceDefault,
			Version:     defaultVersion,
			CreatedAt:   now,
		})
	}
	return out
}
