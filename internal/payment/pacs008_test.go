package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePACS008 = `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pacs.008.001.08">
  <FIToFICstmrCdtTrf>
    <GrpHdr>
      <MsgId>MSGID-2024-001</MsgId>
      <CreDtTm>2024-03-15T10:30:00</CreDtTm>
      <NbOfTxs>1</NbOfTxs>
      <TtlIntrBkSttlmAmt Ccy="EUR">15000.00</TtlIntrBkSttlmAmt>
      <IntrBkSttlmDt>2024-03-15</IntrBkSttlmDt>
      <SttlmInf>
        <SttlmMtd>CLRG</SttlmMtd>
      </SttlmInf>
      <PmtTpInf>
        <SvcLvl><Cd>SEPA</Cd></SvcLvl>
      </PmtTpInf>
    </GrpHdr>
    <CdtTrfTxInf>
      <PmtId>
        <InstrId>INSTR-001</InstrId>
        <EndToEndId>E2E-001</EndToEndId>
        <TxId>TX-001</TxId>
      </PmtId>
      <IntrBkSttlmAmt Ccy="EUR">15000.00</IntrBkSttlmAmt>
      <ChrgBr>SLEV</ChrgBr>
      <Dbtr>
        <Nm>ACME GmbH</Nm>
        <PstlAdr><Ctry>DE</Ctry></PstlAdr>
      </Dbtr>
      <DbtrAcct><Id><IBAN>DE89370400440532013000</IBAN></Id></DbtrAcct>
      <Cdtr>
        <Nm>Widget SARL</Nm>
        <PstlAdr><Ctry>FR</Ctry></PstlAdr>
      </Cdtr>
      <CdtrAcct><Id><IBAN>FR1420041010050500013M02606</IBAN></Id></CdtrAcct>
      <RmtInf><Ustrd>Invoice 2024-881</Ustrd></RmtInf>
    </CdtTrfTxInf>
  </FIToFICstmrCdtTrf>
</Document>`

func TestParsePACS008ExtractsCanonicalFields(t *testing.T) {
	record, err := ParsePACS008([]byte(samplePACS008))
	require.NoError(t, err)

	require.Equal(t, "TX-001", record.ID)
	require.Equal(t, "SEPA", record.Scheme)
	require.Equal(t, "PACS.008", record.MessageType)
	require.Equal(t, "15000.00", record.Amount)
	require.Equal(t, "EUR", record.Currency)
	require.Equal(t, "MSGID-2024-001", record.MessageID)
	require.Equal(t, "E2E-001", record.EndToEndID)
	require.Equal(t, "DE89370400440532013000", record.DebtorIBAN)
	require.Equal(t, "FR1420041010050500013M02606", record.CreditorIBAN)
	require.Equal(t, "CLRG", record.SettlementMethod)
	require.Equal(t, "SLEV", record.ChargeBearer)
	require.Equal(t, "Invoice 2024-881", record.RemittanceUnstructured)
	require.Equal(t, "1", record.Extras["number_of_transactions"])
}

func TestParsePACS008RejectsInvalidMarkup(t *testing.T) {
	_, err := ParsePACS008([]byte("<Document><broken"))
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParsePACS008RejectsEmptyDocument(t *testing.T) {
	_, err := ParsePACS008([]byte(`<Document><FIToFICstmrCdtTrf></FIToFICstmrCdtTrf></Document>`))
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParsePACS008FallsBackToMessageID(t *testing.T) {
	doc := `<Document><FIToFICstmrCdtTrf>
		<GrpHdr><MsgId>ONLY-MSG-ID</MsgId></GrpHdr>
		<CdtTrfTxInf><IntrBkSttlmAmt Ccy="EUR">10.00</IntrBkSttlmAmt></CdtTrfTxInf>
	</FIToFICstmrCdtTrf></Document>`

	record, err := ParsePACS008([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "ONLY-MSG-ID", record.ID)
}
