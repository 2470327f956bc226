package payment

import (
	"encoding/xml"
	"fmt"
)

// ISO 20022 pacs.008 (FI-to-FI customer credit transfer). Element names use
// local matching only, so any rulebook namespace revision parses the same.

type pacs008Amount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

type pacs008GroupHeader struct {
	MsgID         string        `xml:"MsgId"`
	CreDtTm       string        `xml:"CreDtTm"`
	NbOfTxs       string        `xml:"NbOfTxs"`
	TtlSttlmAmt   pacs008Amount `xml:"TtlIntrBkSttlmAmt"`
	IntrBkSttlmDt string        `xml:"IntrBkSttlmDt"`
	SttlmMtd      string        `xml:"SttlmInf>SttlmMtd"`
	ClrSys        string        `xml:"SttlmInf>ClrSys>Prtry"`
	SvcLvl        string        `xml:"PmtTpInf>SvcLvl>Cd"`
	LclInstrm     string        `xml:"PmtTpInf>LclInstrm>Cd"`
	CtgyPurp      string        `xml:"PmtTpInf>CtgyPurp>Cd"`
	InstgAgtBIC   string        `xml:"InstgAgt>FinInstnId>BICFI"`
	InstdAgtBIC   string        `xml:"InstdAgt>FinInstnId>BICFI"`
}

type pacs008Transaction struct {
	InstrID     string        `xml:"PmtId>InstrId"`
	EndToEndID  string        `xml:"PmtId>EndToEndId"`
	TxID        string        `xml:"PmtId>TxId"`
	SttlmAmt    pacs008Amount `xml:"IntrBkSttlmAmt"`
	AccptncDtTm string        `xml:"AccptncDtTm"`
	ChrgBr      string        `xml:"ChrgBr"`
	DbtrNm      string        `xml:"Dbtr>Nm"`
	DbtrCtry    string        `xml:"Dbtr>PstlAdr>Ctry"`
	DbtrIBAN    string        `xml:"DbtrAcct>Id>IBAN"`
	DbtrAgtBIC  string        `xml:"DbtrAgt>FinInstnId>BICFI"`
	CdtrAgtBIC  string        `xml:"CdtrAgt>FinInstnId>BICFI"`
	CdtrNm      string        `xml:"Cdtr>Nm"`
	CdtrCtry    string        `xml:"Cdtr>PstlAdr>Ctry"`
	CdtrIBAN    string        `xml:"CdtrAcct>Id>IBAN"`
	PurpCd      string        `xml:"Purp>Cd"`
	RmtUstrd    string        `xml:"RmtInf>Ustrd"`
	CdtrRef     string        `xml:"RmtInf>Strd>CdtrRefInf>Ref"`
	CdtrRefTp   string        `xml:"RmtInf>Strd>CdtrRefInf>Tp>CdOrPrtry>Cd"`
}

type pacs008Document struct {
	XMLName xml.Name
	GrpHdr  pacs008GroupHeader `xml:"FIToFICstmrCdtTrf>GrpHdr"`
	Tx      pacs008Transaction `xml:"FIToFICstmrCdtTrf>CdtTrfTxInf"`
}

// ParsePACS008 normalizes a pacs.008 wire message into the canonical record.
// Unreadable markup or a document without a credit-transfer body fails with
// ErrMalformedRecord.
func ParsePACS008(data []byte) (*CanonicalPaymentRecord, error) {
	var doc pacs008Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	hdr := doc.GrpHdr
	tx := doc.Tx

	if hdr.MsgID == "" && tx.TxID == "" && tx.SttlmAmt.Value == "" {
		return nil, fmt.Errorf("%w: no pacs.008 credit transfer content", ErrMalformedRecord)
	}

	rec := &CanonicalPaymentRecord{
		Scheme:      "SEPA",
		MessageType: "PACS.008",

		Amount:      tx.SttlmAmt.Value,
		Currency:    tx.SttlmAmt.Ccy,
		TotalAmount: hdr.TtlSttlmAmt.Value,

		MessageID:     hdr.MsgID,
		InstructionID: tx.InstrID,
		EndToEndID:    tx.EndToEndID,
		TransactionID: tx.TxID,

		DebtorName:    tx.DbtrNm,
		DebtorIBAN:    tx.DbtrIBAN,
		DebtorAgent:   tx.DbtrAgtBIC,
		DebtorCountry: tx.DbtrCtry,

		CreditorName:    tx.CdtrNm,
		CreditorIBAN:    tx.CdtrIBAN,
		CreditorAgent:   tx.CdtrAgtBIC,
		CreditorCountry: tx.CdtrCtry,

		SettlementDate:   hdr.IntrBkSttlmDt,
		SettlementMethod: hdr.SttlmMtd,
		ClearingSystem:   hdr.ClrSys,

		ServiceLevel:    hdr.SvcLvl,
		LocalInstrument: hdr.LclInstrm,
		CategoryPurpose: hdr.CtgyPurp,
		PurposeCode:     tx.PurpCd,
		ChargeBearer:    tx.ChrgBr,

		RemittanceUnstructured: tx.RmtUstrd,
		CreditorReference:      tx.CdtrRef,
		CreditorReferenceType:  tx.CdtrRefTp,

		CreationDateTime:   hdr.CreDtTm,
		AcceptanceDateTime: tx.AccptncDtTm,
	}

	if rec.Currency == "" {
		rec.Currency = hdr.TtlSttlmAmt.Ccy
	}

	switch {
	case tx.TxID != "":
		rec.ID = tx.TxID
	case hdr.MsgID != "":
		rec.ID = hdr.MsgID
	default:
		rec.ID = generatedID()
	}

	if hdr.InstgAgtBIC != "" || hdr.InstdAgtBIC != "" || hdr.NbOfTxs != "" {
		rec.Extras = map[string]string{}
		if hdr.InstgAgtBIC != "" {
			rec.Extras["instructing_agent"] = hdr.InstgAgtBIC
		}
		if hdr.InstdAgtBIC != "" {
			rec.Extras["instructed_agent"] = hdr.InstdAgtBIC
		}
		if hdr.NbOfTxs != "" {
			rec.Extras["number_of_transactions"] = hdr.NbOfTxs
		}
	}

	return rec, nil
}
