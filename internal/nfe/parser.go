// Package nfe parses NF-e fiscal document XML into the canonical domain model.
//
// The NF-e schema is loosely specified in the wild: documents arrive with or
// without the nfeProc wrapper, with optional elements missing and with
// foreign-namespace garbage mixed in. The parser is tolerant of all of that
// and only rejects documents that are structurally unusable.
package nfe

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Namespace is the fiscal document namespace. Elements outside it are ignored.
const Namespace = "http://www.portalfiscal.inf.br/nfe"

// accessKeyPrefix is the fixed prefix of the infNFe Id attribute.
const accessKeyPrefix = "NFe"

// xmlInfNFe mirrors the infNFe element. All child lookups are scoped to the
// NF-e namespace.
type xmlInfNFe struct {
	ID   string   `xml:"Id,attr"`
	Ide  xmlIde   `xml:"http://www.portalfiscal.inf.br/nfe ide"`
	Emit xmlParty `xml:"http://www.portalfiscal.inf.br/nfe emit"`
	Dest xmlParty `xml:"http://www.portalfiscal.inf.br/nfe dest"`
	Dets []xmlDet `xml:"http://www.portalfiscal.inf.br/nfe det"`
}

type xmlIde struct {
	NNF   string `xml:"http://www.portalfiscal.inf.br/nfe nNF"`
	Serie string `xml:"http://www.portalfiscal.inf.br/nfe serie"`
	DhEmi string `xml:"http://www.portalfiscal.inf.br/nfe dhEmi"`
	DEmi  string `xml:"http://www.portalfiscal.inf.br/nfe dEmi"`
}

type xmlParty struct {
	CNPJ  string `xml:"http://www.portalfiscal.inf.br/nfe CNPJ"`
	XNome string `xml:"http://www.portalfiscal.inf.br/nfe xNome"`
}

type xmlDet struct {
	Prod xmlProd `xml:"http://www.portalfiscal.inf.br/nfe prod"`
}

type xmlProd struct {
	CProd  string     `xml:"http://www.portalfiscal.inf.br/nfe cProd"`
	XProd  string     `xml:"http://www.portalfiscal.inf.br/nfe xProd"`
	CFOP   string     `xml:"http://www.portalfiscal.inf.br/nfe CFOP"`
	QCom   string     `xml:"http://www.portalfiscal.inf.br/nfe qCom"`
	VUnCom string     `xml:"http://www.portalfiscal.inf.br/nfe vUnCom"`
	VProd  string     `xml:"http://www.portalfiscal.inf.br/nfe vProd"`
	Rastro *xmlRastro `xml:"http://www.portalfiscal.inf.br/nfe rastro"`
}

type xmlRastro struct {
	NLote string `xml:"http://www.portalfiscal.inf.br/nfe nLote"`
	QLote string `xml:"http://www.portalfiscal.inf.br/nfe qLote"`
	DFab  string `xml:"http://www.portalfiscal.inf.br/nfe dFab"`
	DVal  string `xml:"http://www.portalfiscal.inf.br/nfe dVal"`
}

// Parse converts raw NF-e XML into a FiscalDocument. It is a pure function:
// no side effects, safe for concurrent use.
//
// It fails with an error wrapping apperrors.ErrMalformedDocument when the
// input is not well-formed XML, when no infNFe element exists, when the
// access key is empty after stripping the NFe prefix, when a mandatory field
// (document number, line-item product code or CFOP) is missing, or when a
// present numeric field does not parse. Missing optional fields never fail;
// they default to empty strings and zero decimals.
func Parse(raw []byte) (*domain.FiscalDocument, error) {
	inf, err := findInfNFe(raw)
	if err != nil {
		return nil, err
	}

	accessKey := strings.TrimPrefix(inf.ID, accessKeyPrefix)
	if accessKey == "" {
		return nil, fmt.Errorf("%w: empty access key in infNFe Id attribute", apperrors.ErrMalformedDocument)
	}
	if inf.Ide.NNF == "" {
		return nil, fmt.Errorf("%w: missing document number (nNF)", apperrors.ErrMalformedDocument)
	}

	issueDate, err := parseIssueDate(inf.Ide.DhEmi, inf.Ide.DEmi)
	if err != nil {
		return nil, err
	}

	doc := &domain.FiscalDocument{
		AccessKey: accessKey,
		Number:    inf.Ide.NNF,
		Series:    inf.Ide.Serie,
		IssueDate: issueDate,
		Emitter:   domain.Party{CNPJ: inf.Emit.CNPJ, Name: inf.Emit.XNome},
		Recipient: domain.Party{CNPJ: inf.Dest.CNPJ, Name: inf.Dest.XNome},
		LineItems: make([]domain.LineItem, 0, len(inf.Dets)),
	}

	for i, det := range inf.Dets {
		item, err := parseLineItem(i+1, det.Prod)
		if err != nil {
			return nil, err
		}
		doc.LineItems = append(doc.LineItems, item)
	}

	return doc, nil
}

// findInfNFe scans the token stream for the first infNFe element in the NF-e
// namespace, wherever it sits (bare NFe or nfeProc-wrapped documents both
// occur in practice).
func findInfNFe(raw []byte) (*xmlInfNFe, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: infNFe element not found", apperrors.ErrMalformedDocument)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedDocument, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Space != Namespace || start.Name.Local != "infNFe" {
			continue
		}
		var inf xmlInfNFe
		if err := dec.DecodeElement(&inf, &start); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedDocument, err)
		}
		return &inf, nil
	}
}

func parseLineItem(position int, prod xmlProd) (domain.LineItem, error) {
	if prod.CProd == "" {
		return domain.LineItem{}, fmt.Errorf("%w: line item %d missing product code (cProd)", apperrors.ErrMalformedDocument, position)
	}
	if prod.CFOP == "" {
		return domain.LineItem{}, fmt.Errorf("%w: line item %d missing CFOP", apperrors.ErrMalformedDocument, position)
	}

	quantity, err := parseDecimal(prod.QCom, position, "qCom")
	if err != nil {
		return domain.LineItem{}, err
	}
	unitValue, err := parseDecimal(prod.VUnCom, position, "vUnCom")
	if err != nil {
		return domain.LineItem{}, err
	}
	totalValue, err := parseDecimal(prod.VProd, position, "vProd")
	if err != nil {
		return domain.LineItem{}, err
	}

	item := domain.LineItem{
		ProductCode: prod.CProd,
		Description: prod.XProd,
		CFOP:        prod.CFOP,
		Quantity:    quantity,
		UnitValue:   unitValue,
		TotalValue:  totalValue,
	}

	if prod.Rastro != nil {
		lotQty, err := parseDecimal(prod.Rastro.QLote, position, "qLote")
		if err != nil {
			return domain.LineItem{}, err
		}
		item.Lot = &domain.Lot{
			Number:          prod.Rastro.NLote,
			Quantity:        lotQty,
			ManufactureDate: prod.Rastro.DFab,
			ExpiryDate:      prod.Rastro.DVal,
		}
	}

	return item, nil
}

// parseDecimal parses an optional numeric field. Absent means zero; a present
// but unparsable value is a malformed document, never silently coerced to
// zero, which would corrupt the ledger.
func parseDecimal(s string, position int, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: line item %d has invalid %s value %q", apperrors.ErrMalformedDocument, position, field, s)
	}
	return d, nil
}

// parseIssueDate accepts the modern dhEmi (RFC 3339) or the legacy dEmi
// (date only) element. Both absent yields the zero time.
func parseIssueDate(dhEmi, dEmi string) (time.Time, error) {
	if dhEmi != "" {
		t, err := time.Parse(time.RFC3339, dhEmi)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: invalid dhEmi value %q", apperrors.ErrMalformedDocument, dhEmi)
		}
		return t, nil
	}
	if dEmi != "" {
		t, err := time.Parse("2006-01-02", dEmi)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: invalid dEmi value %q", apperrors.ErrMalformedDocument, dEmi)
		}
		return t, nil
	}
	return time.Time{}, nil
}
