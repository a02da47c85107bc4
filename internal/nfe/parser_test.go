package nfe

import (
	"testing"
	"time"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullDocument = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35240112345678000195550010000001231000001234" versao="4.00">
      <ide>
        <nNF>123</nNF>
        <serie>1</serie>
        <dhEmi>2024-01-15T10:30:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>12345678000195</CNPJ>
        <xNome>Distribuidora OPME Ltda</xNome>
      </emit>
      <dest>
        <CNPJ>98765432000188</CNPJ>
        <xNome>Hospital Santa Casa</xNome>
      </dest>
      <det nItem="1">
        <prod>
          <cProd>IMP-001</cProd>
          <xProd>Implante de titanio</xProd>
          <CFOP>5917</CFOP>
          <qCom>10.0000</qCom>
          <vUnCom>1500.00</vUnCom>
          <vProd>15000.00</vProd>
          <rastro>
            <nLote>L2024A</nLote>
            <qLote>10.0000</qLote>
            <dFab>2024-01-01</dFab>
            <dVal>2027-01-01</dVal>
          </rastro>
        </prod>
      </det>
      <det nItem="2">
        <prod>
          <cProd>PAR-002</cProd>
          <xProd>Parafuso cortical</xProd>
          <CFOP>5917</CFOP>
          <qCom>50.0000</qCom>
          <vUnCom>80.00</vUnCom>
          <vProd>4000.00</vProd>
        </prod>
      </det>
    </infNFe>
  </NFe>
</nfeProc>`

func TestParseFullDocument(t *testing.T) {
	doc, err := Parse([]byte(fullDocument))
	require.NoError(t, err)

	assert.Equal(t, "35240112345678000195550010000001231000001234", doc.AccessKey)
	assert.Equal(t, "123", doc.Number)
	assert.Equal(t, "1", doc.Series)

	expectedDate, _ := time.Parse(time.RFC3339, "2024-01-15T10:30:00-03:00")
	assert.True(t, doc.IssueDate.Equal(expectedDate))

	assert.Equal(t, "12345678000195", doc.Emitter.CNPJ)
	assert.Equal(t, "Distribuidora OPME Ltda", doc.Emitter.Name)
	assert.Equal(t, "98765432000188", doc.Recipient.CNPJ)
	assert.Equal(t, "Hospital Santa Casa", doc.Recipient.Name)

	require.Len(t, doc.LineItems, 2)

	first := doc.LineItems[0]
	assert.Equal(t, "IMP-001", first.ProductCode)
	assert.Equal(t, "Implante de titanio", first.Description)
	assert.Equal(t, "5917", first.CFOP)
	assert.True(t, first.Quantity.Equal(decimal.RequireFromString("10")))
	assert.True(t, first.UnitValue.Equal(decimal.RequireFromString("1500")))
	assert.True(t, first.TotalValue.Equal(decimal.RequireFromString("15000")))
	require.NotNil(t, first.Lot)
	assert.Equal(t, "L2024A", first.Lot.Number)
	assert.True(t, first.Lot.Quantity.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, "2024-01-01", first.Lot.ManufactureDate)
	assert.Equal(t, "2027-01-01", first.Lot.ExpiryDate)

	second := doc.LineItems[1]
	assert.Equal(t, "PAR-002", second.ProductCode)
	assert.Nil(t, second.Lot)
}

func TestParseBareNFeWithoutWrapper(t *testing.T) {
	xml := `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
		<infNFe Id="NFe111">
			<ide><nNF>42</nNF></ide>
		</infNFe>
	</NFe>`

	doc, err := Parse([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, "111", doc.AccessKey)
	assert.Equal(t, "42", doc.Number)
	assert.Empty(t, doc.LineItems)
	assert.True(t, doc.IssueDate.IsZero())
}

func TestParseLegacyIssueDate(t *testing.T) {
	xml := `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
		<infNFe Id="NFe222">
			<ide><nNF>7</nNF><dEmi>2019-06-30</dEmi></ide>
		</infNFe>
	</NFe>`

	doc, err := Parse([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, 2019, doc.IssueDate.Year())
	assert.Equal(t, time.June, doc.IssueDate.Month())
	assert.Equal(t, 30, doc.IssueDate.Day())
}

func TestParseOptionalFieldsDefault(t *testing.T) {
	xml := `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
		<infNFe Id="NFe333">
			<ide><nNF>9</nNF></ide>
			<det><prod><cProd>P1</cProd><CFOP>1918</CFOP></prod></det>
		</infNFe>
	</NFe>`

	doc, err := Parse([]byte(xml))
	require.NoError(t, err)
	require.Len(t, doc.LineItems, 1)

	item := doc.LineItems[0]
	assert.Empty(t, item.Description)
	assert.True(t, item.Quantity.IsZero())
	assert.True(t, item.UnitValue.IsZero())
	assert.True(t, item.TotalValue.IsZero())
	assert.Empty(t, doc.Series)
	assert.Empty(t, doc.Emitter.CNPJ)
}

func TestParseForeignNamespaceIgnored(t *testing.T) {
	// An infNFe-named element in another namespace must not satisfy the search.
	xml := `<root>
		<infNFe xmlns="http://example.com/other" Id="NFe999"/>
		<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
			<infNFe Id="NFe444"><ide><nNF>4</nNF></ide></infNFe>
		</NFe>
	</root>`

	doc, err := Parse([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, "444", doc.AccessKey)
}

func TestParseMalformedDocuments(t *testing.T) {
	testCases := []struct {
		name string
		xml  string
	}{
		{
			name: "not xml",
			xml:  `{"this": "is json"}`,
		},
		{
			name: "no infNFe element",
			xml:  `<NFe xmlns="http://www.portalfiscal.inf.br/nfe"><other/></NFe>`,
		},
		{
			name: "empty access key",
			xml: `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
				<infNFe Id="NFe"><ide><nNF>1</nNF></ide></infNFe></NFe>`,
		},
		{
			name: "missing document number",
			xml: `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
				<infNFe Id="NFe123"><ide><serie>1</serie></ide></infNFe></NFe>`,
		},
		{
			name: "item missing product code",
			xml: `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
				<infNFe Id="NFe123"><ide><nNF>1</nNF></ide>
				<det><prod><CFOP>5917</CFOP></prod></det></infNFe></NFe>`,
		},
		{
			name: "item missing CFOP",
			xml: `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
				<infNFe Id="NFe123"><ide><nNF>1</nNF></ide>
				<det><prod><cProd>P1</cProd></prod></det></infNFe></NFe>`,
		},
		{
			name: "unparsable quantity",
			xml: `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
				<infNFe Id="NFe123"><ide><nNF>1</nNF></ide>
				<det><prod><cProd>P1</cProd><CFOP>5917</CFOP><qCom>abc</qCom></prod></det></infNFe></NFe>`,
		},
		{
			name: "unparsable lot quantity",
			xml: `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
				<infNFe Id="NFe123"><ide><nNF>1</nNF></ide>
				<det><prod><cProd>P1</cProd><CFOP>5917</CFOP>
				<rastro><nLote>L1</nLote><qLote>x</qLote></rastro></prod></det></infNFe></NFe>`,
		},
		{
			name: "unparsable issue date",
			xml: `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
				<infNFe Id="NFe123"><ide><nNF>1</nNF><dhEmi>yesterday</dhEmi></ide></infNFe></NFe>`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.xml))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMalformedDocument)
		})
	}
}
