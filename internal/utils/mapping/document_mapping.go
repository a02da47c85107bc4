package mapping

import (
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	"github.com/opmecontrol/opme_backend/internal/models"
)

// ToModelDocument converts a domain FiscalDocument header to its row shape.
func ToModelDocument(d domain.FiscalDocument) models.FiscalDocument {
	return models.FiscalDocument{
		AccessKey:     d.AccessKey,
		Number:        d.Number,
		Series:        d.Series,
		IssueDate:     d.IssueDate,
		EmitterCNPJ:   d.Emitter.CNPJ,
		EmitterName:   d.Emitter.Name,
		RecipientCNPJ: d.Recipient.CNPJ,
		RecipientName: d.Recipient.Name,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainDocument converts a document header row plus its item and lot rows
// back into the domain shape. Lot rows are matched to items by item ID.
func ToDomainDocument(m models.FiscalDocument, items []models.DocumentItem, lots map[int64]models.ItemLot) domain.FiscalDocument {
	doc := domain.FiscalDocument{
		AccessKey: m.AccessKey,
		Number:    m.Number,
		Series:    m.Series,
		IssueDate: m.IssueDate,
		Emitter:   domain.Party{CNPJ: m.EmitterCNPJ, Name: m.EmitterName},
		Recipient: domain.Party{CNPJ: m.RecipientCNPJ, Name: m.RecipientName},
		LineItems:   make([]domain.LineItem, 0, len(items)),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	for _, item := range items {
		li := domain.LineItem{
			ProductCode: item.ProductCode,
			Description: item.Description,
			CFOP:        item.CFOP,
			Quantity:    item.Quantity,
			UnitValue:   item.UnitValue,
			TotalValue:  item.TotalValue,
		}
		if lot, ok := lots[item.ItemID]; ok {
			li.Lot = &domain.Lot{
				Number:          lot.LotNumber,
				Quantity:        lot.LotQuantity,
				ManufactureDate: lot.ManufactureDate,
				ExpiryDate:      lot.ExpiryDate,
			}
		}
		doc.LineItems = append(doc.LineItems, li)
	}
	return doc
}

// ToModelItems converts a document's line items to row shapes, preserving
// document order through the 1-based position column.
func ToModelItems(d domain.FiscalDocument) []models.DocumentItem {
	items := make([]models.DocumentItem, len(d.LineItems))
	for i, li := range d.LineItems {
		items[i] = models.DocumentItem{
			Position:    i + 1,
			ProductCode: li.ProductCode,
			Description: li.Description,
			CFOP:        li.CFOP,
			Quantity:    li.Quantity,
			UnitValue:   li.UnitValue,
			TotalValue:  li.TotalValue,
		}
	}
	return items
}
