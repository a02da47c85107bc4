package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	portsrepo "github.com/opmecontrol/opme_backend/internal/core/ports/repositories"
	"github.com/opmecontrol/opme_backend/internal/models"
	"github.com/opmecontrol/opme_backend/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

type PgxDocumentRepository struct {
	BaseRepository
}

// newPgxDocumentRepository creates a new repository for fiscal document data.
func newPgxDocumentRepository(pool *pgxpool.Pool) portsrepo.DocumentRepositoryWithTx {
	return &PgxDocumentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxDocumentRepository implements portsrepo.DocumentRepositoryWithTx
var _ portsrepo.DocumentRepositoryWithTx = (*PgxDocumentRepository)(nil)

// SaveDocument persists the document header, its line items and their lot
// records inside one DB transaction. There is no separate existence check:
// the UNIQUE constraint on documents.access_key is the dedupe, evaluated
// atomically with the insert, so concurrent ingestions of the same key can
// never both commit. A 23505 violation surfaces as apperrors.ErrDuplicate.
func (r *PgxDocumentRepository) SaveDocument(ctx context.Context, doc domain.FiscalDocument) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Ignored after a successful commit.
	defer r.Rollback(ctx, tx)

	modelDoc := mapping.ToModelDocument(doc)
	headerQuery := `
		INSERT INTO documents (
			access_key, number, series, issue_date,
			emitter_cnpj, emitter_name, recipient_cnpj, recipient_name,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING document_id;
	`
	var documentID int64
	err = tx.QueryRow(ctx, headerQuery,
		modelDoc.AccessKey,
		modelDoc.Number,
		modelDoc.Series,
		modelDoc.IssueDate,
		modelDoc.EmitterCNPJ,
		modelDoc.EmitterName,
		modelDoc.RecipientCNPJ,
		modelDoc.RecipientName,
		modelDoc.CreatedAt,
		modelDoc.CreatedBy,
		modelDoc.LastUpdatedAt,
		modelDoc.LastUpdatedBy,
	).Scan(&documentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.NewConflictError("document with access key " + modelDoc.AccessKey + " already exists")
		}
		return classifyInfraError("failed to insert document "+modelDoc.AccessKey, err)
	}

	// Insert items one at a time to collect the generated IDs the lot rows
	// reference; documents rarely carry more than a handful of items.
	itemQuery := `
		INSERT INTO document_items (
			document_id, position, product_code, description, cfop,
			quantity, unit_value, total_value
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING item_id;
	`
	lotBatch := &pgx.Batch{}
	lotQuery := `
		INSERT INTO item_lots (item_id, lot_number, lot_quantity, manufacture_date, expiry_date)
		VALUES ($1, $2, $3, $4, $5);
	`
	for i, modelItem := range mapping.ToModelItems(doc) {
		var itemID int64
		err = tx.QueryRow(ctx, itemQuery,
			documentID,
			modelItem.Position,
			modelItem.ProductCode,
			modelItem.Description,
			modelItem.CFOP,
			modelItem.Quantity,
			modelItem.UnitValue,
			modelItem.TotalValue,
		).Scan(&itemID)
		if err != nil {
			return classifyInfraError("failed to insert line item for document "+modelDoc.AccessKey, err)
		}

		if lot := doc.LineItems[i].Lot; lot != nil {
			lotBatch.Queue(lotQuery, itemID, lot.Number, lot.Quantity, lot.ManufactureDate, lot.ExpiryDate)
		}
	}

	if lotBatch.Len() > 0 {
		br := tx.SendBatch(ctx, lotBatch)
		if err := br.Close(); err != nil {
			return classifyInfraError("failed to insert lot records for document "+modelDoc.AccessKey, err)
		}
	}

	return r.Commit(ctx, tx)
}

// FindByAccessKey retrieves a document and all of its line items by access key.
func (r *PgxDocumentRepository) FindByAccessKey(ctx context.Context, accessKey string) (*domain.FiscalDocument, error) {
	headerQuery := `
		SELECT document_id, access_key, number, series, issue_date,
		       emitter_cnpj, emitter_name, recipient_cnpj, recipient_name,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM documents
		WHERE access_key = $1;
	`
	var m models.FiscalDocument
	err := r.Pool.QueryRow(ctx, headerQuery, accessKey).Scan(
		&m.DocumentID,
		&m.AccessKey,
		&m.Number,
		&m.Series,
		&m.IssueDate,
		&m.EmitterCNPJ,
		&m.EmitterName,
		&m.RecipientCNPJ,
		&m.RecipientName,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, classifyInfraError("failed to find document by access key", err)
	}

	items, lots, err := r.findItems(ctx, m.DocumentID)
	if err != nil {
		return nil, err
	}

	doc := mapping.ToDomainDocument(m, items, lots)
	return &doc, nil
}

func (r *PgxDocumentRepository) findItems(ctx context.Context, documentID int64) ([]models.DocumentItem, map[int64]models.ItemLot, error) {
	itemQuery := `
		SELECT i.item_id, i.document_id, i.position, i.product_code, i.description,
		       i.cfop, i.quantity, i.unit_value, i.total_value,
		       l.lot_number, l.lot_quantity, l.manufacture_date, l.expiry_date
		FROM document_items i
		LEFT JOIN item_lots l ON l.item_id = i.item_id
		WHERE i.document_id = $1
		ORDER BY i.position;
	`
	rows, err := r.Pool.Query(ctx, itemQuery, documentID)
	if err != nil {
		return nil, nil, classifyInfraError("failed to query line items", err)
	}
	defer rows.Close()

	var items []models.DocumentItem
	lots := make(map[int64]models.ItemLot)
	for rows.Next() {
		var item models.DocumentItem
		var lotNumber, manufactureDate, expiryDate *string
		var lotQuantity *decimal.Decimal
		err := rows.Scan(
			&item.ItemID,
			&item.DocumentID,
			&item.Position,
			&item.ProductCode,
			&item.Description,
			&item.CFOP,
			&item.Quantity,
			&item.UnitValue,
			&item.TotalValue,
			&lotNumber,
			&lotQuantity,
			&manufactureDate,
			&expiryDate,
		)
		if err != nil {
			return nil, nil, classifyInfraError("failed to scan line item", err)
		}
		items = append(items, item)
		if lotNumber != nil {
			lot := models.ItemLot{ItemID: item.ItemID, LotNumber: *lotNumber}
			if lotQuantity != nil {
				lot.LotQuantity = *lotQuantity
			}
			if manufactureDate != nil {
				lot.ManufactureDate = *manufactureDate
			}
			if expiryDate != nil {
				lot.ExpiryDate = *expiryDate
			}
			lots[item.ItemID] = lot
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, classifyInfraError("failed to read line items", err)
	}
	return items, lots, nil
}

// ListMovements joins every stored line item with its document header, in
// ingestion order. A non-nil recipientCNPJ restricts to one recipient.
func (r *PgxDocumentRepository) ListMovements(ctx context.Context, recipientCNPJ *string) ([]domain.Movement, error) {
	query := `
		SELECT d.number, d.issue_date, d.recipient_cnpj, d.recipient_name,
		       i.product_code, i.description, i.cfop, i.quantity,
		       COALESCE(l.lot_number, ''), COALESCE(l.lot_quantity, 0)
		FROM documents d
		JOIN document_items i ON i.document_id = d.document_id
		LEFT JOIN item_lots l ON l.item_id = i.item_id
	`
	args := []any{}
	if recipientCNPJ != nil {
		query += ` WHERE d.recipient_cnpj = $1`
		args = append(args, *recipientCNPJ)
	}
	query += ` ORDER BY d.document_id, i.position;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyInfraError("failed to query movements", err)
	}
	defer rows.Close()

	var movements []domain.Movement
	for rows.Next() {
		var m domain.Movement
		err := rows.Scan(
			&m.DocumentNumber,
			&m.IssueDate,
			&m.RecipientCNPJ,
			&m.RecipientName,
			&m.ProductCode,
			&m.Description,
			&m.CFOP,
			&m.Quantity,
			&m.LotNumber,
			&m.LotQuantity,
		)
		if err != nil {
			return nil, classifyInfraError("failed to scan movement", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyInfraError("failed to read movements", err)
	}
	return movements, nil
}

// GetDocumentStats aggregates dashboard figures over all ingested documents.
func (r *PgxDocumentRepository) GetDocumentStats(ctx context.Context) (*domain.DocumentStats, error) {
	query := `
		SELECT COUNT(DISTINCT d.document_id),
		       COALESCE(SUM(i.total_value), 0),
		       COUNT(DISTINCT d.recipient_cnpj)
		FROM documents d
		LEFT JOIN document_items i ON i.document_id = d.document_id;
	`
	var stats domain.DocumentStats
	err := r.Pool.QueryRow(ctx, query).Scan(
		&stats.TotalDocuments,
		&stats.TotalValue,
		&stats.DistinctRecipients,
	)
	if err != nil {
		return nil, classifyInfraError("failed to aggregate document stats", err)
	}
	return &stats, nil
}
