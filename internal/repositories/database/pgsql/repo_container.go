package pgsql

import (
	portsrepo "github.com/opmecontrol/opme_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	documentRepo := newPgxDocumentRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)

	return portsrepo.RepositoryProvider{
		DocumentRepo: documentRepo,
		UserRepo:     userRepo,
	}
}
