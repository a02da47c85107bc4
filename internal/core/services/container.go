package services

import (
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	portsrepo "github.com/opmecontrol/opme_backend/internal/core/ports/repositories"
	portssvc "github.com/opmecontrol/opme_backend/internal/core/ports/services"
	"github.com/opmecontrol/opme_backend/pkg/config"
)

// NewContainer creates the service container with properly initialized
// dependencies.
func NewContainer(cfg *config.Config, repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	documentSvc := NewDocumentService(repos.DocumentRepo)
	return &portssvc.ServiceContainer{
		Document: documentSvc,
		Balance:  NewBalanceService(repos.DocumentRepo, domain.DefaultCFOPTable()),
		Maino:    NewMainoService(cfg.MainoBaseURL, documentSvc),
		User:     NewUserService(repos.UserRepo),
		Token:    NewTokenService(cfg),
	}
}
