package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkstack-app/payment-service/internal/adapter/repository"
	domainRepo "github.com/linkstack-app/payment-service/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Ledger domainRepo.LedgerRepository
	Credit domainRepo.CreditRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Ledger: repository.NewLedgerRepository(db, logger),
		Credit: repository.NewCreditRepository(db, logger),
	}
}
