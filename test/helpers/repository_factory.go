package helpers

import (
	"gorm.io/gorm"

	"github.com/andrescamacho/harbor-go/internal/adapters/persistence"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// TestRepositories holds all real repository instances for integration tests
type TestRepositories struct {
	DB           *gorm.DB
	RunRepo      *persistence.GormRunRepository
	SnapshotRepo *persistence.GormSnapshotRepository
	EventLogRepo *persistence.GormEventLogRepository
}

// NewTestRepositories wires every repository onto db
func NewTestRepositories(db *gorm.DB, clock shared.Clock) *TestRepositories {
	return &TestRepositories{
		DB:           db,
		RunRepo:      persistence.NewGormRunRepository(db),
		SnapshotRepo: persistence.NewGormSnapshotRepository(db, clock),
		EventLogRepo: persistence.NewGormEventLogRepository(db, clock),
	}
}
