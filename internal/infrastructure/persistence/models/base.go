package models

import (
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel holds the columns every aggregate table shares. Version
// backs the optimistic lock: saves update WHERE version = loaded version.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID, m.Version = a.ID, a.Version
	m.CreatedAt, m.UpdatedAt = a.CreatedAt, a.UpdatedAt
}

// ToAggregateRoot rebuilds the aggregate header. Loaded aggregates carry no
// pending events.
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	root := shared.BaseAggregateRoot{Version: m.Version}
	root.ID, root.CreatedAt, root.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return root
}
