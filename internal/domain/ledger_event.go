package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger event types. The ledger is the append-only record of economic
// activity; the counters on Team are a convenience, valuations are always
// derived from committed Investment rows.
const (
	LedgerDraftSaved         = "draft_saved"
	LedgerDraftLocked        = "draft_locked"
	LedgerPortfolioCommitted = "portfolio_committed"
)

type LedgerEvent struct {
	EventID      uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	EventType    string         `gorm:"column:event_type;type:varchar(30);not null;index" json:"event_type"`
	InvestmentID *uuid.UUID     `gorm:"column:investment_id;type:uuid" json:"investment_id"`
	ClusterID    uuid.UUID      `gorm:"column:cluster_id;type:uuid;not null;index" json:"cluster_id"`
	ActorTeamID  *uuid.UUID     `gorm:"column:actor_team_id;type:uuid" json:"actor_team_id"`
	EventData    datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt    time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerEvent) TableName() string {
	return "LedgerEvents"
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
