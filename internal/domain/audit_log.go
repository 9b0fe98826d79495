package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit event types recorded for state-changing actions.
const (
	AuditStageAdvanced      = "STAGE_ADVANCED"
	AuditStageReset         = "STAGE_RESET"
	AuditBiddingOpened      = "BIDDING_OPENED"
	AuditBiddingClosed      = "BIDDING_CLOSED"
	AuditPitchStarted       = "PITCH_STARTED"
	AuditPitchEnded         = "PITCH_ENDED"
	AuditPitchSkipped       = "PITCH_SKIPPED"
	AuditPortfolioCommitted = "PORTFOLIO_COMMITTED"
)

// AuditLog is append-only; rows are never updated or deleted.
type AuditLog struct {
	AuditID   uuid.UUID      `gorm:"column:audit_id;type:uuid;primaryKey" json:"audit_id"`
	EventType string         `gorm:"column:event_type;type:varchar(40);not null;index" json:"event_type"`
	ActorID   *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	TargetID  *uuid.UUID     `gorm:"column:target_id;type:uuid" json:"target_id"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "AuditLogs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.AuditID == uuid.Nil {
		a.AuditID = uuid.New()
	}
	return nil
}
