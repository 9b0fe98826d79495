package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Investment statuses. One enum column instead of isDraft/draftLocked/isLocked
// flags so the three states stay mutually exclusive.
const (
	InvestmentDraft       = "draft"
	InvestmentDraftLocked = "draft_locked"
	InvestmentCommitted   = "committed"
)

// Investment is a directed amount-bearing edge investor team → target team.
// At most one row per (investor, target) pair; never self-directed.
type Investment struct {
	InvestmentID    uuid.UUID `gorm:"column:investment_id;type:uuid;primaryKey" json:"investment_id"`
	InvestorTeamID  uuid.UUID `gorm:"column:investor_team_id;type:uuid;not null;uniqueIndex:idx_investor_target" json:"investor_team_id"`
	TargetTeamID    uuid.UUID `gorm:"column:target_team_id;type:uuid;not null;uniqueIndex:idx_investor_target" json:"target_team_id"`
	ClusterID       uuid.UUID `gorm:"column:cluster_id;type:uuid;not null;index" json:"cluster_id"`
	Amount          float64   `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Status          string    `gorm:"column:status;type:varchar(20);not null;default:draft" json:"status"`
	Reasoning       *string   `gorm:"column:reasoning" json:"reasoning"`
	ConfidenceLevel *int      `gorm:"column:confidence_level" json:"confidence_level"`
	CreatedAt       time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Investment) TableName() string {
	return "Investments"
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.InvestmentID == uuid.Nil {
		i.InvestmentID = uuid.New()
	}
	return nil
}

// Editable reports whether the row can still take a new amount.
// Committed rows are permanent; locked drafts are frozen by the end of the
// target's pitch.
func (i *Investment) Editable() bool {
	return i.Status == InvestmentDraft
}
