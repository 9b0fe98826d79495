package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team is a competing entity with a virtual budget. Balance never goes
// negative; balance + total_invested stays equal to initial_balance once
// the portfolio is committed.
type Team struct {
	TeamID         uuid.UUID  `gorm:"column:team_id;type:uuid;primaryKey" json:"team_id"`
	Name           string     `gorm:"column:name;not null" json:"name"`
	ClusterID      *uuid.UUID `gorm:"column:cluster_id;type:uuid" json:"cluster_id"`
	Balance        float64    `gorm:"column:balance;type:decimal(18,2);not null;default:0" json:"balance"`
	InitialBalance float64    `gorm:"column:initial_balance;type:decimal(18,2);not null;default:0" json:"initial_balance"`
	TotalInvested  float64    `gorm:"column:total_invested;type:decimal(18,2);not null;default:0" json:"total_invested"`
	TotalReceived  float64    `gorm:"column:total_received;type:decimal(18,2);not null;default:0" json:"total_received"`
	IsFinalized    bool       `gorm:"column:is_finalized;not null;default:false" json:"is_finalized"`
	IsQualified    bool       `gorm:"column:is_qualified;not null;default:true" json:"is_qualified"`
	CreatedAt      time.Time  `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Team) TableName() string {
	return "Teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.TeamID == uuid.Nil {
		t.TeamID = uuid.New()
	}
	if t.InitialBalance == 0 {
		t.InitialBalance = t.Balance
	}
	return nil
}
