package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cluster stages. Stage advances monotonically except for an audited
// operator reset.
const (
	StageOnboarding = "onboarding"
	StagePitching   = "pitching"
	StageBidding    = "bidding"
	StageLocked     = "locked"
)

// Cluster groups teams sharing one pitch/bidding session.
type Cluster struct {
	ClusterID             uuid.UUID  `gorm:"column:cluster_id;type:uuid;primaryKey" json:"cluster_id"`
	Name                  string     `gorm:"column:name;not null" json:"name"`
	Location              string     `gorm:"column:location" json:"location"`
	Stage                 string     `gorm:"column:stage;type:varchar(20);not null;default:onboarding" json:"stage"`
	BiddingOpen           bool       `gorm:"column:bidding_open;not null;default:false" json:"bidding_open"`
	BiddingDeadline       *time.Time `gorm:"column:bidding_deadline" json:"bidding_deadline"`
	CurrentPitchingTeamID *uuid.UUID `gorm:"column:current_pitching_team_id;type:uuid" json:"current_pitching_team_id"`
	MaxTeams              int        `gorm:"column:max_teams;not null;default:10" json:"max_teams"`
	PitchDurationSeconds  int        `gorm:"column:pitch_duration_seconds;not null;default:300" json:"pitch_duration_seconds"`
	IsComplete            bool       `gorm:"column:is_complete;not null;default:false" json:"is_complete"`
	CreatedAt             time.Time  `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt             time.Time  `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Cluster) TableName() string {
	return "Clusters"
}

func (c *Cluster) BeforeCreate(tx *gorm.DB) error {
	if c.ClusterID == uuid.Nil {
		c.ClusterID = uuid.New()
	}
	return nil
}

// stageOrder gives the monotonic ordering of the stage ladder.
var stageOrder = map[string]int{
	StageOnboarding: 0,
	StagePitching:   1,
	StageBidding:    2,
	StageLocked:     3,
}

// ValidStage reports whether s is a known stage name.
func ValidStage(s string) bool {
	_, ok := stageOrder[s]
	return ok
}

// CanAdvanceTo reports whether the cluster may move to target without an
// operator override: exactly one step forward on the ladder.
func (c *Cluster) CanAdvanceTo(target string) bool {
	cur, ok := stageOrder[c.Stage]
	if !ok {
		return false
	}
	next, ok := stageOrder[target]
	if !ok {
		return false
	}
	return next == cur+1
}

// ApplyStage sets the stage and keeps the dependent fields consistent:
// bidding_open only survives in the bidding stage, and the active-pitch
// pointer only survives in the pitching stage.
func (c *Cluster) ApplyStage(target string) {
	c.Stage = target
	if target != StageBidding {
		c.BiddingOpen = false
	}
	if target != StagePitching {
		c.CurrentPitchingTeamID = nil
	}
	if target == StageLocked {
		c.IsComplete = true
	}
}
