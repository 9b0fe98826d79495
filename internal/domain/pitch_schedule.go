package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PitchSchedule statuses. scheduled → in_progress → {completed, cancelled};
// terminal states never transition further.
const (
	PitchScheduled  = "scheduled"
	PitchInProgress = "in_progress"
	PitchCompleted  = "completed"
	PitchCancelled  = "cancelled"
)

// PitchSchedule is one ordered appearance slot for one team in one cluster.
// Position values are a contiguous 1..N permutation per cluster.
type PitchSchedule struct {
	ScheduleID       uuid.UUID  `gorm:"column:schedule_id;type:uuid;primaryKey" json:"schedule_id"`
	ClusterID        uuid.UUID  `gorm:"column:cluster_id;type:uuid;not null;index" json:"cluster_id"`
	TeamID           uuid.UUID  `gorm:"column:team_id;type:uuid;not null" json:"team_id"`
	Position         int        `gorm:"column:position;not null" json:"position"`
	ScheduledStart   time.Time  `gorm:"column:scheduled_start" json:"scheduled_start"`
	ActualStart      *time.Time `gorm:"column:actual_start" json:"actual_start"`
	ActualEnd        *time.Time `gorm:"column:actual_end" json:"actual_end"`
	Status           string     `gorm:"column:status;type:varchar(20);not null;default:scheduled" json:"status"`
	DurationSeconds  int        `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	RemainingSeconds *int       `gorm:"column:remaining_seconds" json:"remaining_seconds"`
	IsCompleted      bool       `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CreatedAt        time.Time  `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"column:updatedAt" json:"updatedAt"`
}

func (PitchSchedule) TableName() string {
	return "PitchSchedules"
}

func (p *PitchSchedule) BeforeCreate(tx *gorm.DB) error {
	if p.ScheduleID == uuid.Nil {
		p.ScheduleID = uuid.New()
	}
	return nil
}

// Terminal reports whether the slot reached a terminal status.
func (p *PitchSchedule) Terminal() bool {
	return p.Status == PitchCompleted || p.Status == PitchCancelled
}

// ElapsedSeconds returns elapsed presentation time for an in-progress slot
// at the given instant. Paused slots report duration - remaining.
func (p *PitchSchedule) ElapsedSeconds(now time.Time) int {
	if p.RemainingSeconds != nil {
		return p.DurationSeconds - *p.RemainingSeconds
	}
	if p.ActualStart == nil {
		return 0
	}
	elapsed := int(now.Sub(*p.ActualStart).Seconds())
	if elapsed < 0 {
		return 0
	}
	if elapsed > p.DurationSeconds {
		return p.DurationSeconds
	}
	return elapsed
}
