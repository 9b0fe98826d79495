package livesync

import (
	"context"
	"time"

	"arena-backend/internal/application/market"
	"arena-backend/internal/domain"
	"arena-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivePitch describes the in-progress slot, with pause-aware timing.
type ActivePitch struct {
	ScheduleID       uuid.UUID `json:"schedule_id"`
	TeamID           uuid.UUID `json:"team_id"`
	Position         int       `json:"position"`
	ElapsedSeconds   int       `json:"elapsed_seconds"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Paused           bool      `json:"paused"`
}

// DraftStatus is the viewer team's own row against one target.
type DraftStatus struct {
	TargetTeamID uuid.UUID `json:"target_team_id"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
}

// Snapshot is one consistent view of a cluster for connected viewers.
type Snapshot struct {
	ClusterID       uuid.UUID          `json:"cluster_id"`
	Stage           string             `json:"stage"`
	BiddingOpen     bool               `json:"bidding_open"`
	BiddingDeadline *time.Time         `json:"bidding_deadline"`
	ActivePitch     *ActivePitch       `json:"active_pitch"`
	MyDrafts        []DraftStatus      `json:"my_drafts,omitempty"`
	Market          *market.Valuations `json:"market"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// Service is the read-only snapshot producer behind the sync channel.
// It never mutates state; concurrent writers may interleave between reads.
type Service struct {
	DB     *gorm.DB
	Market *market.Service
}

// GetSnapshot assembles the current cluster view. viewerTeamID scopes the
// draft section to the caller's own team; nil omits it.
func (s *Service) GetSnapshot(ctx context.Context, clusterID uuid.UUID, viewerTeamID *uuid.UUID) (*Snapshot, error) {
	var cluster domain.Cluster
	if err := s.DB.WithContext(ctx).Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.NotFound, "Cluster not found")
		}
		return nil, apperr.Wrap(err, "load cluster")
	}

	snap := &Snapshot{
		ClusterID:       cluster.ClusterID,
		Stage:           cluster.Stage,
		BiddingOpen:     cluster.BiddingOpen,
		BiddingDeadline: cluster.BiddingDeadline,
		GeneratedAt:     time.Now(),
	}

	var active domain.PitchSchedule
	err := s.DB.WithContext(ctx).
		Where("cluster_id = ? AND status = ?", clusterID, domain.PitchInProgress).
		First(&active).Error
	if err == nil {
		now := time.Now()
		elapsed := active.ElapsedSeconds(now)
		snap.ActivePitch = &ActivePitch{
			ScheduleID:       active.ScheduleID,
			TeamID:           active.TeamID,
			Position:         active.Position,
			ElapsedSeconds:   elapsed,
			RemainingSeconds: active.DurationSeconds - elapsed,
			Paused:           active.RemainingSeconds != nil,
		}
	} else if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(err, "load active pitch")
	}

	if viewerTeamID != nil {
		var rows []domain.Investment
		if err := s.DB.WithContext(ctx).
			Where("investor_team_id = ?", *viewerTeamID).
			Find(&rows).Error; err != nil {
			return nil, apperr.Wrap(err, "load drafts")
		}
		snap.MyDrafts = make([]DraftStatus, 0, len(rows))
		for _, r := range rows {
			snap.MyDrafts = append(snap.MyDrafts, DraftStatus{
				TargetTeamID: r.TargetTeamID,
				Amount:       r.Amount,
				Status:       r.Status,
			})
		}
	}

	valuations, err := s.Market.GetValuations(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	snap.Market = valuations

	return snap, nil
}
