package schedule

import (
	"context"
	"time"

	"arena-backend/internal/application/audit"
	"arena-backend/internal/domain"
	"arena-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service drives each pitch slot through scheduled → in_progress →
// {completed, cancelled}. Ending a pitch is the coupling point with the
// draft ledger: it freezes every draft targeting the presenting team.
type Service struct {
	DB *gorm.DB
}

// EnsureSchedule creates one slot per team when the cluster has none yet.
// Idempotent: with existing rows it is a read-only no-op returning them.
func (s *Service) EnsureSchedule(ctx context.Context, clusterID uuid.UUID) ([]domain.PitchSchedule, error) {
	var cluster domain.Cluster
	if err := s.DB.WithContext(ctx).Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.NotFound, "Cluster not found")
		}
		return nil, apperr.Wrap(err, "load cluster")
	}

	var existing []domain.PitchSchedule
	if err := s.DB.WithContext(ctx).
		Where("cluster_id = ?", clusterID).
		Order("position asc").
		Find(&existing).Error; err != nil {
		return nil, apperr.Wrap(err, "load schedule")
	}
	if len(existing) > 0 {
		return existing, nil
	}

	var teams []domain.Team
	if err := s.DB.WithContext(ctx).
		Where("cluster_id = ?", clusterID).
		Order("name asc").
		Find(&teams).Error; err != nil {
		return nil, apperr.Wrap(err, "load teams")
	}
	if len(teams) == 0 {
		return []domain.PitchSchedule{}, nil
	}

	created := make([]domain.PitchSchedule, 0, len(teams))
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		start := time.Now()
		for i, team := range teams {
			row := domain.PitchSchedule{
				ClusterID:       clusterID,
				TeamID:          team.TeamID,
				Position:        i + 1,
				ScheduledStart:  start.Add(time.Duration(i*cluster.PitchDurationSeconds) * time.Second),
				Status:          domain.PitchScheduled,
				DurationSeconds: cluster.PitchDurationSeconds,
			}
			if err := tx.Create(&row).Error; err != nil {
				return apperr.Wrap(err, "create schedule row")
			}
			created = append(created, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// StartPitch moves a slot to in_progress and points the cluster at the
// presenting team. Conflict while any other slot in the cluster is active.
func (s *Service) StartPitch(ctx context.Context, scheduleID, teamID, clusterID, actorID uuid.UUID) (*domain.PitchSchedule, error) {
	var row domain.PitchSchedule
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleID).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Schedule not found")
			}
			return apperr.Wrap(err, "load schedule")
		}
		if row.ClusterID != clusterID || row.TeamID != teamID {
			return apperr.New(apperr.Rejected, "Schedule does not match team or cluster")
		}
		if row.Status != domain.PitchScheduled {
			return apperr.New(apperr.Conflict, "Pitch is not in a startable state")
		}

		var active int64
		if err := tx.Model(&domain.PitchSchedule{}).
			Where("cluster_id = ? AND status = ?", clusterID, domain.PitchInProgress).
			Count(&active).Error; err != nil {
			return apperr.Wrap(err, "count active pitches")
		}
		if active > 0 {
			return apperr.New(apperr.Conflict, "Another pitch is already in progress")
		}

		now := time.Now()
		row.Status = domain.PitchInProgress
		row.ActualStart = &now
		row.RemainingSeconds = nil
		if err := tx.Save(&row).Error; err != nil {
			return apperr.Wrap(err, "save schedule")
		}

		var cluster domain.Cluster
		if err := tx.Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
			return apperr.Wrap(err, "load cluster")
		}
		cluster.ApplyStage(domain.StagePitching)
		cluster.CurrentPitchingTeamID = &teamID
		if err := tx.Save(&cluster).Error; err != nil {
			return apperr.Wrap(err, "save cluster")
		}

		return audit.Append(tx, domain.AuditPitchStarted, &actorID, &scheduleID, map[string]interface{}{
			"team_id":    teamID,
			"cluster_id": clusterID,
		})
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			log.Error().Err(err).Str("schedule_id", scheduleID.String()).Msg("start pitch failed")
		}
		return nil, err
	}
	return &row, nil
}

// EndPitch completes the slot, clears the cluster's active-pitch pointer and
// locks every draft targeting the team, all in one transaction. A bid placed
// on a finished pitch cannot be walked back afterwards.
func (s *Service) EndPitch(ctx context.Context, scheduleID, clusterID, teamID, actorID uuid.UUID) (*domain.PitchSchedule, error) {
	var row domain.PitchSchedule
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleID).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Schedule not found")
			}
			return apperr.Wrap(err, "load schedule")
		}
		if row.ClusterID != clusterID || row.TeamID != teamID {
			return apperr.New(apperr.Rejected, "Schedule does not match team or cluster")
		}
		if row.Status != domain.PitchInProgress {
			return apperr.New(apperr.Conflict, "Pitch is not in progress")
		}

		now := time.Now()
		row.Status = domain.PitchCompleted
		row.IsCompleted = true
		row.ActualEnd = &now
		row.RemainingSeconds = nil
		if err := tx.Save(&row).Error; err != nil {
			return apperr.Wrap(err, "save schedule")
		}

		var cluster domain.Cluster
		if err := tx.Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
			return apperr.Wrap(err, "load cluster")
		}
		cluster.CurrentPitchingTeamID = nil
		if err := tx.Save(&cluster).Error; err != nil {
			return apperr.Wrap(err, "save cluster")
		}

		// Freeze all drafts targeting the team that just presented.
		var drafts []domain.Investment
		if err := tx.Where("target_team_id = ? AND status = ?", teamID, domain.InvestmentDraft).
			Find(&drafts).Error; err != nil {
			return apperr.Wrap(err, "load drafts")
		}
		for i := range drafts {
			drafts[i].Status = domain.InvestmentDraftLocked
			if err := tx.Save(&drafts[i]).Error; err != nil {
				return apperr.Wrap(err, "lock draft")
			}
			if err := audit.AppendLedger(tx, domain.LedgerDraftLocked, clusterID, &drafts[i].InvestmentID, &drafts[i].InvestorTeamID, map[string]interface{}{
				"target_team_id": teamID,
				"amount":         drafts[i].Amount,
			}); err != nil {
				return apperr.Wrap(err, "ledger event")
			}
		}

		return audit.Append(tx, domain.AuditPitchEnded, &actorID, &scheduleID, map[string]interface{}{
			"team_id":       teamID,
			"cluster_id":    clusterID,
			"drafts_locked": len(drafts),
		})
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			log.Error().Err(err).Str("schedule_id", scheduleID.String()).Msg("end pitch failed")
		}
		return nil, err
	}
	return &row, nil
}

// SkipPitch cancels the slot. A skipped team received no investment signal,
// so drafts targeting it stay editable.
func (s *Service) SkipPitch(ctx context.Context, scheduleID, clusterID, actorID uuid.UUID) (*domain.PitchSchedule, error) {
	var row domain.PitchSchedule
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleID).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Schedule not found")
			}
			return apperr.Wrap(err, "load schedule")
		}
		if row.ClusterID != clusterID {
			return apperr.New(apperr.Rejected, "Schedule does not match cluster")
		}
		if row.Terminal() {
			return apperr.New(apperr.Conflict, "Pitch already finished")
		}

		now := time.Now()
		row.Status = domain.PitchCancelled
		row.ActualEnd = &now
		row.RemainingSeconds = nil
		if err := tx.Save(&row).Error; err != nil {
			return apperr.Wrap(err, "save schedule")
		}

		var cluster domain.Cluster
		if err := tx.Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
			return apperr.Wrap(err, "load cluster")
		}
		if cluster.CurrentPitchingTeamID != nil && *cluster.CurrentPitchingTeamID == row.TeamID {
			cluster.CurrentPitchingTeamID = nil
			if err := tx.Save(&cluster).Error; err != nil {
				return apperr.Wrap(err, "save cluster")
			}
		}

		return audit.Append(tx, domain.AuditPitchSkipped, &actorID, &scheduleID, map[string]interface{}{
			"team_id":    row.TeamID,
			"cluster_id": clusterID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// PausePitch stores the remaining seconds without changing status.
func (s *Service) PausePitch(ctx context.Context, scheduleID uuid.UUID) (*domain.PitchSchedule, error) {
	var row domain.PitchSchedule
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleID).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Schedule not found")
			}
			return apperr.Wrap(err, "load schedule")
		}
		if row.Status != domain.PitchInProgress {
			return apperr.New(apperr.Conflict, "Pitch is not in progress")
		}
		if row.RemainingSeconds != nil {
			return apperr.New(apperr.Conflict, "Pitch already paused")
		}

		remaining := row.DurationSeconds - row.ElapsedSeconds(time.Now())
		if remaining < 0 {
			remaining = 0
		}
		row.RemainingSeconds = &remaining
		if err := tx.Save(&row).Error; err != nil {
			return apperr.Wrap(err, "save schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ResumePitch recomputes actualStart so elapsed-time arithmetic stays
// correct after the pause.
func (s *Service) ResumePitch(ctx context.Context, scheduleID uuid.UUID) (*domain.PitchSchedule, error) {
	var row domain.PitchSchedule
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleID).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Schedule not found")
			}
			return apperr.Wrap(err, "load schedule")
		}
		if row.Status != domain.PitchInProgress || row.RemainingSeconds == nil {
			return apperr.New(apperr.Conflict, "Pitch is not paused")
		}

		elapsed := row.DurationSeconds - *row.RemainingSeconds
		adjusted := time.Now().Add(-time.Duration(elapsed) * time.Second)
		row.ActualStart = &adjusted
		row.RemainingSeconds = nil
		if err := tx.Save(&row).Error; err != nil {
			return apperr.Wrap(err, "save schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListSchedule returns all slots for a cluster ordered by position.
func (s *Service) ListSchedule(ctx context.Context, clusterID uuid.UUID) ([]domain.PitchSchedule, error) {
	var rows []domain.PitchSchedule
	if err := s.DB.WithContext(ctx).
		Where("cluster_id = ?", clusterID).
		Order("position asc").
		Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(err, "load schedule")
	}
	return rows, nil
}
