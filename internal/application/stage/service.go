package stage

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

// Service owns a cluster's phase and the bidding switch. Every other engine
// component checks the state this service maintains.
type Service struct {
	DB *gorm.DB
	// BiddingWindow is the default deadline window when OpenBidding gets none.
	BiddingWindow time.Duration
}

// AdvanceStage moves a cluster one step along
// onboarding→pitching→bidding→locked. With reset=true any transition is
// allowed but recorded as an operator override.
func (s *Service) AdvanceStage(ctx context.Context, clusterID uuid.UUID, targetStage string, reset bool, actorID uuid.UUID) (*domain.Cluster, error) {
	if !domain.ValidStage(targetStage) {
		return nil, apperr.New(apperr.Rejected, "Unknown stage")
	}

	var cluster domain.Cluster
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Cluster not found")
			}
			return apperr.Wrap(err, "load cluster")
		}

		if !reset && !cluster.CanAdvanceTo(targetStage) {
			return apperr.New(apperr.Conflict, "Illegal stage transition")
		}

		from := cluster.Stage
		cluster.ApplyStage(targetStage)
		if err := tx.Save(&cluster).Error; err != nil {
			return apperr.Wrap(err, "save cluster")
		}

		event := domain.AuditStageAdvanced
		if reset {
			event = domain.AuditStageReset
		}
		return audit.Append(tx, event, &actorID, &clusterID, map[string]interface{}{
			"from": from,
			"to":   targetStage,
		})
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			log.Error().Err(err).Str("cluster_id", clusterID.String()).Msg("advance stage failed")
		}
		return nil, err
	}
	return &cluster, nil
}

// OpenBidding flips the cluster into bidding with an optional deadline.
// Requires the cluster to be pitching or already bidding.
func (s *Service) OpenBidding(ctx context.Context, clusterID uuid.UUID, deadline *time.Time, actorID uuid.UUID) (*domain.Cluster, error) {
	var cluster domain.Cluster
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Cluster not found")
			}
			return apperr.Wrap(err, "load cluster")
		}
		if cluster.Stage != domain.StagePitching && cluster.Stage != domain.StageBidding {
			return apperr.New(apperr.Conflict, "Bidding can only open during pitching or bidding")
		}

		if deadline == nil {
			d := time.Now().Add(s.biddingWindow())
			deadline = &d
		}
		cluster.ApplyStage(domain.StageBidding)
		cluster.BiddingOpen = true
		cluster.BiddingDeadline = deadline
		if err := tx.Save(&cluster).Error; err != nil {
			return apperr.Wrap(err, "save cluster")
		}

		return audit.Append(tx, domain.AuditBiddingOpened, &actorID, &clusterID, map[string]interface{}{
			"deadline": deadline,
		})
	})
	if err != nil {
		return nil, err
	}
	return &cluster, nil
}

// CloseBidding ends bidding and locks the cluster. The deadline passing does
// not call this; closing is always an explicit operator action.
func (s *Service) CloseBidding(ctx context.Context, clusterID uuid.UUID, actorID uuid.UUID) (*domain.Cluster, error) {
	var cluster domain.Cluster
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Cluster not found")
			}
			return apperr.Wrap(err, "load cluster")
		}

		cluster.BiddingOpen = false
		cluster.ApplyStage(domain.StageLocked)
		if err := tx.Save(&cluster).Error; err != nil {
			return apperr.Wrap(err, "save cluster")
		}

		return audit.Append(tx, domain.AuditBiddingClosed, &actorID, &clusterID, nil)
	})
	if err != nil {
		return nil, err
	}
	return &cluster, nil
}

func (s *Service) biddingWindow() time.Duration {
	if s.BiddingWindow > 0 {
		return s.BiddingWindow
	}
	return 15 * time.Minute
}
