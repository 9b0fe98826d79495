package market

import (
	"context"

	"arena-backend/internal/domain"
	"arena-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamValuation is one team's derived market standing.
type TeamValuation struct {
	TeamID        uuid.UUID `json:"team_id"`
	Name          string    `json:"name"`
	TotalReceived float64   `json:"total_received"`
	Investors     int       `json:"investors"`
}

// Valuations is the sealed-bid reveal: empty until every team in the
// cluster has finalized.
type Valuations struct {
	ClusterID  uuid.UUID       `json:"cluster_id"`
	Sealed     bool            `json:"sealed"`
	Valuations []TeamValuation `json:"valuations"`
}

// Service derives the read-only market view. Pure read path; it never
// mutates state, and totals are sums over committed rows rather than the
// team counters.
type Service struct {
	DB *gorm.DB
}

// GetValuations returns per-team committed totals once all teams in the
// cluster are finalized, and a sealed/empty result before that.
func (s *Service) GetValuations(ctx context.Context, clusterID uuid.UUID) (*Valuations, error) {
	var cluster domain.Cluster
	if err := s.DB.WithContext(ctx).Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.NotFound, "Cluster not found")
		}
		return nil, apperr.Wrap(err, "load cluster")
	}

	var pending int64
	if err := s.DB.WithContext(ctx).Model(&domain.Team{}).
		Where("cluster_id = ? AND is_finalized = ?", clusterID, false).
		Count(&pending).Error; err != nil {
		return nil, apperr.Wrap(err, "count pending teams")
	}
	if pending > 0 {
		return &Valuations{ClusterID: clusterID, Sealed: true, Valuations: []TeamValuation{}}, nil
	}

	var teams []domain.Team
	if err := s.DB.WithContext(ctx).
		Where("cluster_id = ?", clusterID).
		Order("name asc").
		Find(&teams).Error; err != nil {
		return nil, apperr.Wrap(err, "load teams")
	}

	out := &Valuations{ClusterID: clusterID, Valuations: make([]TeamValuation, 0, len(teams))}
	for _, team := range teams {
		var received float64
		if err := s.DB.WithContext(ctx).Model(&domain.Investment{}).
			Where("target_team_id = ? AND status = ?", team.TeamID, domain.InvestmentCommitted).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&received).Error; err != nil {
			return nil, apperr.Wrap(err, "sum received")
		}
		var investors int64
		if err := s.DB.WithContext(ctx).Model(&domain.Investment{}).
			Where("target_team_id = ? AND status = ?", team.TeamID, domain.InvestmentCommitted).
			Count(&investors).Error; err != nil {
			return nil, apperr.Wrap(err, "count investors")
		}
		out.Valuations = append(out.Valuations, TeamValuation{
			TeamID:        team.TeamID,
			Name:          team.Name,
			TotalReceived: received,
			Investors:     int(investors),
		})
	}
	return out, nil
}
