package drafts

import (
	"context"

	"arena-backend/internal/application/audit"
	"arena-backend/internal/domain"
	"arena-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the draft ledger: provisional per-(investor, target) amounts,
// mutable only under the stage and target conditions below. Balances are
// never touched by drafting; only the running sum is checked.
type Service struct {
	DB *gorm.DB
}

// SaveDraft upserts a draft while the target team is pitching.
func (s *Service) SaveDraft(ctx context.Context, investorTeamID, targetTeamID uuid.UUID, amount float64, clusterID uuid.UUID) (*domain.Investment, error) {
	if amount <= 0 {
		return nil, apperr.New(apperr.Rejected, "Amount must be a positive number")
	}
	if investorTeamID == targetTeamID {
		return nil, apperr.New(apperr.Rejected, "Teams cannot invest in themselves")
	}

	var row domain.Investment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cluster domain.Cluster
		if err := tx.Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Cluster not found")
			}
			return apperr.Wrap(err, "load cluster")
		}
		if cluster.Stage != domain.StagePitching {
			return apperr.New(apperr.Rejected, "Drafts can only be placed while a team is pitching")
		}
		if cluster.CurrentPitchingTeamID == nil || *cluster.CurrentPitchingTeamID != targetTeamID {
			return apperr.New(apperr.Rejected, "Target team is not currently pitching")
		}

		existing, err := s.findPair(tx, investorTeamID, targetTeamID)
		if err != nil {
			return err
		}
		if existing != nil && !existing.Editable() {
			return apperr.New(apperr.Conflict, "Draft is locked")
		}

		if err := s.checkBudget(tx, investorTeamID, targetTeamID, amount); err != nil {
			return err
		}

		if existing != nil {
			existing.Amount = amount
			existing.Status = domain.InvestmentDraft
			if err := tx.Save(existing).Error; err != nil {
				return apperr.Wrap(err, "save draft")
			}
			row = *existing
		} else {
			row = domain.Investment{
				InvestorTeamID: investorTeamID,
				TargetTeamID:   targetTeamID,
				ClusterID:      clusterID,
				Amount:         amount,
				Status:         domain.InvestmentDraft,
			}
			if err := tx.Create(&row).Error; err != nil {
				return apperr.Wrap(err, "create draft")
			}
		}

		return audit.AppendLedger(tx, domain.LedgerDraftSaved, clusterID, &row.InvestmentID, &investorTeamID, map[string]interface{}{
			"target_team_id": targetTeamID,
			"amount":         amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// EditDraft changes a draft amount during open bidding. Locked drafts stay
// frozen: the end-of-pitch lock wins over the bidding-phase edit path.
func (s *Service) EditDraft(ctx context.Context, investorTeamID, targetTeamID uuid.UUID, amount float64) (*domain.Investment, error) {
	if amount <= 0 {
		return nil, apperr.New(apperr.Rejected, "Amount must be a positive number")
	}
	if investorTeamID == targetTeamID {
		return nil, apperr.New(apperr.Rejected, "Teams cannot invest in themselves")
	}

	var row domain.Investment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findPair(tx, investorTeamID, targetTeamID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.New(apperr.NotFound, "Draft not found")
		}

		var cluster domain.Cluster
		if err := tx.Where("cluster_id = ?", existing.ClusterID).First(&cluster).Error; err != nil {
			return apperr.Wrap(err, "load cluster")
		}
		if cluster.Stage != domain.StageBidding || !cluster.BiddingOpen {
			return apperr.New(apperr.Rejected, "Drafts can only be edited while bidding is open")
		}

		var investor domain.Team
		if err := tx.Where("team_id = ?", investorTeamID).First(&investor).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Team not found")
			}
			return apperr.Wrap(err, "load team")
		}
		if investor.IsFinalized {
			return apperr.New(apperr.Conflict, "Portfolio already committed")
		}
		if !existing.Editable() {
			return apperr.New(apperr.Conflict, "Draft is locked")
		}

		if err := s.checkBudget(tx, investorTeamID, targetTeamID, amount); err != nil {
			return err
		}

		existing.Amount = amount
		if err := tx.Save(existing).Error; err != nil {
			return apperr.Wrap(err, "save draft")
		}
		row = *existing

		return audit.AppendLedger(tx, domain.LedgerDraftSaved, existing.ClusterID, &existing.InvestmentID, &investorTeamID, map[string]interface{}{
			"target_team_id": targetTeamID,
			"amount":         amount,
			"edited":         true,
		})
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MyInvestments returns all of a team's outgoing rows with their status.
func (s *Service) MyInvestments(ctx context.Context, investorTeamID uuid.UUID) ([]domain.Investment, error) {
	var rows []domain.Investment
	if err := s.DB.WithContext(ctx).
		Where("investor_team_id = ?", investorTeamID).
		Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(err, "load investments")
	}
	return rows, nil
}

func (s *Service) findPair(tx *gorm.DB, investorTeamID, targetTeamID uuid.UUID) (*domain.Investment, error) {
	var row domain.Investment
	err := tx.Where("investor_team_id = ? AND target_team_id = ?", investorTeamID, targetTeamID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "load investment")
	}
	return &row, nil
}

// checkBudget rejects the write when the investor's other outstanding rows
// plus the new amount would exceed its balance.
func (s *Service) checkBudget(tx *gorm.DB, investorTeamID, targetTeamID uuid.UUID, amount float64) error {
	var investor domain.Team
	if err := tx.Where("team_id = ?", investorTeamID).First(&investor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.New(apperr.NotFound, "Team not found")
		}
		return apperr.Wrap(err, "load team")
	}

	var otherTotal float64
	if err := tx.Model(&domain.Investment{}).
		Where("investor_team_id = ? AND target_team_id <> ? AND status <> ?",
			investorTeamID, targetTeamID, domain.InvestmentCommitted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&otherTotal).Error; err != nil {
		return apperr.Wrap(err, "sum drafts")
	}

	if otherTotal+amount > investor.Balance {
		return apperr.New(apperr.Rejected, "Insufficient budget for this draft")
	}
	return nil
}
