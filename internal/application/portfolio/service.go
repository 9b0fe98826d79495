package portfolio

import (
	"context"
	"math"

	"arena-backend/internal/application/audit"
	"arena-backend/internal/domain"
	"arena-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Entry is one (target, amount) line of a portfolio.
type Entry struct {
	TargetTeamID uuid.UUID `json:"target_team_id"`
	Amount       float64   `json:"amount"`
}

// Result summarizes a successful commit.
type Result struct {
	InvestorTeamID uuid.UUID `json:"investor_team_id"`
	TotalInvested  float64   `json:"total_invested"`
	Balance        float64   `json:"balance"`
	Investments    int       `json:"investments"`
}

// Service converts a team's full draft set into permanently locked
// investments in one atomic transaction.
type Service struct {
	DB *gorm.DB
}

// CommitPortfolio finalizes the investor's portfolio. Either every row,
// counter and audit entry applies, or none do. Safe to retry only because a
// finalized investor is rejected with Conflict before any write.
func (s *Service) CommitPortfolio(ctx context.Context, investorTeamID, clusterID uuid.UUID, entries []Entry) (*Result, error) {
	if len(entries) == 0 {
		return nil, apperr.New(apperr.Rejected, "Investment list is empty")
	}
	seen := make(map[uuid.UUID]bool, len(entries))
	var total float64
	for _, e := range entries {
		if e.Amount <= 0 {
			return nil, apperr.New(apperr.Rejected, "Amount must be a positive number")
		}
		if e.TargetTeamID == investorTeamID {
			return nil, apperr.New(apperr.Rejected, "Teams cannot invest in themselves")
		}
		if seen[e.TargetTeamID] {
			return nil, apperr.New(apperr.Rejected, "Duplicate target team in investment list")
		}
		seen[e.TargetTeamID] = true
		total += e.Amount
	}
	total = round2(total)

	var result Result
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cluster domain.Cluster
		if err := tx.Where("cluster_id = ?", clusterID).First(&cluster).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.New(apperr.NotFound, "Cluster not found")
			}
			return apperr.Wrap(err, "load cluster")
		}
		if cluster.Stage != domain.StageBidding || !cluster.BiddingOpen {
			return apperr.New(apperr.Conflict, "Bidding is not open")
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
		if total > investor.Balance {
			return apperr.New(apperr.Rejected, "Insufficient budget to commit portfolio")
		}

		for _, e := range entries {
			var row domain.Investment
			err := tx.Where("investor_team_id = ? AND target_team_id = ?", investorTeamID, e.TargetTeamID).
				First(&row).Error
			if err == gorm.ErrRecordNotFound {
				row = domain.Investment{
					InvestorTeamID: investorTeamID,
					TargetTeamID:   e.TargetTeamID,
					ClusterID:      clusterID,
					Amount:         e.Amount,
					Status:         domain.InvestmentCommitted,
				}
				if err := tx.Create(&row).Error; err != nil {
					return apperr.Wrap(err, "create investment")
				}
			} else if err != nil {
				return apperr.Wrap(err, "load investment")
			} else {
				row.Amount = e.Amount
				row.Status = domain.InvestmentCommitted
				if err := tx.Save(&row).Error; err != nil {
					return apperr.Wrap(err, "save investment")
				}
			}
		}

		// Target totals are derived sums over committed rows, not running
		// deltas, so a commit never double-counts what an earlier row
		// already contributed.
		for target := range seen {
			var received float64
			if err := tx.Model(&domain.Investment{}).
				Where("target_team_id = ? AND status = ?", target, domain.InvestmentCommitted).
				Select("COALESCE(SUM(amount), 0)").
				Scan(&received).Error; err != nil {
				return apperr.Wrap(err, "sum received")
			}
			if err := tx.Model(&domain.Team{}).
				Where("team_id = ?", target).
				Update("total_received", round2(received)).Error; err != nil {
				return apperr.Wrap(err, "update target total")
			}
		}

		investor.Balance = round2(investor.Balance - total)
		investor.TotalInvested = round2(investor.TotalInvested + total)
		investor.IsFinalized = true
		if err := tx.Save(&investor).Error; err != nil {
			return apperr.Wrap(err, "save investor")
		}

		list := make([]map[string]interface{}, 0, len(entries))
		for _, e := range entries {
			list = append(list, map[string]interface{}{
				"target_team_id": e.TargetTeamID,
				"amount":         e.Amount,
			})
		}
		if err := audit.AppendLedger(tx, domain.LedgerPortfolioCommitted, clusterID, nil, &investorTeamID, map[string]interface{}{
			"total":       total,
			"investments": list,
		}); err != nil {
			return apperr.Wrap(err, "ledger event")
		}
		if err := audit.Append(tx, domain.AuditPortfolioCommitted, &investorTeamID, &clusterID, map[string]interface{}{
			"total":       total,
			"investments": list,
		}); err != nil {
			return apperr.Wrap(err, "audit log")
		}

		result = Result{
			InvestorTeamID: investorTeamID,
			TotalInvested:  investor.TotalInvested,
			Balance:        investor.Balance,
			Investments:    len(entries),
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			log.Error().Err(err).Str("investor_team_id", investorTeamID.String()).Msg("commit portfolio failed")
		}
		return nil, err
	}
	return &result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
