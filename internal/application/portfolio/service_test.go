package portfolio

import (
	"context"
	"errors"
	"testing"

	"arena-backend/internal/domain"
	"arena-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPortfolioTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Cluster{}, &domain.Team{}, &domain.Investment{},
		&domain.AuditLog{}, &domain.LedgerEvent{},
	))
	return &Service{DB: db}, db
}

// seedBiddingCluster creates a cluster with bidding open and three teams with
// a 100 balance each.
func seedBiddingCluster(t *testing.T, db *gorm.DB) (*domain.Cluster, []domain.Team) {
	cluster := &domain.Cluster{Name: "Cluster A", Stage: domain.StageBidding, BiddingOpen: true, PitchDurationSeconds: 300}
	require.NoError(t, db.Create(cluster).Error)
	teams := make([]domain.Team, 0, 3)
	for _, name := range []string{"Team A", "Team B", "Team C"} {
		team := domain.Team{Name: name, ClusterID: &cluster.ClusterID, Balance: 100}
		require.NoError(t, db.Create(&team).Error)
		teams = append(teams, team)
	}
	return cluster, teams
}

func TestCommitPortfolio_MovesMoneyOnce(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	cluster, teams := seedBiddingCluster(t, db)

	result, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[1].TeamID, Amount: 60},
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.Balance)
	assert.Equal(t, 60.0, result.TotalInvested)
	assert.Equal(t, 1, result.Investments)

	var investor, target domain.Team
	require.NoError(t, db.First(&investor, "team_id = ?", teams[0].TeamID).Error)
	require.NoError(t, db.First(&target, "team_id = ?", teams[1].TeamID).Error)
	assert.Equal(t, 40.0, investor.Balance)
	assert.True(t, investor.IsFinalized)
	assert.Equal(t, 60.0, target.TotalReceived)
	assert.Equal(t, 100.0, target.Balance)

	var rows []domain.Investment
	require.NoError(t, db.Where("investor_team_id = ?", teams[0].TeamID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.InvestmentCommitted, rows[0].Status)

	// Second commit must be refused, never applied twice
	_, err = svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[1].TeamID, Amount: 10},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	require.NoError(t, db.First(&investor, "team_id = ?", teams[0].TeamID).Error)
	assert.Equal(t, 40.0, investor.Balance)
}

func TestCommitPortfolio_UpgradesExistingDrafts(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	cluster, teams := seedBiddingCluster(t, db)

	require.NoError(t, db.Create(&domain.Investment{
		InvestorTeamID: teams[0].TeamID,
		TargetTeamID:   teams[1].TeamID,
		ClusterID:      cluster.ClusterID,
		Amount:         30,
		Status:         domain.InvestmentDraftLocked,
	}).Error)

	_, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[1].TeamID, Amount: 45},
		{TargetTeamID: teams[2].TeamID, Amount: 25},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.Investment{}).
		Where("investor_team_id = ?", teams[0].TeamID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	var pair domain.Investment
	require.NoError(t, db.First(&pair,
		"investor_team_id = ? AND target_team_id = ?", teams[0].TeamID, teams[1].TeamID).Error)
	assert.Equal(t, 45.0, pair.Amount)
	assert.Equal(t, domain.InvestmentCommitted, pair.Status)
}

func TestCommitPortfolio_TargetTotalsAreDerived(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	cluster, teams := seedBiddingCluster(t, db)

	_, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[2].TeamID, Amount: 40},
	})
	require.NoError(t, err)
	_, err = svc.CommitPortfolio(context.Background(), teams[1].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[2].TeamID, Amount: 35},
	})
	require.NoError(t, err)

	var target domain.Team
	require.NoError(t, db.First(&target, "team_id = ?", teams[2].TeamID).Error)
	assert.Equal(t, 75.0, target.TotalReceived)
}

func TestCommitPortfolio_OverBudget(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	cluster, teams := seedBiddingCluster(t, db)

	_, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[1].TeamID, Amount: 70},
		{TargetTeamID: teams[2].TeamID, Amount: 50},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Rejected, apperr.KindOf(err))

	var investor domain.Team
	require.NoError(t, db.First(&investor, "team_id = ?", teams[0].TeamID).Error)
	assert.Equal(t, 100.0, investor.Balance)
	assert.False(t, investor.IsFinalized)
}

func TestCommitPortfolio_InputValidation(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	cluster, teams := seedBiddingCluster(t, db)

	cases := []struct {
		name    string
		entries []Entry
	}{
		{"empty list", nil},
		{"non-positive amount", []Entry{{TargetTeamID: teams[1].TeamID, Amount: 0}}},
		{"self investment", []Entry{{TargetTeamID: teams[0].TeamID, Amount: 10}}},
		{"duplicate target", []Entry{
			{TargetTeamID: teams[1].TeamID, Amount: 10},
			{TargetTeamID: teams[1].TeamID, Amount: 20},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, tc.entries)
			require.Error(t, err)
			assert.Equal(t, apperr.Rejected, apperr.KindOf(err))
		})
	}
}

func TestCommitPortfolio_BiddingNotOpen(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	cluster, teams := seedBiddingCluster(t, db)
	require.NoError(t, db.Model(cluster).Update("bidding_open", false).Error)

	_, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[1].TeamID, Amount: 10},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestCommitPortfolio_UnknownCluster(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	_, teams := seedBiddingCluster(t, db)

	_, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, uuid.New(), []Entry{
		{TargetTeamID: teams[1].TeamID, Amount: 10},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCommitPortfolio_RollsBackOnLateFailure(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	cluster, teams := seedBiddingCluster(t, db)

	// Fail the audit-log insert, the last write in the transaction, and check
	// that every earlier write is rolled back with it.
	require.NoError(t, db.Callback().Create().After("gorm:create").
		Register("force_audit_failure", func(d *gorm.DB) {
			if d.Statement.Table == "AuditLogs" {
				d.AddError(errors.New("injected failure"))
			}
		}))

	_, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[1].TeamID, Amount: 60},
	})
	require.Error(t, err)

	var investor, target domain.Team
	require.NoError(t, db.First(&investor, "team_id = ?", teams[0].TeamID).Error)
	require.NoError(t, db.First(&target, "team_id = ?", teams[1].TeamID).Error)
	assert.Equal(t, 100.0, investor.Balance)
	assert.False(t, investor.IsFinalized)
	assert.Equal(t, 0.0, target.TotalReceived)

	var count int64
	require.NoError(t, db.Model(&domain.Investment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCommitPortfolio_RoundsToCents(t *testing.T) {
	svc, db := setupPortfolioTest(t)
	cluster, teams := seedBiddingCluster(t, db)

	result, err := svc.CommitPortfolio(context.Background(), teams[0].TeamID, cluster.ClusterID, []Entry{
		{TargetTeamID: teams[1].TeamID, Amount: 33.335},
		{TargetTeamID: teams[2].TeamID, Amount: 33.335},
	})
	require.NoError(t, err)
	assert.Equal(t, 66.67, result.TotalInvested)
	assert.Equal(t, 33.33, result.Balance)
}
