package drafts

import (
	"context"
	"testing"

	"arena-backend/internal/domain"
	"arena-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDraftTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Cluster{}, &domain.Team{}, &domain.Investment{},
		&domain.AuditLog{}, &domain.LedgerEvent{},
	))
	return &Service{DB: db}, db
}

// seedPitchingCluster creates a cluster in the pitching stage with the first
// team presenting, plus two potential investors.
func seedPitchingCluster(t *testing.T, db *gorm.DB) (*domain.Cluster, []domain.Team) {
	cluster := &domain.Cluster{Name: "Cluster A", Stage: domain.StagePitching, PitchDurationSeconds: 300}
	require.NoError(t, db.Create(cluster).Error)
	teams := make([]domain.Team, 0, 3)
	for _, name := range []string{"Presenter", "Investor One", "Investor Two"} {
		team := domain.Team{Name: name, ClusterID: &cluster.ClusterID, Balance: 100}
		require.NoError(t, db.Create(&team).Error)
		teams = append(teams, team)
	}
	cluster.CurrentPitchingTeamID = &teams[0].TeamID
	require.NoError(t, db.Save(cluster).Error)
	return cluster, teams
}

func TestSaveDraft_CreatesRow(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	row, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 60, cluster.ClusterID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, row.Amount)
	assert.Equal(t, domain.InvestmentDraft, row.Status)

	// Drafting never moves money
	var investor domain.Team
	require.NoError(t, db.First(&investor, "team_id = ?", teams[1].TeamID).Error)
	assert.Equal(t, 100.0, investor.Balance)

	var events []domain.LedgerEvent
	require.NoError(t, db.Where("event_type = ?", domain.LedgerDraftSaved).Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestSaveDraft_UpsertsSamePair(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	first, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 30, cluster.ClusterID)
	require.NoError(t, err)
	second, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 45, cluster.ClusterID)
	require.NoError(t, err)

	assert.Equal(t, first.InvestmentID, second.InvestmentID)
	assert.Equal(t, 45.0, second.Amount)

	var count int64
	require.NoError(t, db.Model(&domain.Investment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSaveDraft_BudgetAcrossTargets(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	// Earlier draft against another target already holds 60 of the 100 budget
	require.NoError(t, db.Create(&domain.Investment{
		InvestorTeamID: teams[1].TeamID,
		TargetTeamID:   teams[2].TeamID,
		ClusterID:      cluster.ClusterID,
		Amount:         60,
		Status:         domain.InvestmentDraftLocked,
	}).Error)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 50, cluster.ClusterID)
	require.Error(t, err)
	assert.Equal(t, apperr.Rejected, apperr.KindOf(err))

	row, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 40, cluster.ClusterID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, row.Amount)
}

func TestSaveDraft_RaisingOwnPairNotDoubleCounted(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 80, cluster.ClusterID)
	require.NoError(t, err)

	// Replacing 80 with 100 is fine; the old amount for the same pair does
	// not count against the new one.
	row, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 100, cluster.ClusterID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, row.Amount)
}

func TestSaveDraft_SelfInvestment(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	_, err := svc.SaveDraft(context.Background(), teams[0].TeamID, teams[0].TeamID, 10, cluster.ClusterID)
	require.Error(t, err)
	assert.Equal(t, apperr.Rejected, apperr.KindOf(err))
}

func TestSaveDraft_NonPositiveAmount(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 0, cluster.ClusterID)
	require.Error(t, err)
	assert.Equal(t, apperr.Rejected, apperr.KindOf(err))

	_, err = svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, -5, cluster.ClusterID)
	require.Error(t, err)
	assert.Equal(t, apperr.Rejected, apperr.KindOf(err))
}

func TestSaveDraft_TargetNotPitching(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	// Investor Two is not the presenting team
	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[2].TeamID, 10, cluster.ClusterID)
	require.Error(t, err)
	assert.Equal(t, apperr.Rejected, apperr.KindOf(err))
}

func TestSaveDraft_WrongStage(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)
	require.NoError(t, db.Model(cluster).Update("stage", domain.StageOnboarding).Error)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 10, cluster.ClusterID)
	require.Error(t, err)
	assert.Equal(t, apperr.Rejected, apperr.KindOf(err))
}

func TestSaveDraft_UnknownCluster(t *testing.T) {
	svc, db := setupDraftTest(t)
	_, teams := seedPitchingCluster(t, db)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 10, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func openBidding(t *testing.T, db *gorm.DB, cluster *domain.Cluster) {
	require.NoError(t, db.Model(cluster).Updates(map[string]interface{}{
		"stage":                    domain.StageBidding,
		"bidding_open":             true,
		"current_pitching_team_id": nil,
	}).Error)
}

func TestEditDraft_DuringOpenBidding(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 30, cluster.ClusterID)
	require.NoError(t, err)
	openBidding(t, db, cluster)

	row, err := svc.EditDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 55)
	require.NoError(t, err)
	assert.Equal(t, 55.0, row.Amount)
	assert.Equal(t, domain.InvestmentDraft, row.Status)
}

func TestEditDraft_LockedDraftStaysFrozen(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	row, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 30, cluster.ClusterID)
	require.NoError(t, err)
	require.NoError(t, db.Model(row).Update("status", domain.InvestmentDraftLocked).Error)
	openBidding(t, db, cluster)

	_, err = svc.EditDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 55)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	var fresh domain.Investment
	require.NoError(t, db.First(&fresh, "investment_id = ?", row.InvestmentID).Error)
	assert.Equal(t, 30.0, fresh.Amount)
}

func TestEditDraft_BiddingClosed(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 30, cluster.ClusterID)
	require.NoError(t, err)
	require.NoError(t, db.Model(cluster).Updates(map[string]interface{}{
		"stage":        domain.StageBidding,
		"bidding_open": false,
	}).Error)

	_, err = svc.EditDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 55)
	require.Error(t, err)
	assert.Equal(t, apperr.Rejected, apperr.KindOf(err))
}

func TestEditDraft_FinalizedInvestor(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 30, cluster.ClusterID)
	require.NoError(t, err)
	openBidding(t, db, cluster)
	require.NoError(t, db.Model(&domain.Team{}).
		Where("team_id = ?", teams[1].TeamID).
		Update("is_finalized", true).Error)

	_, err = svc.EditDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 55)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestEditDraft_MissingPair(t *testing.T) {
	svc, db := setupDraftTest(t)
	_, teams := seedPitchingCluster(t, db)

	_, err := svc.EditDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 55)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestMyInvestments(t *testing.T) {
	svc, db := setupDraftTest(t)
	cluster, teams := seedPitchingCluster(t, db)

	_, err := svc.SaveDraft(context.Background(), teams[1].TeamID, teams[0].TeamID, 30, cluster.ClusterID)
	require.NoError(t, err)
	_, err = svc.SaveDraft(context.Background(), teams[2].TeamID, teams[0].TeamID, 20, cluster.ClusterID)
	require.NoError(t, err)

	rows, err := svc.MyInvestments(context.Background(), teams[1].TeamID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, teams[0].TeamID, rows[0].TargetTeamID)
}
