package livesync

import (
	"context"
	"testing"
	"time"

	"arena-backend/internal/application/market"
	"arena-backend/internal/domain"
	"arena-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLivesyncTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Cluster{}, &domain.Team{}, &domain.PitchSchedule{}, &domain.Investment{},
	))
	return &Service{DB: db, Market: &market.Service{DB: db}}, db
}

func seedSnapshotCluster(t *testing.T, db *gorm.DB) (*domain.Cluster, []domain.Team) {
	cluster := &domain.Cluster{Name: "Cluster A", Stage: domain.StagePitching, PitchDurationSeconds: 300}
	require.NoError(t, db.Create(cluster).Error)
	teams := make([]domain.Team, 0, 2)
	for _, name := range []string{"Alpha", "Beta"} {
		team := domain.Team{Name: name, ClusterID: &cluster.ClusterID, Balance: 100}
		require.NoError(t, db.Create(&team).Error)
		teams = append(teams, team)
	}
	return cluster, teams
}

func TestGetSnapshot_StageAndBiddingFields(t *testing.T) {
	svc, db := setupLivesyncTest(t)
	cluster, _ := seedSnapshotCluster(t, db)
	deadline := time.Now().Add(10 * time.Minute)
	require.NoError(t, db.Model(cluster).Updates(map[string]interface{}{
		"stage":            domain.StageBidding,
		"bidding_open":     true,
		"bidding_deadline": deadline,
	}).Error)

	snap, err := svc.GetSnapshot(context.Background(), cluster.ClusterID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StageBidding, snap.Stage)
	assert.True(t, snap.BiddingOpen)
	require.NotNil(t, snap.BiddingDeadline)
	assert.WithinDuration(t, deadline, *snap.BiddingDeadline, time.Second)
	assert.Nil(t, snap.ActivePitch)
	assert.Nil(t, snap.MyDrafts)
	require.NotNil(t, snap.Market)
	assert.True(t, snap.Market.Sealed)
	assert.WithinDuration(t, time.Now(), snap.GeneratedAt, 2*time.Second)
}

func TestGetSnapshot_ActivePitchTiming(t *testing.T) {
	svc, db := setupLivesyncTest(t)
	cluster, teams := seedSnapshotCluster(t, db)

	start := time.Now().Add(-90 * time.Second)
	row := &domain.PitchSchedule{
		ClusterID:       cluster.ClusterID,
		TeamID:          teams[0].TeamID,
		Position:        1,
		ScheduledStart:  start,
		DurationSeconds: 300,
		Status:          domain.PitchInProgress,
		ActualStart:     &start,
	}
	require.NoError(t, db.Create(row).Error)

	snap, err := svc.GetSnapshot(context.Background(), cluster.ClusterID, nil)
	require.NoError(t, err)
	require.NotNil(t, snap.ActivePitch)
	assert.Equal(t, row.ScheduleID, snap.ActivePitch.ScheduleID)
	assert.Equal(t, teams[0].TeamID, snap.ActivePitch.TeamID)
	assert.InDelta(t, 90, snap.ActivePitch.ElapsedSeconds, 2)
	assert.InDelta(t, 210, snap.ActivePitch.RemainingSeconds, 2)
	assert.False(t, snap.ActivePitch.Paused)
}

func TestGetSnapshot_PausedPitchFreezesClock(t *testing.T) {
	svc, db := setupLivesyncTest(t)
	cluster, teams := seedSnapshotCluster(t, db)

	start := time.Now().Add(-200 * time.Second)
	remaining := 240
	row := &domain.PitchSchedule{
		ClusterID:        cluster.ClusterID,
		TeamID:           teams[0].TeamID,
		Position:         1,
		ScheduledStart:   start,
		DurationSeconds:  300,
		Status:           domain.PitchInProgress,
		ActualStart:      &start,
		RemainingSeconds: &remaining,
	}
	require.NoError(t, db.Create(row).Error)

	snap, err := svc.GetSnapshot(context.Background(), cluster.ClusterID, nil)
	require.NoError(t, err)
	require.NotNil(t, snap.ActivePitch)
	assert.True(t, snap.ActivePitch.Paused)
	// Frozen at the stored remainder, not the wall clock
	assert.Equal(t, 60, snap.ActivePitch.ElapsedSeconds)
	assert.Equal(t, 240, snap.ActivePitch.RemainingSeconds)
}

func TestGetSnapshot_ViewerDraftsScoped(t *testing.T) {
	svc, db := setupLivesyncTest(t)
	cluster, teams := seedSnapshotCluster(t, db)

	require.NoError(t, db.Create(&domain.Investment{
		InvestorTeamID: teams[0].TeamID,
		TargetTeamID:   teams[1].TeamID,
		ClusterID:      cluster.ClusterID,
		Amount:         30,
		Status:         domain.InvestmentDraft,
	}).Error)
	require.NoError(t, db.Create(&domain.Investment{
		InvestorTeamID: teams[1].TeamID,
		TargetTeamID:   teams[0].TeamID,
		ClusterID:      cluster.ClusterID,
		Amount:         50,
		Status:         domain.InvestmentDraftLocked,
	}).Error)

	snap, err := svc.GetSnapshot(context.Background(), cluster.ClusterID, &teams[0].TeamID)
	require.NoError(t, err)
	require.Len(t, snap.MyDrafts, 1)
	assert.Equal(t, teams[1].TeamID, snap.MyDrafts[0].TargetTeamID)
	assert.Equal(t, 30.0, snap.MyDrafts[0].Amount)
	assert.Equal(t, domain.InvestmentDraft, snap.MyDrafts[0].Status)
}

func TestGetSnapshot_UnknownCluster(t *testing.T) {
	svc, _ := setupLivesyncTest(t)

	_, err := svc.GetSnapshot(context.Background(), uuid.New(), nil)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
