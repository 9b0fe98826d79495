package audit

import (
	"encoding/json"

	"arena-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Append writes one audit row on the given handle. Callers inside a
// transaction pass the open tx so the row shares the transactional boundary.
func Append(tx *gorm.DB, eventType string, actorID, targetID *uuid.UUID, metadata map[string]interface{}) error {
	var payload datatypes.JSON
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(b)
	}
	return tx.Create(&domain.AuditLog{
		EventType: eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Metadata:  payload,
	}).Error
}

// AppendLedger writes one append-only economic event row.
func AppendLedger(tx *gorm.DB, eventType string, clusterID uuid.UUID, investmentID, actorTeamID *uuid.UUID, data map[string]interface{}) error {
	var payload datatypes.JSON
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(b)
	}
	return tx.Create(&domain.LedgerEvent{
		EventType:    eventType,
		InvestmentID: investmentID,
		ClusterID:    clusterID,
		ActorTeamID:  actorTeamID,
		EventData:    payload,
	}).Error
}
