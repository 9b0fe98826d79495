package market

import (
	marketsvc "arena-backend/internal/application/market"
	"arena-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for market endpoints.
type Handlers struct {
	Service *marketsvc.Service
}

// GetValuations GET /api/v1/market/:cluster_id/valuations — sealed until
// every team in the cluster has committed.
func (h *Handlers) GetValuations(c *fiber.Ctx) error {
	clusterID, err := uuid.Parse(c.Params("cluster_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	result, err := h.Service.GetValuations(c.Context(), clusterID)
	if err != nil {
		return response.FromError(c, err)
	}
	message := "Valuations"
	if result.Sealed {
		message = "Valuations not yet available"
	}
	return response.Success(c, message, result, nil)
}
