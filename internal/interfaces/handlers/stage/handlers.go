package stage

import (
	"time"

	stagesvc "arena-backend/internal/application/stage"
	"arena-backend/internal/middleware"
	"arena-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for stage endpoints.
type Handlers struct {
	Service *stagesvc.Service
}

// AdvanceStage POST /api/v1/clusters/:cluster_id/advance-stage
func (h *Handlers) AdvanceStage(c *fiber.Ctx) error {
	clusterID, err := uuid.Parse(c.Params("cluster_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	var body struct {
		TargetStage string `json:"target_stage"`
		Reset       bool   `json:"reset"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "target_stage is required", 400, nil)
	}
	if body.TargetStage == "" {
		return response.Error(c, "target_stage is required", 400, nil)
	}

	actor := middleware.ResolveActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	cluster, err := h.Service.AdvanceStage(c.Context(), clusterID, body.TargetStage, body.Reset, actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stage updated", cluster, nil)
}

// OpenBidding POST /api/v1/clusters/:cluster_id/open-bidding
func (h *Handlers) OpenBidding(c *fiber.Ctx) error {
	clusterID, err := uuid.Parse(c.Params("cluster_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	var body struct {
		Deadline *string `json:"deadline"`
	}
	if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	var deadline *time.Time
	if body.Deadline != nil && *body.Deadline != "" {
		t, err := time.Parse(time.RFC3339, *body.Deadline)
		if err != nil {
			return response.Error(c, "Invalid deadline format, expected RFC3339", 400, nil)
		}
		deadline = &t
	}

	actor := middleware.ResolveActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	cluster, err := h.Service.OpenBidding(c.Context(), clusterID, deadline, actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Bidding opened", cluster, nil)
}

// CloseBidding POST /api/v1/clusters/:cluster_id/close-bidding
func (h *Handlers) CloseBidding(c *fiber.Ctx) error {
	clusterID, err := uuid.Parse(c.Params("cluster_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	actor := middleware.ResolveActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	cluster, err := h.Service.CloseBidding(c.Context(), clusterID, actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Bidding closed", cluster, nil)
}
