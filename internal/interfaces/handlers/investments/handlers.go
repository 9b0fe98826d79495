package investments

import (
	draftsvc "arena-backend/internal/application/drafts"
	portfoliosvc "arena-backend/internal/application/portfolio"
	"arena-backend/internal/middleware"
	"arena-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for investment endpoints. All operations are
// scoped to the caller's own team, resolved from the session.
type Handlers struct {
	Drafts    *draftsvc.Service
	Portfolio *portfoliosvc.Service
}

// SaveDraft POST /api/v1/investments/save-draft
func (h *Handlers) SaveDraft(c *fiber.Ctx) error {
	var body struct {
		TargetTeamID string  `json:"target_team_id"`
		ClusterID    string  `json:"cluster_id"`
		Amount       float64 `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "target_team_id, cluster_id and amount are required", 400, nil)
	}
	if body.TargetTeamID == "" || body.ClusterID == "" || body.Amount == 0 {
		return response.Error(c, "target_team_id, cluster_id and amount are required", 400, nil)
	}
	targetTeamID, err := uuid.Parse(body.TargetTeamID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for target_team_id", 400, nil)
	}
	clusterID, err := uuid.Parse(body.ClusterID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	investorTeamID, ok := callerTeam(c)
	if !ok {
		return response.Error(c, "User not associated with a team", 403, nil)
	}

	row, err := h.Drafts.SaveDraft(c.Context(), investorTeamID, targetTeamID, body.Amount, clusterID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Draft saved", row, nil)
}

// EditDraft POST /api/v1/investments/edit-draft
func (h *Handlers) EditDraft(c *fiber.Ctx) error {
	var body struct {
		TargetTeamID string  `json:"target_team_id"`
		Amount       float64 `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "target_team_id and amount are required", 400, nil)
	}
	if body.TargetTeamID == "" || body.Amount == 0 {
		return response.Error(c, "target_team_id and amount are required", 400, nil)
	}
	targetTeamID, err := uuid.Parse(body.TargetTeamID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for target_team_id", 400, nil)
	}

	investorTeamID, ok := callerTeam(c)
	if !ok {
		return response.Error(c, "User not associated with a team", 403, nil)
	}

	row, err := h.Drafts.EditDraft(c.Context(), investorTeamID, targetTeamID, body.Amount)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Draft updated", row, nil)
}

// CommitPortfolio POST /api/v1/investments/commit-portfolio
func (h *Handlers) CommitPortfolio(c *fiber.Ctx) error {
	var body struct {
		ClusterID   string `json:"cluster_id"`
		Investments []struct {
			TargetTeamID string  `json:"target_team_id"`
			Amount       float64 `json:"amount"`
		} `json:"investments"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "cluster_id and investments are required", 400, nil)
	}
	if body.ClusterID == "" || len(body.Investments) == 0 {
		return response.Error(c, "cluster_id and investments are required", 400, nil)
	}
	clusterID, err := uuid.Parse(body.ClusterID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	entries := make([]portfoliosvc.Entry, 0, len(body.Investments))
	for _, inv := range body.Investments {
		targetTeamID, err := uuid.Parse(inv.TargetTeamID)
		if err != nil {
			return response.Error(c, "Invalid UUID format for target_team_id", 400, nil)
		}
		entries = append(entries, portfoliosvc.Entry{
			TargetTeamID: targetTeamID,
			Amount:       inv.Amount,
		})
	}

	investorTeamID, ok := callerTeam(c)
	if !ok {
		return response.Error(c, "User not associated with a team", 403, nil)
	}

	result, err := h.Portfolio.CommitPortfolio(c.Context(), investorTeamID, clusterID, entries)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Portfolio committed", result, nil)
}

// Mine GET /api/v1/investments/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	investorTeamID, ok := callerTeam(c)
	if !ok {
		return response.Error(c, "User not associated with a team", 403, nil)
	}
	rows, err := h.Drafts.MyInvestments(c.Context(), investorTeamID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Investments", rows, nil)
}

func callerTeam(c *fiber.Ctx) (uuid.UUID, bool) {
	actor := middleware.ResolveActor(c)
	if actor == nil || actor.TeamID == nil {
		return uuid.Nil, false
	}
	return *actor.TeamID, true
}
