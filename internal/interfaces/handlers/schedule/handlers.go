package schedule

import (
	schedsvc "arena-backend/internal/application/schedule"
	"arena-backend/internal/middleware"
	"arena-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for schedule endpoints.
type Handlers struct {
	Service *schedsvc.Service
}

// EnsureSchedule POST /api/v1/schedule/:cluster_id/ensure
func (h *Handlers) EnsureSchedule(c *fiber.Ctx) error {
	clusterID, err := uuid.Parse(c.Params("cluster_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	rows, err := h.Service.EnsureSchedule(c.Context(), clusterID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Schedule ready", rows, nil)
}

// ListSchedule GET /api/v1/schedule/:cluster_id
func (h *Handlers) ListSchedule(c *fiber.Ctx) error {
	clusterID, err := uuid.Parse(c.Params("cluster_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	rows, err := h.Service.ListSchedule(c.Context(), clusterID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Schedule", rows, nil)
}

type pitchActionBody struct {
	ScheduleID string `json:"schedule_id"`
	TeamID     string `json:"team_id"`
	ClusterID  string `json:"cluster_id"`
}

// StartPitch POST /api/v1/schedule/start-pitch
func (h *Handlers) StartPitch(c *fiber.Ctx) error {
	var body pitchActionBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "schedule_id, team_id and cluster_id are required", 400, nil)
	}
	scheduleID, teamID, clusterID, ok := parseIDs(body.ScheduleID, body.TeamID, body.ClusterID)
	if !ok {
		return response.Error(c, "schedule_id, team_id and cluster_id are required", 400, nil)
	}

	actor := middleware.ResolveActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	row, err := h.Service.StartPitch(c.Context(), scheduleID, teamID, clusterID, actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pitch started", row, nil)
}

// EndPitch POST /api/v1/schedule/end-pitch
func (h *Handlers) EndPitch(c *fiber.Ctx) error {
	var body pitchActionBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "schedule_id, team_id and cluster_id are required", 400, nil)
	}
	scheduleID, teamID, clusterID, ok := parseIDs(body.ScheduleID, body.TeamID, body.ClusterID)
	if !ok {
		return response.Error(c, "schedule_id, team_id and cluster_id are required", 400, nil)
	}

	actor := middleware.ResolveActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	row, err := h.Service.EndPitch(c.Context(), scheduleID, clusterID, teamID, actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pitch ended", row, nil)
}

// SkipPitch POST /api/v1/schedule/skip-pitch
func (h *Handlers) SkipPitch(c *fiber.Ctx) error {
	var body struct {
		ScheduleID string `json:"schedule_id"`
		ClusterID  string `json:"cluster_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "schedule_id and cluster_id are required", 400, nil)
	}
	scheduleID, err := uuid.Parse(body.ScheduleID)
	if err != nil {
		return response.Error(c, "schedule_id and cluster_id are required", 400, nil)
	}
	clusterID, err := uuid.Parse(body.ClusterID)
	if err != nil {
		return response.Error(c, "schedule_id and cluster_id are required", 400, nil)
	}

	actor := middleware.ResolveActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	row, err := h.Service.SkipPitch(c.Context(), scheduleID, clusterID, actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pitch skipped", row, nil)
}

// PausePitch POST /api/v1/schedule/pause-pitch
func (h *Handlers) PausePitch(c *fiber.Ctx) error {
	scheduleID, ok := parseScheduleID(c)
	if !ok {
		return response.Error(c, "schedule_id is required", 400, nil)
	}
	row, err := h.Service.PausePitch(c.Context(), scheduleID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pitch paused", row, nil)
}

// ResumePitch POST /api/v1/schedule/resume-pitch
func (h *Handlers) ResumePitch(c *fiber.Ctx) error {
	scheduleID, ok := parseScheduleID(c)
	if !ok {
		return response.Error(c, "schedule_id is required", 400, nil)
	}
	row, err := h.Service.ResumePitch(c.Context(), scheduleID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pitch resumed", row, nil)
}

func parseScheduleID(c *fiber.Ctx) (uuid.UUID, bool) {
	var body struct {
		ScheduleID string `json:"schedule_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(body.ScheduleID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseIDs(scheduleID, teamID, clusterID string) (uuid.UUID, uuid.UUID, uuid.UUID, bool) {
	s, err := uuid.Parse(scheduleID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	t, err := uuid.Parse(teamID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	cl, err := uuid.Parse(clusterID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return s, t, cl, true
}
