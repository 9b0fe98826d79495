package livesync

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	livesyncsvc "arena-backend/internal/application/livesync"
	"arena-backend/internal/middleware"
	"arena-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// Handlers holds dependencies for the snapshot and stream endpoints.
type Handlers struct {
	Service  *livesyncsvc.Service
	Interval time.Duration
}

// Snapshot GET /api/v1/clusters/:cluster_id/snapshot — one consistent view.
func (h *Handlers) Snapshot(c *fiber.Ctx) error {
	clusterID, err := uuid.Parse(c.Params("cluster_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}

	snap, err := h.Service.GetSnapshot(c.Context(), clusterID, viewerTeam(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Snapshot", snap, nil)
}

// Stream GET /api/v1/stream/:cluster_id — server-sent events emitting the
// snapshot on a fixed interval. The loop ends when the flush fails, i.e.
// the subscriber disconnected; nothing is buffered beyond the latest
// snapshot and the ticker is released on exit.
func (h *Handlers) Stream(c *fiber.Ctx) error {
	clusterID, err := uuid.Parse(c.Params("cluster_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for cluster_id", 400, nil)
	}
	viewerTeamID := viewerTeam(c)

	// Validate the cluster before hijacking the response into a stream.
	if _, err := h.Service.GetSnapshot(c.Context(), clusterID, viewerTeamID); err != nil {
		return response.FromError(c, err)
	}

	interval := h.Interval
	if interval <= 0 {
		interval = 3 * time.Second
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			snap, err := h.Service.GetSnapshot(context.Background(), clusterID, viewerTeamID)
			if err != nil {
				log.Error().Err(err).Str("cluster_id", clusterID.String()).Msg("stream snapshot failed")
				return
			}
			b, err := json.Marshal(snap)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				return
			}
			// Flush failure means the subscriber went away.
			if err := w.Flush(); err != nil {
				return
			}
			<-ticker.C
		}
	}))
	return nil
}

func viewerTeam(c *fiber.Ctx) *uuid.UUID {
	actor := middleware.ResolveActor(c)
	if actor == nil {
		return nil
	}
	return actor.TeamID
}
