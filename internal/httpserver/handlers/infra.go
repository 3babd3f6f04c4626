package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/linknest/linknest/internal/httpserver/deps"
)

type componentStatus struct {
	OK           bool   `json:"ok"`
	OpenSessions *int   `json:"open_sessions,omitempty"`
	Mode         string `json:"mode,omitempty"`
	Impact       string `json:"impact,omitempty"`
	Error        string `json:"error,omitempty"`
}

type infraResponse struct {
	ServiceMode string                     `json:"service_mode"`
	Components  map[string]componentStatus `json:"components"`
}

// Infra exposes a component-level status view for dashboards: Redis
// reachability and the number of open owner sessions.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		sessions := 0
		if d.Manager != nil {
			sessions = len(d.Manager.Engines())
		}

		redisStatus := checkRedis(d)

		components := map[string]componentStatus{
			"redis": redisStatus,
			"sessions": {
				OK:           true,
				OpenSessions: &sessions,
			},
		}

		response := infraResponse{
			ServiceMode: determineServiceMode(components),
			Components:  components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineServiceMode(components map[string]componentStatus) string {
	// Redis down means no persistence and no change feed.
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "critical"
	}
	return "operational"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "down",
			Impact: "persistence-and-feed-disabled",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "down",
			Impact: "persistence-and-feed-disabled",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "none",
		Error:  "none",
	}
}
