package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-intake/internal/api/dto"
	"github.com/spec-kit/project-intake/internal/persistence"
)

const readinessTimeout = 2 * time.Second

type probe struct {
	name string
	// inMemory marks a backend replaced by process-local state; it is
	// reported but never pinged.
	inMemory bool
	ping     func(context.Context) error
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	probes      []probe
}

// NewHealthHandler builds the probes. Postgres without a pool is reported as
// in-memory; Redis is always required because sessions live there.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		probes: []probe{
			{name: "postgres", inMemory: postgres.InMemory(), ping: postgres.Ping},
			{name: "sessions", ping: redis.Ping},
		},
	}
}

// LiveResponse is the body of GET /health/live.
type LiveResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ReadyResponse is the body of GET /health/ready.
type ReadyResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.Envelope[LiveResponse]{Data: LiveResponse{
		Status:  "alive",
		Service: h.serviceName,
		Version: h.version,
	}})
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	deps := make(map[string]string, len(h.probes))
	healthy := true
	for _, p := range h.probes {
		switch {
		case p.inMemory:
			deps[p.name] = "in-memory"
		case p.ping(ctx) != nil:
			deps[p.name] = "unavailable"
			healthy = false
		default:
			deps[p.name] = "ok"
		}
	}

	if !healthy {
		details := make(map[string]any, len(deps))
		for name, state := range deps {
			details[name] = state
		}
		return c.Status(http.StatusServiceUnavailable).JSON(dto.ErrorEnvelope{Error: dto.ErrorBody{
			Code:    "DEPENDENCY_UNAVAILABLE",
			Message: "one or more dependencies unavailable",
			Details: details,
		}})
	}
	return c.JSON(dto.Envelope[ReadyResponse]{Data: ReadyResponse{Status: "ready", Dependencies: deps}})
}
