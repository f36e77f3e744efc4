package gasdb

import (
	"context"

	healthuc "github.com/surfcat/gasdb/internal/usecase/health"
)

// HealthStatus represents the aggregated store health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks every store component.
func (c *Client) Health(ctx context.Context) HealthStatus {
	return toHealthStatus(c.health.Check(ctx))
}

// Ping returns nil when every component is healthy.
func (c *Client) Ping(ctx context.Context) error {
	report := c.health.Check(ctx)
	if report.Status != healthuc.Healthy {
		return &UnhealthyError{Status: toHealthStatus(report)}
	}
	return nil
}

// UnhealthyError is returned by Ping when a component fails.
type UnhealthyError struct {
	Status HealthStatus
}

func (e *UnhealthyError) Error() string {
	return "gasdb: store is " + e.Status.Status
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

func toHealthStatus(report healthuc.Report) HealthStatus {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
