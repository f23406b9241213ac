package health

import (
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/config"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/utils"
	"github.com/hellofresh/health-go/v5"
	healthHttp "github.com/hellofresh/health-go/v5/checks/http"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

const (
	ComponentName = "dine-in-preorder"
	Version       = "1.0.0"
)

// NewHealthHandler checks the backend that serves the catalog and orders, and
// redis when the catalog cache is on. The backend check is skippable: a down
// catalog degrades the BFF but does not make it unhealthy.
func NewHealthHandler(cfg *config.Config) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "backend",
			Timeout:   3 * time.Second,
			SkipOnErr: true,
			Check: healthHttp.New(healthHttp.Config{
				URL:            utils.JoinURL(cfg.Backend.BaseURL, "/restaurants"),
				RequestTimeout: 2 * time.Second,
			}),
		},
	}

	if cfg.Cache.Enabled || cfg.RateConfig.Enabled {
		checks = append(checks, health.Config{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: true,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    ComponentName,
			Version: Version,
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
