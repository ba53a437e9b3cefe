// Package validation verifies that required external services are reachable
// before the server starts taking traffic.
package validation

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/iknowaspot/backend/internal/cache"
	"github.com/iknowaspot/backend/internal/database"
	"github.com/iknowaspot/backend/internal/logger"
	"go.uber.org/zap"
)

// ServiceValidator handles validation of optional services
type ServiceValidator struct {
	requiredServices []string
}

// NewServiceValidator creates a new service validator
func NewServiceValidator() *ServiceValidator {
	return &ServiceValidator{
		requiredServices: parseRequiredServices(),
	}
}

// ValidateServices validates all configured services
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services",
		zap.Strings("services", sv.requiredServices),
	)

	services := sv.getServiceChecks()

	for _, serviceName := range sv.requiredServices {
		serviceChecker, ok := services[serviceName]
		if !ok {
			logger.Log.Warn("Unknown service type in validation",
				zap.String("service", serviceName),
			)
			continue
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := serviceChecker(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed",
				zap.String("service", serviceName),
				zap.Error(err),
			)
			return fmt.Errorf("required service '%s' validation failed: %w", serviceName, err)
		}

		logger.Log.Info("Service validated",
			zap.String("service", serviceName),
		)
	}

	return nil
}

// getServiceChecks returns a map of service names to their validation functions
func (sv *ServiceValidator) getServiceChecks() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"postgres": validatePostgres,
		"redis":    validateRedis,
		"places":   validatePlacesAPI,
	}
}

// validatePostgres checks if the database connection is healthy
func validatePostgres(ctx context.Context) error {
	return database.Health()
}

// validateRedis checks if Redis is reachable
func validateRedis(ctx context.Context) error {
	redisHost := os.Getenv("REDIS_HOST")
	redisPort := os.Getenv("REDIS_PORT")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	if redisHost == "" {
		redisHost = "localhost"
	}
	if redisPort == "" {
		redisPort = "6379"
	}

	redisClient, err := cache.NewRedisClient(redisHost, redisPort, redisPassword)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	return nil
}

// validatePlacesAPI checks if the places-search API is reachable.
// Any HTTP 200 counts as reachable regardless of the API status field.
func validatePlacesAPI(ctx context.Context) error {
	baseURL := os.Getenv("PLACES_API_URL")
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}

	client := &http.Client{Timeout: 10 * time.Second}

	url := fmt.Sprintf("%s/nearbysearch/json?location=0,0&radius=1&key=%s", baseURL, os.Getenv("PLACES_API_KEY"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create places health check request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to places API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places API returned status %d", resp.StatusCode)
	}

	return nil
}

// parseRequiredServices parses the IKNOWASPOT_REQUIRE_* environment variables.
// Returns a list of service names that are required.
func parseRequiredServices() []string {
	var required []string

	services := []string{"postgres", "redis", "places"}

	for _, service := range services {
		envVar := fmt.Sprintf("IKNOWASPOT_REQUIRE_%s", strings.ToUpper(service))
		if isTruthy(os.Getenv(envVar)) {
			required = append(required, service)
		}
	}

	return required
}

// isTruthy checks if a string value represents a truthy value
func isTruthy(value string) bool {
	if value == "" {
		return false
	}

	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
