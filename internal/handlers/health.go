package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthCheck reports whether the service and its database are reachable
func HealthCheck(db *gorm.DB) echo.HandlerFunc {
	return func(e echo.Context) error {
		status := map[string]string{
			"status":  "healthy",
			"service": "yatube",
		}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(e.Request().Context())
		}
		if err != nil {
			e.Logger().Errorf("health check: %v", err)
			status["status"] = "unhealthy"
			return e.JSON(http.StatusServiceUnavailable, status)
		}
		return e.JSON(http.StatusOK, status)
	}
}
