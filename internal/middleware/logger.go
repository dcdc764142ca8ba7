package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// RequestLogger logs every request and its outcome through the echo logger
func RequestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		begin := time.Now()
		c.Logger().Debugf("< request %s %s", meth, path)

		var err error
		defer func() {
			c.Logger().Infof(
				"> %s %s status=%d in %v error=%v",
				meth, path, c.Response().Status, time.Since(begin), err,
			)
		}()

		err = next(c)
		return err
	}
}

// SetLevel applies a textual log level to the echo logger. Unknown levels
// fall back to warn.
func SetLevel(e *echo.Echo, loglevel string) {
	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "warn", "":
		e.Logger.SetLevel(log.WARN)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
