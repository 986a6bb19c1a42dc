package browser

import (
	"github.com/mssola/useragent"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/report"
)

// Environment describes the measured browser from its user agent and the
// applied throttling.
func Environment(userAgent string, cfg config.BrowserConfig) *report.Environment {
	env := &report.Environment{
		UserAgent:       userAgent,
		CPUThrottleRate: cfg.CPUThrottleRate,
		NetworkThrottle: cfg.ThrottleNetwork,
	}

	if userAgent != "" {
		ua := useragent.New(userAgent)
		env.Browser, env.BrowserVersion = ua.Browser()
		env.OS = ua.OS()
		env.Device = getDeviceType(ua)
	}

	return env
}

func getDeviceType(ua *useragent.UserAgent) string {
	if ua.Mobile() {
		return "mobile"
	}
	if ua.Bot() {
		return "bot"
	}
	return "desktop"
}
