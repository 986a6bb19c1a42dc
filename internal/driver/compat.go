package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosight/gameperf/internal/report"
)

const probeScript = `(function () {
  var canvas = document.createElement('canvas');
  return {
    features: {
      requestAnimationFrame: typeof window.requestAnimationFrame === 'function',
      canvas2D: !!(canvas.getContext && canvas.getContext('2d')),
      addEventListener: typeof window.addEventListener === 'function',
      preventDefault: typeof new Event('probe').preventDefault === 'function'
    },
    body: document.body ? document.body.innerHTML : ''
  };
})()`

var vendorPrefixes = []string{"webkit", "moz", "ms"}

type probeResult struct {
	Features map[string]bool `json:"features"`
	Body     string          `json:"body"`
}

// ProbeCompatibility checks the browser features the game relies on and scans
// the page body for polyfills and vendor-prefixed APIs.
func (d *Driver) ProbeCompatibility(ctx context.Context) (*report.Compatibility, error) {
	var res probeResult
	if err := d.page.Evaluate(ctx, probeScript, &res); err != nil {
		return nil, fmt.Errorf("probe compatibility: %w", err)
	}
	return ScanCompatibility(res.Features, res.Body), nil
}

// ScanCompatibility builds the probe result from feature flags and page
// markup.
func ScanCompatibility(features map[string]bool, body string) *report.Compatibility {
	c := &report.Compatibility{
		Passed:         true,
		Features:       map[string]bool{},
		Polyfills:      strings.Contains(body, "polyfill"),
		Fallbacks:      strings.Contains(body, "fallback"),
		VendorPrefixes: []string{},
	}

	for name, ok := range features {
		c.Features[name] = ok
		if !ok {
			c.Passed = false
		}
	}
	if len(features) == 0 {
		c.Passed = false
	}

	for _, prefix := range vendorPrefixes {
		if strings.Contains(body, prefix) {
			c.VendorPrefixes = append(c.VendorPrefixes, prefix)
		}
	}
	return c
}
