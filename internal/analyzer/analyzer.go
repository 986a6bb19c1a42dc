package analyzer

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Issue texts emitted by Analyze. The leak issue is formatted with the
// add/remove counts.
const (
	IssueNoAnimationFrame = "No requestAnimationFrame found - may be using inefficient animation method"
	IssueListenerLeak     = "Potential memory leak: %d event listeners added but only %d removed"
	IssueDOMInLoop        = "DOM queries inside game loop - consider caching DOM elements"
	IssueCanvasClear      = "Using canvas.width = canvas.width to clear - less efficient than clearRect"
	IssueNoPreventDefault = "Missing preventDefault() in wheel or touch events - may cause page scrolling"
	IssueNoDebounce       = "Input events may not be debounced/throttled - could cause performance issues with rapid inputs"
)

var (
	addListenerRe    = regexp.MustCompile(`addEventListener\(['"](\w+)['"]`)
	removeListenerRe = regexp.MustCompile(`removeEventListener\(['"](\w+)['"]`)

	// Spans the whole document on purpose: any loop-ish name followed anywhere
	// later by a DOM lookup counts.
	domInLoopRe = regexp.MustCompile(`(?s)(draw|update|render).*?(getElementById|querySelector)`)
)

// rule inspects the page source and returns an issue, or "" when the rule
// does not fire.
type rule func(source string) string

var rules = []rule{
	checkAnimationLoop,
	checkListenerBalance,
	checkDOMInLoop,
	checkCanvasClear,
	checkPreventDefault,
	checkDebounce,
}

// Analyze runs every heuristic over the page source and returns the issues
// found, in rule order.
func Analyze(source string) []string {
	issues := []string{}
	for _, r := range rules {
		if issue := r(source); issue != "" {
			issues = append(issues, issue)
		}
	}
	return issues
}

// AnalyzeFile reads the page at path and analyzes it.
func AnalyzeFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game source: %w", err)
	}
	return Analyze(string(data)), nil
}

func checkAnimationLoop(source string) string {
	if strings.Contains(source, "requestAnimationFrame") {
		return ""
	}
	return IssueNoAnimationFrame
}

func checkListenerBalance(source string) string {
	added := len(addListenerRe.FindAllStringIndex(source, -1))
	removed := len(removeListenerRe.FindAllStringIndex(source, -1))
	if added <= removed {
		return ""
	}
	return fmt.Sprintf(IssueListenerLeak, added, removed)
}

func checkDOMInLoop(source string) string {
	if !domInLoopRe.MatchString(source) {
		return ""
	}
	return IssueDOMInLoop
}

// checkCanvasClear flags the width self-assignment idiom only when clearRect
// is absent. A page that never clears is not flagged.
func checkCanvasClear(source string) string {
	if strings.Contains(source, "clearRect") {
		return ""
	}
	if strings.Contains(source, "width = width") {
		return IssueCanvasClear
	}
	return ""
}

func checkPreventDefault(source string) string {
	if strings.Contains(source, "preventDefault") {
		return ""
	}
	if strings.Contains(source, "wheel") || strings.Contains(source, "touchmove") {
		return IssueNoPreventDefault
	}
	return ""
}

func checkDebounce(source string) string {
	if !strings.Contains(source, "wheel") && !strings.Contains(source, "scroll") {
		return ""
	}
	if strings.Contains(source, "setTimeout") || strings.Contains(source, "debounce") {
		return ""
	}
	return IssueNoDebounce
}
