package tool

import (
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

// defaultTimeLayout matches the reference format advertised in the tool
// description so agents can parse the result back deterministically.
const defaultTimeLayout = "2006-01-02 15:04:05"

// executeTimeNow reports the current wall-clock time. An optional "layout"
// argument selects a Go reference layout; a missing or empty layout falls
// back to the default.
func executeTimeNow(tool string, args map[string]any, now Clock) contractx.ToolResult {
	layout := defaultTimeLayout
	if raw, ok := args["layout"].(string); ok && raw != "" {
		layout = raw
	}
	return contractx.ToolResult{
		Tool:   tool,
		Result: now().Format(layout),
	}
}
