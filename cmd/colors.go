package cmd

import (
	"github.com/fatih/color"

	"github.com/ndhoang91/sitecheck-cli/internal/checker"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatOutcome(o checker.Outcome) string {
	switch o {
	case checker.OutcomePass:
		return colorSuccess("PASS")
	case checker.OutcomeFail:
		return colorError("FAIL")
	case checker.OutcomeWarn:
		return colorWarn("WARN")
	case checker.OutcomeSkip:
		return colorInfo("SKIP")
	default:
		return string(o)
	}
}
