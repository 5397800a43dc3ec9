package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"signal-router/internal/models"
)

// TerminalNotifier prints decision summaries to the terminal.
type TerminalNotifier struct {
	out io.Writer
}

// NewTerminalNotifier creates a terminal notifier writing to stdout.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{out: os.Stdout}
}

// NotifyDecision implements Notifier.
func (t *TerminalNotifier) NotifyDecision(_ context.Context, d *models.Decision) error {
	paint := colorFor(d.Status)

	line := fmt.Sprintf("[%s] %s", d.Status, d.Symbol)
	if d.Side != "" {
		line += fmt.Sprintf(" %s x%d", d.Side, d.Quantity)
	}
	if d.Contract != "" {
		line += " " + d.Contract
	}
	if d.OrderID != "" {
		line += " order=" + d.OrderID
	}
	if d.Reason != "" {
		line += " reason=" + d.Reason
	}

	_, err := fmt.Fprintln(t.out, paint(line))
	return err
}

func colorFor(status models.DecisionStatus) func(a ...interface{}) string {
	switch status {
	case models.StatusSubmittedEquity, models.StatusSubmittedOption:
		return color.New(color.FgGreen).SprintFunc()
	case models.StatusFallbackEquity:
		return color.New(color.FgYellow).SprintFunc()
	case models.StatusDryRun:
		return color.New(color.FgCyan).SprintFunc()
	default:
		return color.New(color.Faint).SprintFunc()
	}
}

var _ Notifier = (*TerminalNotifier)(nil)
