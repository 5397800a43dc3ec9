package models

import "time"

// DecisionStatus enumerates the terminal outcomes of routing a signal.
type DecisionStatus string

const (
	StatusDryRun           DecisionStatus = "dry_run"
	StatusSubmittedEquity  DecisionStatus = "submitted_equity"
	StatusSubmittedOption  DecisionStatus = "submitted_option"
	StatusFallbackEquity   DecisionStatus = "fallback_equity"
	StatusDuplicateIgnored DecisionStatus = "duplicate_ignored"
	StatusIgnoredNeutral   DecisionStatus = "ignored_neutral"
)

// Decision is the router's output: one per admitted signal.
type Decision struct {
	Status    DecisionStatus `json:"status"`
	Symbol    string         `json:"symbol"`
	Side      OrderSide      `json:"side,omitempty"`
	Product   ProductKind    `json:"product,omitempty"`
	Quantity  int            `json:"quantity,omitempty"`
	OrderID   string         `json:"order_id,omitempty"`
	Result    string         `json:"result,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Contract  string         `json:"contract,omitempty"`
	DecidedAt time.Time      `json:"decided_at"`
}
