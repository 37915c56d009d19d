package sla

import (
	"time"

	"github.com/fitdesk/support-service/internal/config"
	"github.com/fitdesk/support-service/internal/domain"
)

// FromConfig builds a threshold table from configured hour budgets.
// Non-positive values fall back to the defaults.
func FromConfig(cfg config.SlaConfig) Thresholds {
	defaults := DefaultThresholds()
	return Thresholds{
		domain.TicketPriorityCritical: override(defaults[domain.TicketPriorityCritical], cfg.Critical),
		domain.TicketPriorityHigh:     override(defaults[domain.TicketPriorityHigh], cfg.High),
		domain.TicketPriorityMedium:   override(defaults[domain.TicketPriorityMedium], cfg.Medium),
		domain.TicketPriorityLow:      override(defaults[domain.TicketPriorityLow], cfg.Low),
	}
}

func override(def Threshold, cfg config.SlaPriorityConfig) Threshold {
	out := def
	if cfg.ResponseHours > 0 {
		out.Response = time.Duration(cfg.ResponseHours) * time.Hour
	}
	if cfg.ResolutionHours > 0 {
		out.Resolution = time.Duration(cfg.ResolutionHours) * time.Hour
	}
	return out
}
