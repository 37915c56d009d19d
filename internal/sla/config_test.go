package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fitdesk/support-service/internal/config"
	"github.com/fitdesk/support-service/internal/domain"
)

func TestFromConfigOverridesBudgets(t *testing.T) {
	thresholds := FromConfig(config.SlaConfig{
		Critical: config.SlaPriorityConfig{ResponseHours: 1, ResolutionHours: 2},
		High:     config.SlaPriorityConfig{ResponseHours: 6},
	})

	assert.Equal(t, time.Hour, thresholds[domain.TicketPriorityCritical].Response)
	assert.Equal(t, 2*time.Hour, thresholds[domain.TicketPriorityCritical].Resolution)

	// Only the set field is overridden; the rest keep defaults.
	assert.Equal(t, 6*time.Hour, thresholds[domain.TicketPriorityHigh].Response)
	assert.Equal(t, 24*time.Hour, thresholds[domain.TicketPriorityHigh].Resolution)
	assert.Equal(t, 72*time.Hour, thresholds[domain.TicketPriorityMedium].Resolution)
}

func TestFromConfigZeroValuesKeepDefaults(t *testing.T) {
	thresholds := FromConfig(config.SlaConfig{})
	assert.Equal(t, DefaultThresholds(), thresholds)
}
