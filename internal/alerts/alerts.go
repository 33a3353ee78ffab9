package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/bowerhall/parley/internal/logger"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarn:
		return "warn"
	default:
		return "info"
	}
}

// NotifyFunc delivers an alert to the operator.
type NotifyFunc func(message string)

// Alerter sends operator alerts, at most one per component and message per
// cooldown window.
type Alerter struct {
	mu        sync.Mutex
	notify    NotifyFunc
	cooldowns map[string]time.Time
	cooldown  time.Duration
	now       func() time.Time
}

func New(notify NotifyFunc, cooldown time.Duration) *Alerter {
	return &Alerter{
		notify:    notify,
		cooldowns: make(map[string]time.Time),
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Alert reports whether the alert was delivered.
func (a *Alerter) Alert(severity Severity, component, message string, err error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := component + ":" + message
	now := a.now()

	if lastSent, ok := a.cooldowns[key]; ok && now.Sub(lastSent) < a.cooldown {
		logger.Debug("alert suppressed (cooldown)", "component", component, "message", message)
		return false
	}

	var text string
	switch severity {
	case SeverityCritical:
		text = fmt.Sprintf("🚨 %s: %s", component, message)
	case SeverityWarn:
		text = fmt.Sprintf("⚠️ %s: %s", component, message)
	default:
		text = fmt.Sprintf("ℹ️ %s: %s", component, message)
	}

	if err != nil {
		text += fmt.Sprintf("\n\nError: %v", err)
	}

	if a.notify == nil {
		return false
	}

	a.notify(text)
	a.cooldowns[key] = now
	logger.Info("alert sent", "component", component, "severity", severity)

	return true
}

func (a *Alerter) Critical(component, message string, err error) bool {
	return a.Alert(SeverityCritical, component, message, err)
}

func (a *Alerter) Warn(component, message string, err error) bool {
	return a.Alert(SeverityWarn, component, message, err)
}

// SkillFailed raises a critical alert for a skill that broke mid-turn.
// Alerts are grouped per skill so one failing skill cannot flood the
// operator.
func (a *Alerter) SkillFailed(skillID string, err error) bool {
	return a.Critical("skill "+skillID, "turn failed", err)
}
