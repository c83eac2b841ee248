package ratelimit

import (
	"fmt"
	"time"

	"github.com/Proton-105/parfum-bot/pkg/config"
)

// Policy is the parsed rate_limit configuration.
type Policy struct {
	perUser  Rule
	commands map[string]Rule
	exempt   map[int64]struct{}
}

// NewPolicy parses windows up front so a bad duration fails at startup.
// A rule with a non-positive limit is disabled.
func NewPolicy(cfg config.RateLimitConfig) (*Policy, error) {
	p := &Policy{
		commands: make(map[string]Rule, len(cfg.Commands)),
		exempt:   make(map[int64]struct{}, len(cfg.Whitelist)),
	}

	var err error
	if cfg.PerUser.Limit > 0 {
		if p.perUser, err = parseRule(cfg.PerUser); err != nil {
			return nil, fmt.Errorf("rate_limit.per_user: %w", err)
		}
	}
	for name, raw := range cfg.Commands {
		if raw.Limit <= 0 {
			continue
		}
		rule, err := parseRule(raw)
		if err != nil {
			return nil, fmt.Errorf("rate_limit.commands.%s: %w", name, err)
		}
		p.commands[name] = rule
	}
	for _, id := range cfg.Whitelist {
		p.exempt[id] = struct{}{}
	}

	return p, nil
}

// Exempt reports whether chatID bypasses every rule.
func (p *Policy) Exempt(chatID int64) bool {
	_, ok := p.exempt[chatID]
	return ok
}

// PerUser returns the rule applied to every update of a chat.
func (p *Policy) PerUser() (Rule, bool) {
	return p.perUser, p.perUser.Limit > 0
}

// Command returns the extra rule for a slash command, if configured.
func (p *Policy) Command(name string) (Rule, bool) {
	rule, ok := p.commands[name]
	return rule, ok
}

func parseRule(raw config.RateLimitRule) (Rule, error) {
	window, err := time.ParseDuration(raw.Window)
	if err != nil {
		return Rule{}, fmt.Errorf("window %q: %w", raw.Window, err)
	}
	if window <= 0 {
		return Rule{}, fmt.Errorf("window must be positive, got %s", raw.Window)
	}
	return Rule{Limit: raw.Limit, Window: window}, nil
}
