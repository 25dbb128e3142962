package primary

import "context"

// RuleService manages the tenant's mapping-rule table. Human-authored
// rules enter here; auto rules are captured by the normalizer itself.
type RuleService interface {
	// AddRule creates or overwrites a rule for the tenant in context.
	AddRule(ctx context.Context, req AddRuleRequest) (*MappingRule, error)

	// ListRules lists the tenant's rules.
	ListRules(ctx context.Context) ([]*MappingRule, error)

	// DeleteRule removes a rule.
	DeleteRule(ctx context.Context, ruleID string) error
}

// AddRuleRequest creates a mapping rule.
type AddRuleRequest struct {
	SourceField string // bar_size | grade | shape_code
	SourceValue string
	MappedValue string
}

// MappingRule is the primary-port view of a mapping rule.
type MappingRule struct {
	ID          string
	SourceField string
	SourceValue string
	MappedValue string
	IsAuto      bool
	CreatedAt   string
}
