package app

import (
	"context"
	"fmt"

	"github.com/example/rebarflow/internal/core/normalize"
	"github.com/example/rebarflow/internal/ctxutil"
	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// RuleServiceImpl implements the RuleService interface.
type RuleServiceImpl struct {
	ruleRepo secondary.MappingRuleRepository
}

// NewRuleService creates a new RuleService with injected dependencies.
func NewRuleService(ruleRepo secondary.MappingRuleRepository) *RuleServiceImpl {
	return &RuleServiceImpl{ruleRepo: ruleRepo}
}

// AddRule creates or overwrites a rule for the tenant in context.
func (s *RuleServiceImpl) AddRule(ctx context.Context, req primary.AddRuleRequest) (*primary.MappingRule, error) {
	switch req.SourceField {
	case normalize.FieldBarSize, normalize.FieldGrade, normalize.FieldShape:
	default:
		return nil, fmt.Errorf("invalid source field %q", req.SourceField)
	}
	if req.SourceValue == "" {
		return nil, fmt.Errorf("source value is required")
	}

	record := &secondary.MappingRuleRecord{
		TenantID:    ctxutil.TenantFromContext(ctx),
		SourceField: req.SourceField,
		SourceValue: req.SourceValue,
		MappedValue: req.MappedValue,
	}

	if err := s.ruleRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	return &primary.MappingRule{
		ID:          record.ID,
		SourceField: record.SourceField,
		SourceValue: record.SourceValue,
		MappedValue: record.MappedValue,
	}, nil
}

// ListRules lists the tenant's rules.
func (s *RuleServiceImpl) ListRules(ctx context.Context) ([]*primary.MappingRule, error) {
	records, err := s.ruleRepo.ListByTenant(ctx, ctxutil.TenantFromContext(ctx))
	if err != nil {
		return nil, err
	}

	rules := make([]*primary.MappingRule, len(records))
	for i, r := range records {
		rules[i] = &primary.MappingRule{
			ID:          r.ID,
			SourceField: r.SourceField,
			SourceValue: r.SourceValue,
			MappedValue: r.MappedValue,
			IsAuto:      r.IsAuto,
			CreatedAt:   r.CreatedAt,
		}
	}
	return rules, nil
}

// DeleteRule removes a rule.
func (s *RuleServiceImpl) DeleteRule(ctx context.Context, ruleID string) error {
	return s.ruleRepo.Delete(ctx, ruleID)
}

// Ensure RuleServiceImpl implements the interface
var _ primary.RuleService = (*RuleServiceImpl)(nil)
