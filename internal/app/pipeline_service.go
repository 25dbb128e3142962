// Package app contains the application services implementing the primary
// ports. Services hold business workflow; persistence and external calls
// go through the secondary ports.
package app

import (
	"context"
	"fmt"

	"github.com/example/rebarflow/internal/core/normalize"
	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/core/validate"
	"github.com/example/rebarflow/internal/ctxutil"
	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// PipelineServiceImpl implements the PipelineService interface.
type PipelineServiceImpl struct {
	sessionRepo secondary.SessionRepository
	rowRepo     secondary.RowRepository
	ruleRepo    secondary.MappingRuleRepository
	issueRepo   secondary.IssueRepository
	audit       secondary.AuditLog
}

// NewPipelineService creates a new PipelineService with injected dependencies.
func NewPipelineService(
	sessionRepo secondary.SessionRepository,
	rowRepo secondary.RowRepository,
	ruleRepo secondary.MappingRuleRepository,
	issueRepo secondary.IssueRepository,
	audit secondary.AuditLog,
) *PipelineServiceImpl {
	return &PipelineServiceImpl{
		sessionRepo: sessionRepo,
		rowRepo:     rowRepo,
		ruleRepo:    ruleRepo,
		issueRepo:   issueRepo,
		audit:       audit,
	}
}

// advance moves a session to a new status. CanAdvance is the single
// transition authority: the per-operation guards decide whether an
// operation may run, advance decides whether the resulting status write
// is a legal step.
func (s *PipelineServiceImpl) advance(ctx context.Context, record *secondary.SessionRecord, to string) error {
	if !session.CanAdvance(record.Status, to) {
		return fmt.Errorf("%w: session %s cannot move from %s to %s",
			session.ErrInvalidTransition, record.ID, record.Status, to)
	}
	return s.sessionRepo.UpdateStatus(ctx, record.ID, to)
}

// CreateSession registers an uploaded drawing submission.
func (s *PipelineServiceImpl) CreateSession(ctx context.Context, req primary.CreateSessionRequest) (*primary.CreateSessionResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if req.ManifestType != "" && req.ManifestType != "delivery" && req.ManifestType != "pickup" {
		return nil, fmt.Errorf("manifest type must be delivery or pickup, got %q", req.ManifestType)
	}

	nextID, err := s.sessionRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	record := &secondary.SessionRecord{
		ID:           nextID,
		TenantID:     ctxutil.TenantFromContext(ctx),
		Name:         req.Name,
		Customer:     req.Customer,
		SiteAddress:  req.SiteAddress,
		ManifestType: req.ManifestType,
		TargetETA:    req.TargetETA,
	}

	if err := s.sessionRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	created, err := s.sessionRepo.GetByID(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created session: %w", err)
	}

	if err := s.audit.Event(ctx, "session", nextID, "created", req.Name); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	return &primary.CreateSessionResponse{
		SessionID: created.ID,
		Session:   recordToSession(created),
	}, nil
}

// BeginExtraction marks the session as extracting before the collaborator
// is invoked.
func (s *PipelineServiceImpl) BeginExtraction(ctx context.Context, sessionID string) error {
	record, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if guard := session.CanBeginExtraction(record.Status); !guard.Allowed {
		return guard.Error()
	}

	if err := s.advance(ctx, record, session.StatusExtracting); err != nil {
		return err
	}

	return s.audit.Event(ctx, "session", sessionID, "extraction_started", "")
}

// RecordExtraction persists the collaborator's raw rows and advances the
// session to extracted. Recording again replaces the previous rows, so a
// retried extraction is safe.
func (s *PipelineServiceImpl) RecordExtraction(ctx context.Context, sessionID string, rows []primary.RowInput) error {
	record, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if guard := session.CanRecordExtraction(record.Status); !guard.Allowed {
		return guard.Error()
	}

	records := make([]*secondary.RowRecord, len(rows))
	for i, row := range rows {
		records[i] = &secondary.RowRecord{
			DrawingRef:   row.DrawingRef,
			Mark:         row.Mark,
			Quantity:     row.Quantity,
			BarSizeRaw:   row.BarSize,
			GradeRaw:     row.Grade,
			ShapeCodeRaw: row.ShapeCode,
			TotalLength:  row.TotalLength,
			Dimensions:   row.Dimensions,
		}
	}

	if err := s.rowRepo.ReplaceForSession(ctx, sessionID, records); err != nil {
		return err
	}

	if err := s.advance(ctx, record, session.StatusExtracted); err != nil {
		return err
	}

	return s.audit.Event(ctx, "session", sessionID, "rows_recorded", fmt.Sprintf("%d rows", len(rows)))
}

// ApplyMapping runs the normalizer over all rows of the session. Heuristic
// hits are captured as new auto rules so the tenant's table learns.
func (s *PipelineServiceImpl) ApplyMapping(ctx context.Context, sessionID string) (*primary.MappingResult, error) {
	record, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	count, err := s.rowRepo.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if guard := session.CanApplyMapping(record.Status, count); !guard.Allowed {
		return nil, guard.Error()
	}

	ruleRecords, err := s.ruleRepo.ListByTenant(ctx, record.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping rules: %w", err)
	}
	rules := normalize.NewRuleSet()
	for _, r := range ruleRecords {
		rules.Add(r.SourceField, r.SourceValue, r.MappedValue)
	}

	rows, err := s.rowRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &primary.MappingResult{}
	learned := map[string]bool{}

	for _, row := range rows {
		barSize := normalize.Resolve(rules, normalize.FieldBarSize, row.BarSizeRaw)
		grade := normalize.Resolve(rules, normalize.FieldGrade, row.GradeRaw)
		shape := normalize.Resolve(rules, normalize.FieldShape, row.ShapeCodeRaw)

		for _, hit := range []struct {
			field string
			raw   string
			res   normalize.Result
		}{
			{normalize.FieldBarSize, row.BarSizeRaw, barSize},
			{normalize.FieldGrade, row.GradeRaw, grade},
		} {
			if hit.res.Source != normalize.SourceHeuristic {
				continue
			}
			key := hit.field + "\x00" + hit.raw
			if learned[key] {
				continue
			}
			err := s.ruleRepo.Upsert(ctx, &secondary.MappingRuleRecord{
				TenantID:    record.TenantID,
				SourceField: hit.field,
				SourceValue: hit.raw,
				MappedValue: hit.res.Value,
				IsAuto:      true,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to capture auto rule: %w", err)
			}
			rules.Add(hit.field, hit.raw, hit.res.Value)
			learned[key] = true
			result.AutoMappingsCreated++
		}

		row.BarSizeMapped = barSize.Value
		row.GradeMapped = grade.Value
		row.ShapeCodeMapped = shape.Value
		row.Status = session.RowStatusMapped

		if err := s.rowRepo.UpdateMapped(ctx, row); err != nil {
			return nil, err
		}

		if normalize.IsCanonicalBarSize(barSize.Value) {
			result.MappedCount++
		}
	}

	// Re-running the normalizer on a validated session recomputes the
	// outputs but never moves the session backward.
	if record.Status != session.StatusValidated {
		if err := s.advance(ctx, record, session.StatusMapping); err != nil {
			return nil, err
		}
	}

	if err := s.audit.Event(ctx, "session", sessionID, "mapping_applied",
		fmt.Sprintf("%d of %d rows mapped", result.MappedCount, len(rows))); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	return result, nil
}

// Validate runs the rule engine over the session's mapped rows, replacing
// any previous issue snapshot. The session always reaches validated;
// blockers gate approval, not validation.
func (s *PipelineServiceImpl) Validate(ctx context.Context, sessionID string) (*primary.ValidationResult, error) {
	record, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.rowRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if guard := session.CanValidate(record.Status, len(rows)); !guard.Allowed {
		return nil, guard.Error()
	}

	inputs := make([]validate.RowInput, len(rows))
	for i, row := range rows {
		inputs[i] = validate.RowInput{
			RowID:       row.ID,
			Mark:        row.Mark,
			Quantity:    row.Quantity,
			BarSize:     row.BarSizeMapped,
			Grade:       row.GradeMapped,
			TotalLength: row.TotalLength,
		}
	}

	issues, summary := validate.Run(inputs)

	issueRecords := make([]*secondary.IssueRecord, len(issues))
	for i, issue := range issues {
		issueRecords[i] = &secondary.IssueRecord{
			RowID:    issue.RowID,
			Field:    issue.Field,
			Severity: issue.Severity,
			Message:  issue.Message,
		}
	}

	if err := s.issueRepo.ReplaceForSession(ctx, sessionID, issueRecords); err != nil {
		return nil, err
	}

	if err := s.advance(ctx, record, session.StatusValidated); err != nil {
		return nil, err
	}

	if err := s.audit.Event(ctx, "session", sessionID, "validated",
		fmt.Sprintf("%d blockers, %d warnings", summary.Blockers, summary.Warnings)); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	return &primary.ValidationResult{
		TotalRows:  summary.TotalRows,
		Blockers:   summary.Blockers,
		Warnings:   summary.Warnings,
		CanApprove: summary.CanApprove,
	}, nil
}

// Reject terminates the session without production side effects.
func (s *PipelineServiceImpl) Reject(ctx context.Context, req primary.RejectRequest) (*primary.RejectResponse, error) {
	record, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if guard := session.CanReject(record.Status); !guard.Allowed {
		return nil, guard.Error()
	}

	previous := record.Status

	if err := s.advance(ctx, record, session.StatusRejected); err != nil {
		return nil, err
	}
	if err := s.rowRepo.UpdateStatusBySession(ctx, req.SessionID, session.RowStatusRejected); err != nil {
		return nil, err
	}

	if err := s.audit.Event(ctx, "session", req.SessionID, "rejected", req.Reason); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	return &primary.RejectResponse{
		Status:         session.StatusRejected,
		PreviousStatus: previous,
	}, nil
}

// GetSession retrieves a session.
func (s *PipelineServiceImpl) GetSession(ctx context.Context, sessionID string) (*primary.Session, error) {
	record, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return recordToSession(record), nil
}

// ListSessions lists sessions for the tenant in context.
func (s *PipelineServiceImpl) ListSessions(ctx context.Context, filters primary.SessionFilters) ([]*primary.Session, error) {
	records, err := s.sessionRepo.List(ctx, secondary.SessionFilters{
		TenantID: ctxutil.TenantFromContext(ctx),
		Status:   filters.Status,
		Limit:    filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]*primary.Session, len(records))
	for i, r := range records {
		sessions[i] = recordToSession(r)
	}
	return sessions, nil
}

// GetSessionDetail retrieves a session with its rows and issues.
func (s *PipelineServiceImpl) GetSessionDetail(ctx context.Context, sessionID string) (*primary.SessionDetail, error) {
	record, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.rowRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	issues, err := s.issueRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	detail := &primary.SessionDetail{Session: recordToSession(record)}
	for _, row := range rows {
		detail.Rows = append(detail.Rows, &primary.Row{
			ID:              row.ID,
			DrawingRef:      row.DrawingRef,
			Mark:            row.Mark,
			Quantity:        row.Quantity,
			BarSizeRaw:      row.BarSizeRaw,
			GradeRaw:        row.GradeRaw,
			ShapeCodeRaw:    row.ShapeCodeRaw,
			TotalLength:     row.TotalLength,
			Dimensions:      row.Dimensions,
			BarSizeMapped:   row.BarSizeMapped,
			GradeMapped:     row.GradeMapped,
			ShapeCodeMapped: row.ShapeCodeMapped,
			Status:          row.Status,
		})
	}
	for _, issue := range issues {
		detail.Issues = append(detail.Issues, &primary.Issue{
			ID:       issue.ID,
			RowID:    issue.RowID,
			Field:    issue.Field,
			Severity: issue.Severity,
			Message:  issue.Message,
		})
	}

	return detail, nil
}

func recordToSession(r *secondary.SessionRecord) *primary.Session {
	return &primary.Session{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Name:         r.Name,
		Customer:     r.Customer,
		SiteAddress:  r.SiteAddress,
		ManifestType: r.ManifestType,
		TargetETA:    r.TargetETA,
		Status:       r.Status,
		BarlistID:    r.BarlistID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Ensure PipelineServiceImpl implements the interface
var _ primary.PipelineService = (*PipelineServiceImpl)(nil)
