package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/example/rebarflow/internal/core/normalize"
	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/ports/secondary"
	"github.com/example/rebarflow/pkg/logger"
)

// maxParallelDispatch caps concurrent dispatch workers after a commit.
const maxParallelDispatch = 4

// ApprovalServiceImpl implements the ApprovalService interface. The
// production graph is written in one repository transaction; dispatch
// runs afterwards, per task, so a machine assignment failure never
// unwinds an approval.
type ApprovalServiceImpl struct {
	sessionRepo  secondary.SessionRepository
	rowRepo      secondary.RowRepository
	issueRepo    secondary.IssueRepository
	approvalRepo secondary.ApprovalRepository
	dispatcher   primary.DispatchService
	audit        secondary.AuditLog
	log          *log.Logger
}

// NewApprovalService creates a new ApprovalService with injected dependencies.
func NewApprovalService(
	sessionRepo secondary.SessionRepository,
	rowRepo secondary.RowRepository,
	issueRepo secondary.IssueRepository,
	approvalRepo secondary.ApprovalRepository,
	dispatcher primary.DispatchService,
	audit secondary.AuditLog,
) *ApprovalServiceImpl {
	return &ApprovalServiceImpl{
		sessionRepo:  sessionRepo,
		rowRepo:      rowRepo,
		issueRepo:    issueRepo,
		approvalRepo: approvalRepo,
		dispatcher:   dispatcher,
		audit:        audit,
		log:          logger.New("approval"),
	}
}

// Approve runs the cascade for a validated session and auto-dispatches
// the new tasks.
func (s *ApprovalServiceImpl) Approve(ctx context.Context, sessionID string) (*primary.ApproveResponse, error) {
	record, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.rowRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	blockers, err := s.issueRepo.CountBlockers(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	guard := session.CanApprove(session.ApproveContext{
		Status:   record.Status,
		RowCount: len(rows),
		Blockers: blockers,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	graph := &secondary.ProductionGraph{Session: record}
	for _, row := range rows {
		graph.Items = append(graph.Items, rowToGraphItem(row))
	}

	ids, err := s.approvalRepo.CreateProductionGraph(ctx, graph)
	if err != nil {
		return nil, err
	}

	if ids.ProjectCreated {
		if err := s.audit.Event(ctx, "project", ids.ProjectID, "created",
			fmt.Sprintf("created from session %s", sessionID)); err != nil {
			return nil, fmt.Errorf("failed to record audit event: %w", err)
		}
	}

	if err := s.audit.Event(ctx, "session", sessionID, "approved",
		fmt.Sprintf("work order %s, %d items", ids.WorkOrderNumber, ids.ItemsApproved)); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	queued, pending := s.dispatchAll(ctx, ids.TaskIDs)

	return &primary.ApproveResponse{
		ProjectID:       ids.ProjectID,
		BarlistID:       ids.BarlistID,
		CustomerID:      ids.CustomerID,
		OrderID:         ids.OrderID,
		WorkOrderID:     ids.WorkOrderID,
		WorkOrderNumber: ids.WorkOrderNumber,
		CutPlanID:       ids.CutPlanID,
		ItemsApproved:   ids.ItemsApproved,
		TasksQueued:     queued,
		TasksPending:    pending,
	}, nil
}

// dispatchAll routes every new task in parallel. Each task is isolated: a
// dispatch failure leaves that task pending and the rest proceed.
func (s *ApprovalServiceImpl) dispatchAll(ctx context.Context, taskIDs []string) (queued, pending int) {
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDispatch)

	for _, taskID := range taskIDs {
		taskID := taskID
		g.Go(func() error {
			result, err := s.dispatcher.DispatchTask(ctx, taskID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				s.log.Printf("dispatch of %s failed, task left pending: %v", taskID, err)
				pending++
			case result.Skipped:
				s.log.Printf("dispatch of %s skipped: %s", taskID, result.Reason)
				pending++
			default:
				queued++
			}
			return nil
		})
	}

	// Workers never return errors; Wait just joins them.
	_ = g.Wait()
	return queued, pending
}

// rowToGraphItem classifies one mapped row for production. A mapped shape
// code means the bar is bent and needs a bend run; the setup key groups
// tasks that share machine tooling.
func rowToGraphItem(row *secondary.RowRecord) *secondary.GraphItem {
	grade := row.GradeMapped
	if grade == "" {
		grade = normalize.DefaultGrade
	}

	bent := row.ShapeCodeMapped != ""
	taskType := "cut"
	setup := row.BarSizeMapped + "|straight"
	if bent {
		taskType = "bend"
		setup = row.BarSizeMapped + "|bend"
	}

	return &secondary.GraphItem{
		SourceRowID: row.ID,
		Mark:        row.Mark,
		DrawingRef:  row.DrawingRef,
		Quantity:    row.Quantity,
		BarSize:     row.BarSizeMapped,
		Grade:       grade,
		ShapeCode:   row.ShapeCodeMapped,
		CutLength:   row.TotalLength,
		Dimensions:  row.Dimensions,
		Bent:        bent,
		TaskType:    taskType,
		SetupKey:    setup,
	}
}

// Ensure ApprovalServiceImpl implements the interface
var _ primary.ApprovalService = (*ApprovalServiceImpl)(nil)
