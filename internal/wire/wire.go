// Package wire provides dependency injection for the rebarflow
// application. It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	"github.com/example/rebarflow/internal/adapters/extraction"
	"github.com/example/rebarflow/internal/adapters/sqlite"
	"github.com/example/rebarflow/internal/app"
	"github.com/example/rebarflow/internal/config"
	"github.com/example/rebarflow/internal/db"
	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/ports/secondary"
)

var (
	pipelineService primary.PipelineService
	approvalService primary.ApprovalService
	dispatchService primary.DispatchService
	machineService  primary.MachineService
	ruleService     primary.RuleService
	auditLog        secondary.AuditLog
	cfg             *config.Config
	once            sync.Once
)

// PipelineService returns the singleton PipelineService instance.
func PipelineService() primary.PipelineService {
	once.Do(initServices)
	return pipelineService
}

// ApprovalService returns the singleton ApprovalService instance.
func ApprovalService() primary.ApprovalService {
	once.Do(initServices)
	return approvalService
}

// DispatchService returns the singleton DispatchService instance.
func DispatchService() primary.DispatchService {
	once.Do(initServices)
	return dispatchService
}

// MachineService returns the singleton MachineService instance.
func MachineService() primary.MachineService {
	once.Do(initServices)
	return machineService
}

// RuleService returns the singleton RuleService instance.
func RuleService() primary.RuleService {
	once.Do(initServices)
	return ruleService
}

// AuditLog returns the singleton audit log reader/writer.
func AuditLog() secondary.AuditLog {
	once.Do(initServices)
	return auditLog
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// ExtractionClient returns the configured extraction client: the HTTP
// collaborator when an endpoint is set, otherwise a local file reader.
func ExtractionClient() secondary.ExtractionClient {
	once.Do(initServices)
	if cfg.Extraction.URL != "" {
		return extraction.NewHTTPClient(cfg.Extraction.URL, cfg.Extraction.APIKey, cfg.Extraction.Timeout())
	}
	return extraction.NewFileReader()
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.Database.Path != "" {
		db.SetPath(cfg.Database.Path)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports)
	sessionRepo := sqlite.NewSessionRepository(database)
	rowRepo := sqlite.NewRowRepository(database)
	ruleRepo := sqlite.NewMappingRuleRepository(database)
	issueRepo := sqlite.NewIssueRepository(database)
	approvalRepo := sqlite.NewApprovalRepository(database)
	taskRepo := sqlite.NewProductionTaskRepository(database)
	machineRepo := sqlite.NewMachineRepository(database)
	queueRepo := sqlite.NewQueueRepository(database)
	auditLog = sqlite.NewAuditWriter(database)

	// Services (primary port implementations)
	pipelineService = app.NewPipelineService(sessionRepo, rowRepo, ruleRepo, issueRepo, auditLog)
	dispatchService = app.NewDispatchService(taskRepo, machineRepo, queueRepo, auditLog)
	approvalService = app.NewApprovalService(sessionRepo, rowRepo, issueRepo, approvalRepo, dispatchService, auditLog)
	machineService = app.NewMachineService(machineRepo, queueRepo, taskRepo)
	ruleService = app.NewRuleService(ruleRepo)
}
