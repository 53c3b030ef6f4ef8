package handler

import "innoflow/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Batch       *BatchHandler
	Project     *ProjectHandler
	Review      *ReviewHandler
	Workflow    *WorkflowHandler
	Assignment  *AssignmentHandler
	Expenditure *ExpenditureHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		User:        NewUserHandler(svc.User),
		Batch:       NewBatchHandler(svc.Batch, svc.Window),
		Project:     NewProjectHandler(svc.Project, svc.Phase, svc.User),
		Review:      NewReviewHandler(svc.Review, svc.Project, svc.Workflow, svc.User),
		Workflow:    NewWorkflowHandler(svc.Workflow),
		Assignment:  NewAssignmentHandler(svc.Assignment, svc.User),
		Expenditure: NewExpenditureHandler(svc.Expenditure, svc.User),
		Export:      NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
