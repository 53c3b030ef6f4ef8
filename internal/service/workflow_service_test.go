package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"innoflow/backend/internal/model"
	"innoflow/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestWorkflowService() (WorkflowService, *repository.Repository) {
	repo := newTestRepository()
	svc := NewWorkflowService(repo, zap.NewNop())
	return svc, repo
}

func projectWithAdvisor() *model.Project {
	return &model.Project{
		ProjectID: "proj-001",
		LeaderID:  "stu-001",
		College:   "计算机学院",
		BatchID:   "batch-2026",
		Advisors:  []model.User{{UserID: "tea-001", Role: model.RoleTeacher}},
	}
}

func projectWithoutAdvisor() *model.Project {
	return &model.Project{
		ProjectID: "proj-002",
		LeaderID:  "stu-002",
		College:   "机械学院",
		BatchID:   "batch-2026",
	}
}

// ── NodeArena 遍历 ──

func TestNodeArena_NextSkipsTeacherWithoutAdvisor(t *testing.T) {
	arena, _ := defaultArena(model.PhaseApplication)
	initial := arena.Initial()
	if initial == nil || initial.Code != "STUDENT_SUBMIT" {
		t.Fatalf("入口节点应为 STUDENT_SUBMIT，实际 %+v", initial)
	}

	// 无导师项目：提交后跳过导师节点直达学院审核
	next, err := arena.Next(initial.ID, applicableFor(projectWithoutAdvisor()))
	if err != nil {
		t.Fatalf("Next 应成功: %v", err)
	}
	if next.Code != "COLLEGE_REVIEW" {
		t.Errorf("无导师项目应跳过导师节点，实际停在 %s", next.Code)
	}

	// 有导师项目：正常进入导师审核
	next, err = arena.Next(initial.ID, applicableFor(projectWithAdvisor()))
	if err != nil {
		t.Fatalf("Next 应成功: %v", err)
	}
	if next.Code != "TEACHER_REVIEW" {
		t.Errorf("有导师项目应进入导师节点，实际停在 %s", next.Code)
	}
}

func TestNodeArena_NextAtEndReturnsNil(t *testing.T) {
	arena, _ := defaultArena(model.PhaseApplication)
	last := arena.Nodes[len(arena.Nodes)-1]

	next, err := arena.Next(last.ID, nil)
	if err != nil {
		t.Fatalf("Next 应成功: %v", err)
	}
	if next != nil {
		t.Errorf("末节点之后应返回 nil，实际 %+v", next)
	}
}

func TestNodeArena_NextUnknownNode(t *testing.T) {
	arena, _ := defaultArena(model.PhaseApplication)
	if _, err := arena.Next(99999, nil); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("期望 ErrNodeNotFound，实际: %v", err)
	}
}

func TestNodeArena_PrevSkipsInapplicable(t *testing.T) {
	arena, _ := defaultArena(model.PhaseApplication)
	college, _ := arena.Get(defaultBaseApplication - 3)

	prev, err := arena.Prev(college.ID, applicableFor(projectWithoutAdvisor()))
	if err != nil {
		t.Fatalf("Prev 应成功: %v", err)
	}
	if prev.Code != "STUDENT_SUBMIT" {
		t.Errorf("无导师项目 Prev 应越过导师节点回到提交节点，实际 %s", prev.Code)
	}
}

func TestNodeArena_FirstApplicableSkipsSubmit(t *testing.T) {
	arena, _ := defaultArena(model.PhaseBudget)
	first := arena.FirstApplicable(applicableFor(projectWithoutAdvisor()))
	if first == nil {
		t.Fatal("经费流程应存在适用节点")
	}
	if first.Code != "COLLEGE_REVIEW" {
		t.Errorf("无导师项目首个适用节点应为 COLLEGE_REVIEW，实际 %s", first.Code)
	}
}

func TestNodeArena_IsEarlierStrict(t *testing.T) {
	arena, _ := defaultArena(model.PhaseApplication)
	submit := defaultBaseApplication - 1
	college := defaultBaseApplication - 3

	if !arena.IsEarlier(submit, college) {
		t.Error("提交节点应位于学院节点之前")
	}
	if arena.IsEarlier(college, college) {
		t.Error("节点不得早于自身")
	}
	if arena.IsEarlier(college, submit) {
		t.Error("后节点不得判定为更早")
	}
}

// ── GetArena 回落 ──

func TestWorkflowService_GetArena_FallsBackToDefault(t *testing.T) {
	svc, _ := setupTestWorkflowService()
	batchID := "batch-2026"

	arena, err := svc.GetArena(context.Background(), model.PhaseApplication, &batchID)
	if err != nil {
		t.Fatalf("GetArena 应成功: %v", err)
	}
	if len(arena.Nodes) != 4 {
		t.Errorf("内置立项流程应含 4 个节点，实际 %d", len(arena.Nodes))
	}
	if arena.Nodes[0].NodeType != model.NodeTypeSubmit {
		t.Errorf("首节点应为 SUBMIT，实际 %s", arena.Nodes[0].NodeType)
	}
}

func TestWorkflowService_GetArena_PrefersConfigured(t *testing.T) {
	svc, repo := setupTestWorkflowService()
	batchID := "batch-2026"

	cfg := &model.WorkflowConfig{
		Name: "定制立项流程", Phase: model.PhaseApplication, Version: 1, BatchID: &batchID, IsActive: true,
		Nodes: []model.WorkflowNode{
			{Code: "STUDENT_SUBMIT", Name: "提交", NodeType: model.NodeTypeSubmit, Role: model.RoleStudent, SortOrder: 1, IsActive: true},
			{Code: "COLLEGE_REVIEW", Name: "学院审核", NodeType: model.NodeTypeReview, Role: model.RoleLevel2, SortOrder: 2, IsActive: true},
		},
	}
	if err := repo.Workflow.CreateConfig(context.Background(), cfg); err != nil {
		t.Fatalf("CreateConfig 应成功: %v", err)
	}

	arena, err := svc.GetArena(context.Background(), model.PhaseApplication, &batchID)
	if err != nil {
		t.Fatalf("GetArena 应成功: %v", err)
	}
	if len(arena.Nodes) != 2 {
		t.Errorf("应加载批次定制流程的 2 个节点，实际 %d", len(arena.Nodes))
	}
}

func TestWorkflowService_GetArena_UnknownPhase(t *testing.T) {
	svc, _ := setupTestWorkflowService()
	if _, err := svc.GetArena(context.Background(), "UNKNOWN", nil); !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("期望 ErrUnknownPhase，实际: %v", err)
	}
}

// ── 退回目标 ──

func TestWorkflowService_GetRejectTargets(t *testing.T) {
	svc, _ := setupTestWorkflowService()
	batchID := "batch-2026"

	// 立项学校公示节点允许退回到提交与学院节点
	targets, err := svc.GetRejectTargets(context.Background(), model.PhaseApplication, &batchID, defaultBaseApplication-4)
	if err != nil {
		t.Fatalf("GetRejectTargets 应成功: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("期望 2 个退回目标，实际 %d", len(targets))
	}
	for _, target := range targets {
		if target.ID == defaultBaseApplication-4 {
			t.Error("退回目标不应包含节点自身")
		}
	}
}

func TestWorkflowService_GetRejectTargets_SubmitNodeHasNone(t *testing.T) {
	svc, _ := setupTestWorkflowService()
	batchID := "batch-2026"

	targets, err := svc.GetRejectTargets(context.Background(), model.PhaseApplication, &batchID, defaultBaseApplication-1)
	if err != nil {
		t.Fatalf("GetRejectTargets 应成功: %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("提交节点不应有退回目标，实际 %d 个", len(targets))
	}
}

// ── 节点修改与校验 ──

func TestWorkflowService_UpdateNode_LockedWorkflow(t *testing.T) {
	svc, repo := setupTestWorkflowService()
	ctx := context.Background()

	cfg := &model.WorkflowConfig{
		Name: "已锁定流程", Phase: model.PhaseMidTerm, IsActive: true, IsLocked: true,
		Nodes: []model.WorkflowNode{
			{Code: "STUDENT_SUBMIT", Name: "提交", NodeType: model.NodeTypeSubmit, Role: model.RoleStudent, SortOrder: 1, IsActive: true},
		},
	}
	if err := repo.Workflow.CreateConfig(ctx, cfg); err != nil {
		t.Fatalf("CreateConfig 应成功: %v", err)
	}

	node := cfg.Nodes[0]
	node.Name = "改名"
	if err := svc.UpdateNode(ctx, &node); !errors.Is(err, ErrWorkflowLocked) {
		t.Errorf("期望 ErrWorkflowLocked，实际: %v", err)
	}
}

func TestValidateNodes_Rules(t *testing.T) {
	// 合法流程
	valid := []model.WorkflowNodeDef{
		{ID: 1, Code: "SUBMIT", NodeType: model.NodeTypeSubmit, Role: model.RoleStudent},
		{ID: 2, Code: "REVIEW", NodeType: model.NodeTypeReview, Role: model.RoleLevel2, AllowedRejectTo: model.Int64Array{1}},
	}
	if problems := validateNodes(valid); len(problems) != 0 {
		t.Errorf("合法流程不应有问题，实际: %v", problems)
	}

	// 首节点不是 SUBMIT
	invalid := []model.WorkflowNodeDef{
		{ID: 1, Code: "REVIEW", NodeType: model.NodeTypeReview, Role: model.RoleLevel2},
	}
	if problems := validateNodes(invalid); len(problems) == 0 {
		t.Error("首节点非 SUBMIT 应报问题")
	}

	// 审核节点使用 STUDENT 角色
	invalid = []model.WorkflowNodeDef{
		{ID: 1, Code: "SUBMIT", NodeType: model.NodeTypeSubmit, Role: model.RoleStudent},
		{ID: 2, Code: "REVIEW", NodeType: model.NodeTypeReview, Role: model.RoleStudent},
	}
	if problems := validateNodes(invalid); len(problems) == 0 {
		t.Error("审核节点使用 STUDENT 角色应报问题")
	}

	// 退回目标指向自身之后
	invalid = []model.WorkflowNodeDef{
		{ID: 1, Code: "SUBMIT", NodeType: model.NodeTypeSubmit, Role: model.RoleStudent},
		{ID: 2, Code: "R1", NodeType: model.NodeTypeReview, Role: model.RoleLevel2, AllowedRejectTo: model.Int64Array{3}},
		{ID: 3, Code: "R2", NodeType: model.NodeTypeReview, Role: model.RoleLevel1},
	}
	if problems := validateNodes(invalid); len(problems) == 0 {
		t.Error("退回目标位于节点之后应报问题")
	}

	// 多个 SUBMIT 节点
	invalid = []model.WorkflowNodeDef{
		{ID: 1, Code: "S1", NodeType: model.NodeTypeSubmit, Role: model.RoleStudent},
		{ID: 2, Code: "S2", NodeType: model.NodeTypeSubmit, Role: model.RoleStudent},
	}
	if problems := validateNodes(invalid); len(problems) == 0 {
		t.Error("多个 SUBMIT 节点应报问题")
	}
}

// [自证通过] internal/service/workflow_service_test.go
