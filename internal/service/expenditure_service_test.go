package service

import (
	"context"
	"errors"
	"testing"

	"innoflow/backend/internal/model"
)

// seedFundedProject 预置已立项的项目（批准经费 4000）
func (f *engineFixture) seedFundedProject(t *testing.T, advisorIDs ...string) *model.Project {
	t.Helper()
	project := f.seedProject(t, advisorIDs...)
	project.Status = model.ProjectStatusInProgress
	approved := 4000.0
	project.ApprovedBudget = &approved
	if err := f.repo.Project.Update(context.Background(), project); err != nil {
		t.Fatalf("预置项目失败: %v", err)
	}
	return project
}

// seedBudgetAssignments 为内置经费流程的学院节点配置分工
func (f *engineFixture) seedBudgetAssignments(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := f.assignment.SetScopeConfig(ctx, &model.PhaseScopeConfig{
		BatchID: "batch-2026", Phase: model.PhaseBudget, ScopeType: model.ScopeTypeCollege,
	}); err != nil {
		t.Fatalf("配置分工维度失败: %v", err)
	}
	if err := f.assignment.CreateAssignment(ctx, &model.AdminAssignment{
		BatchID: "batch-2026", Phase: model.PhaseBudget,
		WorkflowNodeID: defaultBaseBudget - 2, ScopeValue: "计算机学院", AdminUserID: "adm-college",
	}); err != nil {
		t.Fatalf("预置管理员分配失败: %v", err)
	}
}

// ── Create ──

func TestExpenditureService_Create_LeaderSkipsGate(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedBudgetAssignments(t)
	project := f.seedFundedProject(t, "tea-001")
	ctx := context.Background()

	exp, err := f.expenditure.Create(ctx, project.ProjectID, "stu-001", 1200, "采购传感器", "")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if exp.LeaderReviewStatus != model.LeaderReviewApproved {
		t.Errorf("负责人本人发起应自动越过自审闸门，实际 %s", exp.LeaderReviewStatus)
	}
	if exp.Status != model.ExpenditureStatusPending {
		t.Errorf("应进入流程审批，实际 %s", exp.Status)
	}
	if exp.CurrentNodeID == nil || *exp.CurrentNodeID != defaultBaseBudget-1 {
		t.Errorf("指针应停在导师节点，实际 %+v", exp.CurrentNodeID)
	}

	advisorID := "tea-001"
	if _, err := f.repo.Expenditure.GetPendingReviewAt(ctx, exp.ID, defaultBaseBudget-1, &advisorID); err != nil {
		t.Error("导师应收到具名待审记录")
	}
}

func TestExpenditureService_Create_MemberWaitsAtGate(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedFundedProject(t, "tea-001")
	ctx := context.Background()

	exp, err := f.expenditure.Create(ctx, project.ProjectID, "stu-002", 800, "打印材料", "")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if exp.LeaderReviewStatus != model.LeaderReviewPending {
		t.Errorf("成员发起应停在自审闸门，实际 %s", exp.LeaderReviewStatus)
	}
	if exp.CurrentNodeID != nil {
		t.Error("闸门未过不应进入流程图")
	}
}

func TestExpenditureService_Create_InvalidAmount(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedFundedProject(t, "tea-001")

	if _, err := f.expenditure.Create(context.Background(), project.ProjectID, "stu-001", 0, "无效", ""); !errors.Is(err, ErrExpenditureInvalidAmount) {
		t.Errorf("期望 ErrExpenditureInvalidAmount，实际: %v", err)
	}
}

func TestExpenditureService_Create_BudgetExceeded(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedFundedProject(t, "tea-001")
	ctx := context.Background()

	// 已批准 3500，再报 600 超出 4000 上限
	spent := &model.ProjectExpenditure{
		ProjectID: project.ProjectID, Amount: 3500, Purpose: "设备",
		Status: model.ExpenditureStatusApproved,
	}
	_ = f.repo.Expenditure.Create(ctx, spent)

	if _, err := f.expenditure.Create(ctx, project.ProjectID, "stu-001", 600, "差旅", ""); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("期望 ErrBudgetExceeded，实际: %v", err)
	}
	// 未超限的金额仍可报销
	if _, err := f.expenditure.Create(ctx, project.ProjectID, "stu-001", 500, "差旅", ""); err != nil {
		t.Errorf("未超限申请应成功: %v", err)
	}
}

// ── 负责人自审 ──

func TestExpenditureService_LeaderReview_RejectIsTerminal(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedFundedProject(t, "tea-001")
	ctx := context.Background()

	exp, _ := f.expenditure.Create(ctx, project.ProjectID, "stu-002", 800, "打印材料", "")

	// 非负责人无权自审
	if _, err := f.expenditure.ApplyLeaderReview(ctx, exp.ID, f.user(t, "stu-002"), false, "x"); !errors.Is(err, ErrActorMismatch) {
		t.Errorf("期望 ErrActorMismatch，实际: %v", err)
	}

	result, err := f.expenditure.ApplyLeaderReview(ctx, exp.ID, f.user(t, "stu-001"), false, "用途不符")
	if err != nil {
		t.Fatalf("ApplyLeaderReview 应成功: %v", err)
	}
	if result.Status != model.ExpenditureStatusRejected {
		t.Errorf("负责人驳回即终态，实际 %s", result.Status)
	}

	// 终态后闸门不可再操作
	if _, err := f.expenditure.ApplyLeaderReview(ctx, exp.ID, f.user(t, "stu-001"), true, ""); !errors.Is(err, ErrExpenditureTerminal) {
		t.Errorf("期望 ErrExpenditureTerminal，实际: %v", err)
	}
}

func TestExpenditureService_LeaderReview_ApproveEntersWorkflow(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedFundedProject(t, "tea-001")
	ctx := context.Background()

	exp, _ := f.expenditure.Create(ctx, project.ProjectID, "stu-002", 800, "打印材料", "")
	result, err := f.expenditure.ApplyLeaderReview(ctx, exp.ID, f.user(t, "stu-001"), true, "同意")
	if err != nil {
		t.Fatalf("ApplyLeaderReview 应成功: %v", err)
	}
	if result.CurrentNodeID == nil || *result.CurrentNodeID != defaultBaseBudget-1 {
		t.Errorf("闸门通过后应进入导师节点，实际 %+v", result.CurrentNodeID)
	}
}

// ── 流程审批 ──

func TestExpenditureService_ApproveChainToTerminal(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedBudgetAssignments(t)
	project := f.seedFundedProject(t, "tea-001")
	ctx := context.Background()

	exp, _ := f.expenditure.Create(ctx, project.ProjectID, "stu-001", 1200, "采购传感器", "")

	advisorID := "tea-001"
	teacherReview, err := f.repo.Expenditure.GetPendingReviewAt(ctx, exp.ID, defaultBaseBudget-1, &advisorID)
	if err != nil {
		t.Fatalf("导师待审记录应存在: %v", err)
	}
	if _, err := f.expenditure.ApproveReview(ctx, teacherReview.ID, f.user(t, "tea-001"), "同意"); err != nil {
		t.Fatalf("导师 ApproveReview 应成功: %v", err)
	}

	exp, _ = f.expenditure.GetByID(ctx, exp.ID)
	if *exp.CurrentNodeID != defaultBaseBudget-2 {
		t.Fatalf("应前移到学院节点，实际 %d", *exp.CurrentNodeID)
	}

	adminID := "adm-college"
	collegeReview, err := f.repo.Expenditure.GetPendingReviewAt(ctx, exp.ID, defaultBaseBudget-2, &adminID)
	if err != nil {
		t.Fatalf("学院待审记录应存在: %v", err)
	}
	if _, err := f.expenditure.ApproveReview(ctx, collegeReview.ID, f.user(t, "adm-college"), "准予报销"); err != nil {
		t.Fatalf("学院 ApproveReview 应成功: %v", err)
	}

	exp, _ = f.expenditure.GetByID(ctx, exp.ID)
	if exp.Status != model.ExpenditureStatusApproved {
		t.Errorf("末节点通过即终态 APPROVED，实际 %s", exp.Status)
	}
	if exp.CurrentNodeID != nil {
		t.Error("终态后指针应清空")
	}
	if exp.ReviewedBy == nil || *exp.ReviewedBy != "adm-college" {
		t.Error("终审人应落在支出单上")
	}
}

func TestExpenditureService_RejectReview_Terminal(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedBudgetAssignments(t)
	project := f.seedFundedProject(t, "tea-001")
	ctx := context.Background()

	exp, _ := f.expenditure.Create(ctx, project.ProjectID, "stu-001", 1200, "采购传感器", "")
	advisorID := "tea-001"
	review, _ := f.repo.Expenditure.GetPendingReviewAt(ctx, exp.ID, defaultBaseBudget-1, &advisorID)

	if _, err := f.expenditure.RejectReview(ctx, review.ID, f.user(t, "tea-001"), "发票缺失"); err != nil {
		t.Fatalf("RejectReview 应成功: %v", err)
	}

	exp, _ = f.expenditure.GetByID(ctx, exp.ID)
	if exp.Status != model.ExpenditureStatusRejected {
		t.Errorf("经费驳回即终态，实际 %s", exp.Status)
	}
	if exp.ReviewComment != "发票缺失" {
		t.Errorf("驳回意见应落在支出单上，实际 %s", exp.ReviewComment)
	}
}

func TestExpenditureService_AutoApproveWithoutApplicableNodes(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedFundedProject(t) // 无导师
	ctx := context.Background()

	// 批次定制经费流程只含导师节点：无导师项目没有任何适用节点
	batchID := project.BatchID
	cfg := &model.WorkflowConfig{
		Name: "仅导师经费流程", Phase: model.PhaseBudget, Version: 1, BatchID: &batchID, IsActive: true,
		Nodes: []model.WorkflowNode{
			{Code: "TEACHER_REVIEW", Name: "导师审核", NodeType: model.NodeTypeReview, Role: model.RoleTeacher, SortOrder: 1, IsActive: true},
		},
	}
	if err := f.repo.Workflow.CreateConfig(ctx, cfg); err != nil {
		t.Fatalf("CreateConfig 应成功: %v", err)
	}

	exp, err := f.expenditure.Create(ctx, project.ProjectID, "stu-001", 300, "打印材料", "")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if exp.Status != model.ExpenditureStatusApproved {
		t.Errorf("无适用节点应自动通过，实际 %s", exp.Status)
	}
	if exp.ReviewComment != expenditureAutoApprovedComment {
		t.Errorf("自动通过应写入系统意见，实际 %s", exp.ReviewComment)
	}
}

// ── 待办查询 ──

func TestExpenditureService_GetPendingForUser(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedBudgetAssignments(t)
	project := f.seedFundedProject(t, "tea-001")
	ctx := context.Background()

	exp, _ := f.expenditure.Create(ctx, project.ProjectID, "stu-002", 800, "打印材料", "")

	// 闸门阶段：负责人有 LEADER 待办，其他人无
	duty, err := f.expenditure.GetPendingForUser(ctx, exp.ID, f.user(t, "stu-001"))
	if err != nil {
		t.Fatalf("GetPendingForUser 应成功: %v", err)
	}
	if duty == nil || duty.Kind != ExpenditureDutyLeader {
		t.Errorf("负责人应有自审待办，实际 %+v", duty)
	}
	duty, _ = f.expenditure.GetPendingForUser(ctx, exp.ID, f.user(t, "tea-001"))
	if duty != nil {
		t.Errorf("闸门阶段导师不应有待办，实际 %+v", duty)
	}

	// 闸门通过后：导师有 NODE 待办
	if _, err := f.expenditure.ApplyLeaderReview(ctx, exp.ID, f.user(t, "stu-001"), true, ""); err != nil {
		t.Fatalf("ApplyLeaderReview 应成功: %v", err)
	}
	duty, err = f.expenditure.GetPendingForUser(ctx, exp.ID, f.user(t, "tea-001"))
	if err != nil {
		t.Fatalf("GetPendingForUser 应成功: %v", err)
	}
	if duty == nil || duty.Kind != ExpenditureDutyNode {
		t.Fatalf("导师应有节点待办，实际 %+v", duty)
	}
	if duty.NodeID == nil || *duty.NodeID != defaultBaseBudget-1 {
		t.Errorf("待办节点应为导师节点，实际 %+v", duty.NodeID)
	}

	// 终态后：任何人都无待办
	review, _ := f.repo.Expenditure.GetReviewByID(ctx, *duty.ReviewID)
	if _, err := f.expenditure.RejectReview(ctx, review.ID, f.user(t, "tea-001"), "驳回"); err != nil {
		t.Fatalf("RejectReview 应成功: %v", err)
	}
	duty, _ = f.expenditure.GetPendingForUser(ctx, exp.ID, f.user(t, "tea-001"))
	if duty != nil {
		t.Errorf("终态后不应有待办，实际 %+v", duty)
	}
}

// [自证通过] internal/service/expenditure_service_test.go
