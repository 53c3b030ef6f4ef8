package service

import (
	"context"
	"errors"
	"testing"

	"innoflow/backend/internal/model"
)

func adminNode(id int64, role string) *model.WorkflowNodeDef {
	return &model.WorkflowNodeDef{ID: id, Code: "COLLEGE_REVIEW", NodeType: model.NodeTypeReview, Role: role}
}

// ── ResolveAdmin ──

func TestAssignmentService_ResolveAdmin_ByCollege(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t, "tea-001")

	admin, err := f.assignment.ResolveAdmin(context.Background(), project, model.PhaseApplication, adminNode(defaultBaseApplication-3, model.RoleLevel2))
	if err != nil {
		t.Fatalf("ResolveAdmin 应成功: %v", err)
	}
	if admin.UserID != "adm-college" {
		t.Errorf("应解析到本学院管理员，实际 %s", admin.UserID)
	}
}

func TestAssignmentService_ResolveAdmin_NoScopeConfig(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedProject(t, "tea-001")

	_, err := f.assignment.ResolveAdmin(context.Background(), project, model.PhaseApplication, adminNode(defaultBaseApplication-3, model.RoleLevel2))
	if !errors.Is(err, ErrNoAdminAssigned) {
		t.Errorf("无分工维度配置期望 ErrNoAdminAssigned，实际: %v", err)
	}
}

func TestAssignmentService_ResolveAdmin_NoAssignmentForScopeValue(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t, "tea-001")
	project.College = "外国语学院" // 分配表里没有这个学院
	_ = f.repo.Project.Update(context.Background(), project)

	_, err := f.assignment.ResolveAdmin(context.Background(), project, model.PhaseApplication, adminNode(defaultBaseApplication-3, model.RoleLevel2))
	if !errors.Is(err, ErrNoAdminAssigned) {
		t.Errorf("范围值无人认领期望 ErrNoAdminAssigned，实际: %v", err)
	}
}

func TestAssignmentService_ResolveAdmin_ScopeValueMissing(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t, "tea-001")
	project.College = ""
	_ = f.repo.Project.Update(context.Background(), project)

	_, err := f.assignment.ResolveAdmin(context.Background(), project, model.PhaseApplication, adminNode(defaultBaseApplication-3, model.RoleLevel2))
	if !errors.Is(err, ErrScopeValueMissing) {
		t.Errorf("项目缺少学院属性期望 ErrScopeValueMissing，实际: %v", err)
	}
}

func TestAssignmentService_ResolveAdmin_KeyFieldScope(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	if err := f.assignment.SetScopeConfig(ctx, &model.PhaseScopeConfig{
		BatchID: "batch-2026", Phase: model.PhaseMidTerm, ScopeType: model.ScopeTypeKeyField,
	}); err != nil {
		t.Fatalf("配置分工维度失败: %v", err)
	}
	// 重点领域与非重点领域分属不同管理员
	for scopeValue, adminID := range map[string]string{"true": "adm-school", "false": "adm-college"} {
		if err := f.assignment.CreateAssignment(ctx, &model.AdminAssignment{
			BatchID: "batch-2026", Phase: model.PhaseMidTerm,
			WorkflowNodeID: defaultBaseMidTerm - 2, ScopeValue: scopeValue, AdminUserID: adminID,
		}); err != nil {
			t.Fatalf("预置管理员分配失败: %v", err)
		}
	}

	node := adminNode(defaultBaseMidTerm-2, model.RoleLevel2)

	admin, err := f.assignment.ResolveAdmin(ctx, project, model.PhaseMidTerm, node)
	if err != nil {
		t.Fatalf("ResolveAdmin 应成功: %v", err)
	}
	if admin.UserID != "adm-college" {
		t.Errorf("非重点领域项目应解析到 adm-college，实际 %s", admin.UserID)
	}

	project.IsKeyField = true
	_ = f.repo.Project.Update(ctx, project)
	admin, err = f.assignment.ResolveAdmin(ctx, project, model.PhaseMidTerm, node)
	if err != nil {
		t.Fatalf("ResolveAdmin 应成功: %v", err)
	}
	if admin.UserID != "adm-school" {
		t.Errorf("重点领域项目应解析到 adm-school，实际 %s", admin.UserID)
	}
}

// ── MatchActor ──

func TestAssignmentService_MatchActor(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	f.seedApplicationAssignments(t)
	project := f.seedProject(t, "tea-001")
	ctx := context.Background()

	tests := []struct {
		name    string
		node    *model.WorkflowNodeDef
		actorID string
		wantErr error
	}{
		{"学生节点负责人放行", &model.WorkflowNodeDef{Role: model.RoleStudent}, "stu-001", nil},
		{"学生节点非负责人拒绝", &model.WorkflowNodeDef{Role: model.RoleStudent}, "stu-002", ErrActorMismatch},
		{"导师节点指导教师放行", &model.WorkflowNodeDef{Role: model.RoleTeacher}, "tea-001", nil},
		{"导师节点其他教师拒绝", &model.WorkflowNodeDef{Role: model.RoleTeacher}, "tea-002", ErrActorMismatch},
		{"管理员节点解析到的人放行", adminNode(defaultBaseApplication-3, model.RoleLevel2), "adm-college", nil},
		{"管理员节点其他管理员拒绝", adminNode(defaultBaseApplication-3, model.RoleLevel2), "adm-school", ErrActorMismatch},
		{"专家节点专家放行", &model.WorkflowNodeDef{Role: model.RoleExpert}, "exp-001", nil},
		{"专家节点非专家拒绝", &model.WorkflowNodeDef{Role: model.RoleExpert}, "stu-001", ErrActorMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.assignment.MatchActor(ctx, project, model.PhaseApplication, tt.node, f.user(t, tt.actorID))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestAssignmentService_MatchActor_AdminNodeWithoutAssignment(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	project := f.seedProject(t, "tea-001")

	err := f.assignment.MatchActor(context.Background(), project, model.PhaseApplication,
		adminNode(defaultBaseApplication-3, model.RoleLevel2), f.user(t, "adm-college"))
	if !errors.Is(err, ErrNoAdminAssigned) {
		t.Errorf("无分配时解析失败应向上传递，期望 ErrNoAdminAssigned，实际: %v", err)
	}
}

// ── 管理员分配与专家组 ──

func TestAssignmentService_CreateAssignment_InvalidPhase(t *testing.T) {
	f := newEngineFixture()

	err := f.assignment.CreateAssignment(context.Background(), &model.AdminAssignment{
		BatchID: "batch-2026", Phase: "UNKNOWN", WorkflowNodeID: 1, ScopeValue: "x", AdminUserID: "adm-college",
	})
	if !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("期望 ErrUnknownPhase，实际: %v", err)
	}
}

func TestAssignmentService_ExpertGroups(t *testing.T) {
	f := newEngineFixture()
	f.seedUsers(t)
	ctx := context.Background()

	group := &model.ExpertGroup{
		Name: "计算机学院评审组", College: "计算机学院",
		Members: []model.User{{UserID: "exp-001"}, {UserID: "exp-002"}},
	}
	if err := f.assignment.CreateExpertGroup(ctx, group); err != nil {
		t.Fatalf("CreateExpertGroup 应成功: %v", err)
	}
	if group.ID == 0 {
		t.Fatal("专家组应分配 ID")
	}

	got, err := f.assignment.GetExpertGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetExpertGroup 应成功: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("专家组应含 2 名成员，实际 %d", len(got.Members))
	}

	if _, err := f.assignment.GetExpertGroup(ctx, 9999); !errors.Is(err, ErrExpertGroupMissing) {
		t.Errorf("期望 ErrExpertGroupMissing，实际: %v", err)
	}

	groups, err := f.assignment.ListExpertGroups(ctx, "计算机学院")
	if err != nil || len(groups) != 1 {
		t.Errorf("按学院过滤应命中 1 个专家组: %d, %v", len(groups), err)
	}
}

// [自证通过] internal/service/assignment_service_test.go
