package service

import "innoflow/backend/internal/model"

// 内置默认流程。未在库中配置流程的批次按此流转。
// 节点 ID 取阶段基数的负值，与数据库自增 ID 永不冲突。

const (
	defaultBaseApplication int64 = -100
	defaultBaseMidTerm     int64 = -200
	defaultBaseClosure     int64 = -300
	defaultBaseBudget      int64 = -400
)

func defaultArena(phase string) (*NodeArena, error) {
	switch phase {
	case model.PhaseApplication:
		return newArena(phase, defaultApplicationNodes()), nil
	case model.PhaseMidTerm:
		return newArena(phase, defaultMidTermNodes()), nil
	case model.PhaseClosure:
		return newArena(phase, defaultClosureNodes()), nil
	case model.PhaseBudget:
		return newArena(phase, defaultBudgetNodes()), nil
	}
	return nil, ErrUnknownPhase
}

func defaultApplicationNodes() []model.WorkflowNodeDef {
	base := defaultBaseApplication
	return []model.WorkflowNodeDef{
		{
			ID: base - 1, Code: "STUDENT_SUBMIT", Name: "学生提交",
			NodeType: model.NodeTypeSubmit, Role: model.RoleStudent,
			ReturnPolicy: model.ReturnPolicyNone,
		},
		{
			ID: base - 2, Code: "TEACHER_REVIEW", Name: "导师审核",
			NodeType: model.NodeTypeReview, Role: model.RoleTeacher,
			ReturnPolicy:    model.ReturnPolicyStudent,
			AllowedRejectTo: model.Int64Array{base - 1},
		},
		{
			ID: base - 3, Code: "COLLEGE_REVIEW", Name: "学院审核",
			NodeType: model.NodeTypeReview, Role: model.RoleLevel2, ReviewLevel: "COLLEGE",
			ReturnPolicy:    model.ReturnPolicyStudent,
			AllowedRejectTo: model.Int64Array{base - 1, base - 2},
		},
		{
			ID: base - 4, Code: "SCHOOL_PUBLISH", Name: "学校立项公示",
			NodeType: model.NodeTypeApproval, Role: model.RoleLevel1, ReviewLevel: "SCHOOL",
			ReturnPolicy:    model.ReturnPolicyStudent,
			AllowedRejectTo: model.Int64Array{base - 1, base - 3},
		},
	}
}

func defaultMidTermNodes() []model.WorkflowNodeDef {
	base := defaultBaseMidTerm
	return []model.WorkflowNodeDef{
		{
			ID: base - 1, Code: "STUDENT_SUBMIT", Name: "学生提交中期报告",
			NodeType: model.NodeTypeSubmit, Role: model.RoleStudent,
			ReturnPolicy: model.ReturnPolicyNone,
		},
		{
			ID: base - 2, Code: "TEACHER_REVIEW", Name: "导师审核",
			NodeType: model.NodeTypeReview, Role: model.RoleTeacher,
			ReturnPolicy:    model.ReturnPolicyStudent,
			AllowedRejectTo: model.Int64Array{base - 1},
		},
		{
			ID: base - 3, Code: "COLLEGE_REVIEW", Name: "学院中期检查",
			NodeType: model.NodeTypeReview, Role: model.RoleLevel2, ReviewLevel: "COLLEGE",
			ReturnPolicy:    model.ReturnPolicyStudent,
			AllowedRejectTo: model.Int64Array{base - 1, base - 2},
		},
	}
}

func defaultClosureNodes() []model.WorkflowNodeDef {
	base := defaultBaseClosure
	return []model.WorkflowNodeDef{
		{
			ID: base - 1, Code: "STUDENT_SUBMIT", Name: "学生提交结题材料",
			NodeType: model.NodeTypeSubmit, Role: model.RoleStudent,
			ReturnPolicy: model.ReturnPolicyNone,
		},
		{
			ID: base - 2, Code: "TEACHER_REVIEW", Name: "导师审核",
			NodeType: model.NodeTypeReview, Role: model.RoleTeacher,
			ReturnPolicy:    model.ReturnPolicyStudent,
			AllowedRejectTo: model.Int64Array{base - 1},
		},
		{
			ID: base - 3, Code: "COLLEGE_REVIEW", Name: "学院结题评审",
			NodeType: model.NodeTypeReview, Role: model.RoleLevel2, ReviewLevel: "COLLEGE",
			RequireExpertReview: true,
			ReturnPolicy:        model.ReturnPolicyStudent,
			AllowedRejectTo:     model.Int64Array{base - 1, base - 2},
		},
		{
			ID: base - 4, Code: "SCHOOL_REVIEW", Name: "学校结题审定",
			NodeType: model.NodeTypeApproval, Role: model.RoleLevel1, ReviewLevel: "SCHOOL",
			ReturnPolicy:    model.ReturnPolicyStudent,
			AllowedRejectTo: model.Int64Array{base - 1, base - 3},
		},
	}
}

// 经费流程没有提交节点：负责人闸门通过后直接进入首个适用的审核节点。
func defaultBudgetNodes() []model.WorkflowNodeDef {
	base := defaultBaseBudget
	return []model.WorkflowNodeDef{
		{
			ID: base - 1, Code: "TEACHER_REVIEW", Name: "导师审核",
			NodeType: model.NodeTypeReview, Role: model.RoleTeacher,
			ReturnPolicy: model.ReturnPolicyNone,
		},
		{
			ID: base - 2, Code: "COLLEGE_REVIEW", Name: "学院经费审批",
			NodeType: model.NodeTypeReview, Role: model.RoleLevel2, ReviewLevel: "COLLEGE",
			ReturnPolicy: model.ReturnPolicyNone,
		},
	}
}

// [自证通过] internal/service/workflow_defaults.go
