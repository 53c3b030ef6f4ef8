package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"innoflow/backend/internal/model"
	"innoflow/backend/internal/repository"
)

// newTestRepository 构造全量 mock 聚合，Transaction 为直通实现
func newTestRepository() *repository.Repository {
	users := newMockUserRepo()
	r := &repository.Repository{
		User:          users,
		Batch:         newMockBatchRepo(),
		Project:       newMockProjectRepo(),
		Workflow:      newMockWorkflowRepo(),
		PhaseInstance: newMockPhaseInstanceRepo(),
		Review:        newMockReviewRepo(),
		Expenditure:   newMockExpenditureRepo(),
		Assignment:    newMockAssignmentRepo(users),
		Setting:       newMockSettingRepo(),
	}
	r.Transaction = func(_ context.Context, fn func(tx *repository.Repository) error) error {
		return fn(r)
	}
	return r
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "u-" + user.Account
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByAccount(_ context.Context, account string) (*model.User, error) {
	for _, u := range m.users {
		if u.Account == account {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role string, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

// ── Mock BatchRepository ──

type mockBatchRepo struct {
	batches map[string]*model.ProjectBatch
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{batches: make(map[string]*model.ProjectBatch)}
}

func (m *mockBatchRepo) Create(_ context.Context, batch *model.ProjectBatch) error {
	if batch.BatchID == "" {
		batch.BatchID = "batch-" + batch.Code
	}
	m.batches[batch.BatchID] = batch
	return nil
}

func (m *mockBatchRepo) GetByID(_ context.Context, id string) (*model.ProjectBatch, error) {
	if b, ok := m.batches[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBatchRepo) List(_ context.Context) ([]model.ProjectBatch, error) {
	var result []model.ProjectBatch
	for _, b := range m.batches {
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockBatchRepo) Update(_ context.Context, batch *model.ProjectBatch) error {
	m.batches[batch.BatchID] = batch
	return nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[string]*model.Project
	seq      int
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) Create(_ context.Context, project *model.Project) error {
	if project.ProjectID == "" {
		m.seq++
		project.ProjectID = fmt.Sprintf("proj-%03d", m.seq)
	}
	m.projects[project.ProjectID] = project
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) Update(_ context.Context, project *model.Project) error {
	m.projects[project.ProjectID] = project
	return nil
}

func (m *mockProjectRepo) UpdateStatus(_ context.Context, id, status string) error {
	p, ok := m.projects[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}

func (m *mockProjectRepo) UpdateApprovedBudget(_ context.Context, id string, budget float64) error {
	p, ok := m.projects[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.ApprovedBudget = &budget
	return nil
}

func (m *mockProjectRepo) ListByBatch(_ context.Context, batchID string, _, _ int) ([]model.Project, int64, error) {
	var result []model.Project
	for _, p := range m.projects {
		if p.BatchID == batchID {
			result = append(result, *p)
		}
	}
	return result, int64(len(result)), nil
}

// ── Mock WorkflowRepository ──

type mockWorkflowRepo struct {
	configs map[int64]*model.WorkflowConfig
	nodes   map[int64]*model.WorkflowNode
	cfgSeq  int64
	nodeSeq int64
}

func newMockWorkflowRepo() *mockWorkflowRepo {
	return &mockWorkflowRepo{
		configs: make(map[int64]*model.WorkflowConfig),
		nodes:   make(map[int64]*model.WorkflowNode),
	}
}

func (m *mockWorkflowRepo) GetActiveConfig(_ context.Context, phase string, batchID *string) (*model.WorkflowConfig, error) {
	var best *model.WorkflowConfig
	// 先找批次专属
	if batchID != nil {
		for _, c := range m.configs {
			if c.Phase == phase && c.IsActive && c.BatchID != nil && *c.BatchID == *batchID {
				if best == nil || c.Version > best.Version {
					best = c
				}
			}
		}
		if best != nil {
			return best, nil
		}
	}
	// 回落全局
	for _, c := range m.configs {
		if c.Phase == phase && c.IsActive && c.BatchID == nil {
			if best == nil || c.Version > best.Version {
				best = c
			}
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (m *mockWorkflowRepo) GetConfigByID(_ context.Context, id int64) (*model.WorkflowConfig, error) {
	if c, ok := m.configs[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkflowRepo) CreateConfig(_ context.Context, cfg *model.WorkflowConfig) error {
	if cfg.ID == 0 {
		m.cfgSeq++
		cfg.ID = m.cfgSeq
	}
	for i := range cfg.Nodes {
		n := &cfg.Nodes[i]
		if n.ID == 0 {
			m.nodeSeq++
			n.ID = m.nodeSeq
		}
		n.WorkflowID = cfg.ID
		m.nodes[n.ID] = n
	}
	m.configs[cfg.ID] = cfg
	return nil
}

func (m *mockWorkflowRepo) ListNodes(_ context.Context, workflowID int64) ([]model.WorkflowNode, error) {
	var result []model.WorkflowNode
	for _, n := range m.nodes {
		if n.WorkflowID == workflowID && n.IsActive {
			result = append(result, *n)
		}
	}
	// 保持 sort_order 升序
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].SortOrder < result[i].SortOrder {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (m *mockWorkflowRepo) GetNodeByID(_ context.Context, id int64) (*model.WorkflowNode, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if cfg, ok := m.configs[n.WorkflowID]; ok {
		n.Workflow = cfg
	}
	return n, nil
}

func (m *mockWorkflowRepo) CreateNode(_ context.Context, node *model.WorkflowNode) error {
	if node.ID == 0 {
		m.nodeSeq++
		node.ID = m.nodeSeq
	}
	m.nodes[node.ID] = node
	return nil
}

func (m *mockWorkflowRepo) UpdateNode(_ context.Context, node *model.WorkflowNode) error {
	m.nodes[node.ID] = node
	return nil
}

// ── Mock PhaseInstanceRepository ──

type mockPhaseInstanceRepo struct {
	instances map[int64]*model.ProjectPhaseInstance
	seq       int64
}

func newMockPhaseInstanceRepo() *mockPhaseInstanceRepo {
	return &mockPhaseInstanceRepo{instances: make(map[int64]*model.ProjectPhaseInstance)}
}

func (m *mockPhaseInstanceRepo) Create(_ context.Context, inst *model.ProjectPhaseInstance) error {
	if inst.ID == 0 {
		m.seq++
		inst.ID = m.seq
	}
	m.instances[inst.ID] = inst
	return nil
}

func (m *mockPhaseInstanceRepo) GetByID(_ context.Context, id int64) (*model.ProjectPhaseInstance, error) {
	if inst, ok := m.instances[id]; ok {
		return inst, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPhaseInstanceRepo) GetCurrent(_ context.Context, projectID, phase string) (*model.ProjectPhaseInstance, error) {
	var current *model.ProjectPhaseInstance
	for _, inst := range m.instances {
		if inst.ProjectID != projectID || inst.Phase != phase {
			continue
		}
		if current == nil || inst.AttemptNo > current.AttemptNo {
			current = inst
		}
	}
	if current == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return current, nil
}

func (m *mockPhaseInstanceRepo) Update(_ context.Context, inst *model.ProjectPhaseInstance) error {
	m.instances[inst.ID] = inst
	return nil
}

func (m *mockPhaseInstanceRepo) ListByProject(_ context.Context, projectID string) ([]model.ProjectPhaseInstance, error) {
	var result []model.ProjectPhaseInstance
	for _, inst := range m.instances {
		if inst.ProjectID == projectID {
			result = append(result, *inst)
		}
	}
	return result, nil
}

// ── Mock ReviewRepository ──

type mockReviewRepo struct {
	reviews map[int64]*model.Review
	seq     int64
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[int64]*model.Review)}
}

func (m *mockReviewRepo) Create(_ context.Context, review *model.Review) error {
	if review.ID == 0 {
		m.seq++
		review.ID = m.seq
	}
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id int64) (*model.Review, error) {
	if r, ok := m.reviews[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) GetPendingAt(_ context.Context, instanceID, nodeID int64, reviewerID *string) (*model.Review, error) {
	for _, r := range m.reviews {
		if r.PhaseInstanceID != instanceID || r.Status != model.ReviewStatusPending {
			continue
		}
		if r.WorkflowNodeID == nil || *r.WorkflowNodeID != nodeID {
			continue
		}
		if reviewerID == nil {
			if r.ReviewerID == nil {
				return r, nil
			}
			continue
		}
		if r.ReviewerID != nil && *r.ReviewerID == *reviewerID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) ListPendingByInstance(_ context.Context, instanceID int64) ([]model.Review, error) {
	var result []model.Review
	for _, r := range m.reviews {
		if r.PhaseInstanceID == instanceID && r.Status == model.ReviewStatusPending {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRepo) ListByInstance(_ context.Context, instanceID int64) ([]model.Review, error) {
	var result []model.Review
	for _, r := range m.reviews {
		if r.PhaseInstanceID == instanceID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRepo) ListPendingByReviewer(_ context.Context, reviewerID string) ([]model.Review, error) {
	var result []model.Review
	for _, r := range m.reviews {
		if r.Status == model.ReviewStatusPending && r.ReviewerID != nil && *r.ReviewerID == reviewerID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRepo) ListByBatchPhase(_ context.Context, _, phase string) ([]model.Review, error) {
	var result []model.Review
	for _, r := range m.reviews {
		if r.Phase == phase {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRepo) Update(_ context.Context, review *model.Review) error {
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) InvalidatePending(_ context.Context, instanceID, exceptID int64, comment string) (int64, error) {
	now := time.Now()
	var count int64
	for _, r := range m.reviews {
		if r.PhaseInstanceID != instanceID || r.Status != model.ReviewStatusPending || r.ID == exceptID {
			continue
		}
		r.Status = model.ReviewStatusRejected
		r.Comments = comment
		r.ReviewedAt = &now
		count++
	}
	return count, nil
}

// ── Mock ExpenditureRepository ──

type mockExpenditureRepo struct {
	expenditures map[int64]*model.ProjectExpenditure
	reviews      map[int64]*model.ProjectExpenditureReview
	expSeq       int64
	reviewSeq    int64
}

func newMockExpenditureRepo() *mockExpenditureRepo {
	return &mockExpenditureRepo{
		expenditures: make(map[int64]*model.ProjectExpenditure),
		reviews:      make(map[int64]*model.ProjectExpenditureReview),
	}
}

func (m *mockExpenditureRepo) Create(_ context.Context, exp *model.ProjectExpenditure) error {
	if exp.ID == 0 {
		m.expSeq++
		exp.ID = m.expSeq
	}
	m.expenditures[exp.ID] = exp
	return nil
}

func (m *mockExpenditureRepo) GetByID(_ context.Context, id int64) (*model.ProjectExpenditure, error) {
	if e, ok := m.expenditures[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExpenditureRepo) Update(_ context.Context, exp *model.ProjectExpenditure) error {
	m.expenditures[exp.ID] = exp
	return nil
}

func (m *mockExpenditureRepo) ListByProject(_ context.Context, projectID string) ([]model.ProjectExpenditure, error) {
	var result []model.ProjectExpenditure
	for _, e := range m.expenditures {
		if e.ProjectID == projectID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExpenditureRepo) SumApproved(_ context.Context, projectID string) (float64, error) {
	var total float64
	for _, e := range m.expenditures {
		if e.ProjectID == projectID && e.Status == model.ExpenditureStatusApproved {
			total += e.Amount
		}
	}
	return total, nil
}

func (m *mockExpenditureRepo) CreateReview(_ context.Context, review *model.ProjectExpenditureReview) error {
	if review.ID == 0 {
		m.reviewSeq++
		review.ID = m.reviewSeq
	}
	m.reviews[review.ID] = review
	return nil
}

func (m *mockExpenditureRepo) GetReviewByID(_ context.Context, id int64) (*model.ProjectExpenditureReview, error) {
	if r, ok := m.reviews[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExpenditureRepo) GetPendingReviewAt(_ context.Context, expenditureID, nodeID int64, reviewerID *string) (*model.ProjectExpenditureReview, error) {
	for _, r := range m.reviews {
		if r.ExpenditureID != expenditureID || r.WorkflowNodeID != nodeID || r.Status != model.ReviewStatusPending {
			continue
		}
		if reviewerID == nil {
			if r.ReviewerID == nil {
				return r, nil
			}
			continue
		}
		if r.ReviewerID != nil && *r.ReviewerID == *reviewerID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExpenditureRepo) UpdateReview(_ context.Context, review *model.ProjectExpenditureReview) error {
	m.reviews[review.ID] = review
	return nil
}

func (m *mockExpenditureRepo) ListPendingReviewsByReviewer(_ context.Context, reviewerID string) ([]model.ProjectExpenditureReview, error) {
	var result []model.ProjectExpenditureReview
	for _, r := range m.reviews {
		if r.Status == model.ReviewStatusPending && r.ReviewerID != nil && *r.ReviewerID == reviewerID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockExpenditureRepo) InvalidatePendingReviews(_ context.Context, expenditureID, exceptID int64, comment string) (int64, error) {
	now := time.Now()
	var count int64
	for _, r := range m.reviews {
		if r.ExpenditureID != expenditureID || r.Status != model.ReviewStatusPending || r.ID == exceptID {
			continue
		}
		r.Status = model.ReviewStatusRejected
		r.Comments = comment
		r.ReviewedAt = &now
		count++
	}
	return count, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	scopeConfigs map[string]*model.PhaseScopeConfig // key: batch|phase
	assignments  map[int64]*model.AdminAssignment
	groups       map[int64]*model.ExpertGroup
	assignSeq    int64
	groupSeq     int64
	users        *mockUserRepo
}

func newMockAssignmentRepo(users *mockUserRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{
		scopeConfigs: make(map[string]*model.PhaseScopeConfig),
		assignments:  make(map[int64]*model.AdminAssignment),
		groups:       make(map[int64]*model.ExpertGroup),
		users:        users,
	}
}

func scopeKey(batchID, phase string) string { return batchID + "|" + phase }

func (m *mockAssignmentRepo) GetScopeConfig(_ context.Context, batchID, phase string) (*model.PhaseScopeConfig, error) {
	if c, ok := m.scopeConfigs[scopeKey(batchID, phase)]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) UpsertScopeConfig(_ context.Context, cfg *model.PhaseScopeConfig) error {
	m.scopeConfigs[scopeKey(cfg.BatchID, cfg.Phase)] = cfg
	return nil
}

func (m *mockAssignmentRepo) GetAssignment(_ context.Context, batchID, phase string, nodeID int64, scopeValue string) (*model.AdminAssignment, error) {
	for _, a := range m.assignments {
		if a.BatchID == batchID && a.Phase == phase && a.WorkflowNodeID == nodeID && a.ScopeValue == scopeValue {
			// 仿真真实仓储对 AdminUser 的 Preload
			if a.AdminUser == nil {
				a.AdminUser, _ = m.users.GetByID(context.Background(), a.AdminUserID)
			}
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) CreateAssignment(_ context.Context, a *model.AdminAssignment) error {
	if a.ID == 0 {
		m.assignSeq++
		a.ID = m.assignSeq
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *mockAssignmentRepo) DeleteAssignment(_ context.Context, id int64) error {
	delete(m.assignments, id)
	return nil
}

func (m *mockAssignmentRepo) ListAssignments(_ context.Context, batchID, phase string) ([]model.AdminAssignment, error) {
	var result []model.AdminAssignment
	for _, a := range m.assignments {
		if a.BatchID == batchID && a.Phase == phase {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) GetExpertGroup(_ context.Context, id int64) (*model.ExpertGroup, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) CreateExpertGroup(_ context.Context, g *model.ExpertGroup) error {
	if g.ID == 0 {
		m.groupSeq++
		g.ID = m.groupSeq
	}
	m.groups[g.ID] = g
	return nil
}

func (m *mockAssignmentRepo) ListExpertGroups(_ context.Context, college string) ([]model.ExpertGroup, error) {
	var result []model.ExpertGroup
	for _, g := range m.groups {
		if college != "" && !strings.EqualFold(g.College, college) {
			continue
		}
		result = append(result, *g)
	}
	return result, nil
}

// ── Mock SettingRepository ──

type mockSettingRepo struct {
	settings []*model.SystemSetting
	seq      int64
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{}
}

func (m *mockSettingRepo) Get(_ context.Context, code string, batchID *string) (*model.SystemSetting, error) {
	// 批次专属优先
	if batchID != nil {
		for _, s := range m.settings {
			if s.Code == code && s.IsActive && s.BatchID != nil && *s.BatchID == *batchID {
				return s, nil
			}
		}
	}
	for _, s := range m.settings {
		if s.Code == code && s.IsActive && s.BatchID == nil {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSettingRepo) Upsert(_ context.Context, setting *model.SystemSetting) error {
	for i, s := range m.settings {
		sameBatch := (s.BatchID == nil && setting.BatchID == nil) ||
			(s.BatchID != nil && setting.BatchID != nil && *s.BatchID == *setting.BatchID)
		if s.Code == setting.Code && sameBatch {
			m.settings[i] = setting
			return nil
		}
	}
	if setting.ID == 0 {
		m.seq++
		setting.ID = m.seq
	}
	m.settings = append(m.settings, setting)
	return nil
}

func (m *mockSettingRepo) List(_ context.Context, batchID *string) ([]model.SystemSetting, error) {
	var result []model.SystemSetting
	for _, s := range m.settings {
		if batchID != nil && (s.BatchID == nil || *s.BatchID != *batchID) {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

// [自证通过] internal/service/mock_repos_test.go
