package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	modules          map[uint]*models.Module
	assessments      map[uint]*models.Assessment
	attempts         []*models.UserAssessmentAttempt
	progress         map[progressKey]*models.UserProgress
	users            map[uint]*models.User
	achievementDefs  map[models.AchievementCode]*models.Achievement
	userAchievements []*models.UserAchievement
	streaks          map[uint]*models.StreakRecord
	feedback         []*models.Feedback

	nextID uint
}

type progressKey struct {
	UserID   uint
	ModuleID uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		modules:         make(map[uint]*models.Module),
		assessments:     make(map[uint]*models.Assessment),
		progress:        make(map[progressKey]*models.UserProgress),
		users:           make(map[uint]*models.User),
		achievementDefs: make(map[models.AchievementCode]*models.Achievement),
		streaks:         make(map[uint]*models.StreakRecord),
		nextID:          1000,
	}
}

func (m *mockRepository) id() uint {
	m.nextID++
	return m.nextID
}

func (m *mockRepository) addModule(module *models.Module) *models.Module {
	if module.ID == 0 {
		module.ID = m.id()
	}
	m.modules[module.ID] = module
	return module
}

func (m *mockRepository) addUser(user *models.User) *models.User {
	if user.ID == 0 {
		user.ID = m.id()
	}
	m.users[user.ID] = user
	return user
}

func (m *mockRepository) addAchievementDef(def *models.Achievement) *models.Achievement {
	if def.ID == 0 {
		def.ID = m.id()
	}
	m.achievementDefs[def.Code] = def
	return def
}

// addAssessment assigns IDs through the question/answer graph the way the
// database would.
func (m *mockRepository) addAssessment(assessment *models.Assessment) *models.Assessment {
	m.assignAssessmentIDs(assessment)
	m.assessments[assessment.ID] = assessment
	return assessment
}

func (m *mockRepository) assignAssessmentIDs(assessment *models.Assessment) {
	if assessment.ID == 0 {
		assessment.ID = m.id()
	}
	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		if q.ID == 0 {
			q.ID = m.id()
		}
		q.AssessmentID = assessment.ID
		for j := range q.Answers {
			a := &q.Answers[j]
			if a.ID == 0 {
				a.ID = m.id()
			}
			a.QuestionID = q.ID
		}
	}
}

// ===== Repository interface =====

func (m *mockRepository) Module() repositories.ModuleRepository           { return &mockModuleRepo{m} }
func (m *mockRepository) Assessment() repositories.AssessmentRepository   { return &mockAssessmentRepo{m} }
func (m *mockRepository) Question() repositories.QuestionRepository       { return &mockQuestionRepo{m} }
func (m *mockRepository) Attempt() repositories.AttemptRepository         { return &mockAttemptRepo{m} }
func (m *mockRepository) Progress() repositories.ProgressRepository       { return &mockProgressRepo{m} }
func (m *mockRepository) User() repositories.UserRepository               { return &mockUserRepo{m} }
func (m *mockRepository) Achievement() repositories.AchievementRepository { return &mockAchievementRepo{m} }
func (m *mockRepository) Feedback() repositories.FeedbackRepository       { return &mockFeedbackRepo{m} }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== Module =====

type mockModuleRepo struct{ m *mockRepository }

func (r *mockModuleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	module, ok := r.m.modules[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return module, nil
}

func (r *mockModuleRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	var out []*models.Module
	for _, module := range r.m.modules {
		if filters.IsPublished != nil && module.IsPublished != *filters.IsPublished {
			continue
		}
		if filters.Difficulty != nil && module.Difficulty != *filters.Difficulty {
			continue
		}
		out = append(out, module)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	total := int64(len(out))
	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			out = nil
		} else {
			out = out[filters.Offset:]
		}
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (r *mockModuleRepo) Create(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	r.m.addModule(module)
	return nil
}

func (r *mockModuleRepo) Update(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	r.m.modules[module.ID] = module
	return nil
}

// ===== Assessment =====

type mockAssessmentRepo struct{ m *mockRepository }

func (r *mockAssessmentRepo) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	r.m.addAssessment(assessment)
	return nil
}

func (r *mockAssessmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	assessment, ok := r.m.assessments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return assessment, nil
}

func (r *mockAssessmentRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *mockAssessmentRepo) GetActiveByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (*models.Assessment, error) {
	var found *models.Assessment
	for _, a := range r.m.assessments {
		if a.ModuleID == moduleID && a.IsActive {
			if found == nil || a.ID > found.ID {
				found = a
			}
		}
	}
	if found == nil {
		return nil, repositories.ErrNotFound
	}
	return found, nil
}

func (r *mockAssessmentRepo) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	r.m.assessments[assessment.ID] = assessment
	return nil
}

func (r *mockAssessmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.m.assessments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.m.assessments, id)
	return nil
}

// ===== Question =====

type mockQuestionRepo struct{ m *mockRepository }

func (r *mockQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	assessment, ok := r.m.assessments[question.AssessmentID]
	if !ok {
		return repositories.ErrNotFound
	}
	assessment.Questions = append(assessment.Questions, *question)
	r.m.assignAssessmentIDs(assessment)
	*question = assessment.Questions[len(assessment.Questions)-1]
	return nil
}

func (r *mockQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		if err := r.Create(ctx, tx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *mockQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	for _, a := range r.m.assessments {
		for i := range a.Questions {
			if a.Questions[i].ID == id {
				return &a.Questions[i], nil
			}
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockQuestionRepo) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error) {
	assessment, ok := r.m.assessments[assessmentID]
	if !ok {
		return nil, nil
	}
	out := make([]*models.Question, 0, len(assessment.Questions))
	for i := range assessment.Questions {
		out = append(out, &assessment.Questions[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r *mockQuestionRepo) GetByModuleAndDifficulty(ctx context.Context, tx *gorm.DB, moduleID uint, difficulty models.DifficultyLevel) ([]*models.Question, error) {
	var out []*models.Question
	for _, a := range r.m.assessments {
		if a.ModuleID != moduleID || !a.IsActive {
			continue
		}
		for i := range a.Questions {
			if a.Questions[i].Difficulty == difficulty {
				out = append(out, &a.Questions[i])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *mockQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	assessment, ok := r.m.assessments[question.AssessmentID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i := range assessment.Questions {
		if assessment.Questions[i].ID == question.ID {
			assessment.Questions[i] = *question
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *mockQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	for _, a := range r.m.assessments {
		for i := range a.Questions {
			if a.Questions[i].ID == id {
				a.Questions = append(a.Questions[:i], a.Questions[i+1:]...)
				return nil
			}
		}
	}
	return repositories.ErrNotFound
}

// ===== Attempt =====

type mockAttemptRepo struct{ m *mockRepository }

func (r *mockAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.UserAssessmentAttempt) error {
	attempt.ID = r.m.id()
	for i := range attempt.Answers {
		attempt.Answers[i].ID = r.m.id()
		attempt.Answers[i].AttemptID = attempt.ID
	}
	if assessment, ok := r.m.assessments[attempt.AssessmentID]; ok {
		attempt.Assessment = *assessment
	}
	r.m.attempts = append(r.m.attempts, attempt)
	return nil
}

func (r *mockAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.UserAssessmentAttempt, error) {
	for _, a := range r.m.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockAttemptRepo) CountByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID, assessmentID uint) (int64, error) {
	var count int64
	for _, a := range r.m.attempts {
		if a.UserID == userID && a.AssessmentID == assessmentID {
			count++
		}
	}
	return count, nil
}

func (r *mockAttemptRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.AttemptFilters) ([]*models.UserAssessmentAttempt, int64, error) {
	var all []*models.UserAssessmentAttempt
	for _, a := range r.m.attempts {
		if a.UserID == userID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CompletedAt.After(all[j].CompletedAt) })

	total := int64(len(all))
	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filters.Offset
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *mockAttemptRepo) GetAllByUserWithAnswers(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserAssessmentAttempt, error) {
	var out []*models.UserAssessmentAttempt
	for _, a := range r.m.attempts {
		if a.UserID != userID {
			continue
		}
		// resolve answer references the way the preload would
		for i := range a.Answers {
			ua := &a.Answers[i]
			ua.Answer = nil
			if ua.AnswerID == nil {
				continue
			}
			if assessment, ok := r.m.assessments[a.AssessmentID]; ok {
				for qi := range assessment.Questions {
					for ai := range assessment.Questions[qi].Answers {
						if assessment.Questions[qi].Answers[ai].ID == *ua.AnswerID {
							ua.Answer = &assessment.Questions[qi].Answers[ai]
						}
					}
				}
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (r *mockAttemptRepo) GetModuleStatsByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]repositories.ModuleAttemptStats, error) {
	byModule := map[uint]*repositories.ModuleAttemptStats{}
	scoreSums := map[uint]float64{}

	for _, a := range r.m.attempts {
		if a.UserID != userID {
			continue
		}
		assessment, ok := r.m.assessments[a.AssessmentID]
		if !ok {
			continue
		}
		moduleID := assessment.ModuleID
		stats, ok := byModule[moduleID]
		if !ok {
			title := ""
			if module, ok := r.m.modules[moduleID]; ok {
				title = module.Title
			}
			stats = &repositories.ModuleAttemptStats{ModuleID: moduleID, ModuleTitle: title}
			byModule[moduleID] = stats
		}
		stats.Attempts++
		if a.Passed {
			stats.Passed++
		}
		scoreSums[moduleID] += a.Score
	}

	var out []repositories.ModuleAttemptStats
	for moduleID, stats := range byModule {
		stats.AverageScore = scoreSums[moduleID] / float64(stats.Attempts)
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleID < out[j].ModuleID })
	return out, nil
}

// ===== Progress =====

type mockProgressRepo struct{ m *mockRepository }

func (r *mockProgressRepo) GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uint) (*models.UserProgress, error) {
	progress, ok := r.m.progress[progressKey{userID, moduleID}]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return progress, nil
}

func (r *mockProgressRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserProgress, error) {
	var out []*models.UserProgress
	for key, progress := range r.m.progress {
		if key.UserID == userID {
			if module, ok := r.m.modules[key.ModuleID]; ok {
				progress.Module = *module
			}
			out = append(out, progress)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleID < out[j].ModuleID })
	return out, nil
}

func (r *mockProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	progress.ID = r.m.id()
	r.m.progress[progressKey{progress.UserID, progress.ModuleID}] = progress
	return nil
}

func (r *mockProgressRepo) Update(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	r.m.progress[progressKey{progress.UserID, progress.ModuleID}] = progress
	return nil
}

// ===== User =====

type mockUserRepo struct{ m *mockRepository }

func (r *mockUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	user, ok := r.m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (r *mockUserRepo) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.User, error) {
	for _, user := range r.m.users {
		if user.ExternalID == externalID {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.m.addUser(user)
	return nil
}

// ===== Achievement =====

type mockAchievementRepo struct{ m *mockRepository }

func (r *mockAchievementRepo) ListDefinitions(ctx context.Context, tx *gorm.DB) ([]*models.Achievement, error) {
	var out []*models.Achievement
	for _, def := range r.m.achievementDefs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *mockAchievementRepo) GetDefinitionByCode(ctx context.Context, tx *gorm.DB, code models.AchievementCode) (*models.Achievement, error) {
	def, ok := r.m.achievementDefs[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return def, nil
}

func (r *mockAchievementRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserAchievement, error) {
	var out []*models.UserAchievement
	for _, award := range r.m.userAchievements {
		if award.UserID == userID {
			for _, def := range r.m.achievementDefs {
				if def.ID == award.AchievementID {
					award.Achievement = *def
				}
			}
			out = append(out, award)
		}
	}
	return out, nil
}

func (r *mockAchievementRepo) HasAchievement(ctx context.Context, tx *gorm.DB, userID uint, code models.AchievementCode) (bool, error) {
	def, ok := r.m.achievementDefs[code]
	if !ok {
		return false, nil
	}
	for _, award := range r.m.userAchievements {
		if award.UserID == userID && award.AchievementID == def.ID {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockAchievementRepo) Award(ctx context.Context, tx *gorm.DB, award *models.UserAchievement) error {
	award.ID = r.m.id()
	r.m.userAchievements = append(r.m.userAchievements, award)
	return nil
}

func (r *mockAchievementRepo) GetStreak(ctx context.Context, tx *gorm.DB, userID uint) (*models.StreakRecord, error) {
	streak, ok := r.m.streaks[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return streak, nil
}

func (r *mockAchievementRepo) SaveStreak(ctx context.Context, tx *gorm.DB, streak *models.StreakRecord) error {
	if streak.ID == 0 {
		streak.ID = r.m.id()
	}
	r.m.streaks[streak.UserID] = streak
	return nil
}

// ===== Feedback =====

type mockFeedbackRepo struct{ m *mockRepository }

func (r *mockFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback *models.Feedback) error {
	feedback.ID = r.m.id()
	r.m.feedback = append(r.m.feedback, feedback)
	return nil
}

func (r *mockFeedbackRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.FeedbackFilters) ([]*models.Feedback, int64, error) {
	var out []*models.Feedback
	for _, f := range r.m.feedback {
		if filters.UserID != nil && f.UserID != *filters.UserID {
			continue
		}
		if filters.ModuleID != nil && (f.ModuleID == nil || *f.ModuleID != *filters.ModuleID) {
			continue
		}
		if filters.AssessmentID != nil && (f.AssessmentID == nil || *f.AssessmentID != *filters.AssessmentID) {
			continue
		}
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}
