package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/repository"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"empty checklist", 0, 0, 0},
		{"none completed", 0, 2, 0},
		{"half completed", 1, 2, 50},
		{"one third rounds down", 1, 3, 33},
		{"two thirds rounds up", 2, 3, 67},
		{"all completed", 2, 2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]models.ChecklistItem, tt.total)
			for i := range items {
				items[i] = models.ChecklistItem{Text: "item", Completed: i < tt.completed}
			}
			assert.Equal(t, tt.want, ComputeProgress(items))
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, models.TaskStatusPending, DeriveStatus(0))
	assert.Equal(t, models.TaskStatusInProgress, DeriveStatus(1))
	assert.Equal(t, models.TaskStatusInProgress, DeriveStatus(50))
	assert.Equal(t, models.TaskStatusInProgress, DeriveStatus(99))
	assert.Equal(t, models.TaskStatusCompleted, DeriveStatus(100))
}

type taskServiceTestEnv struct {
	db      *gorm.DB
	service *TaskService
	admin   *models.User
	member  *models.User
}

func setupTaskServiceTestEnv(t *testing.T) taskServiceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.ChecklistItem{},
		&models.Attachment{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	admin := &models.User{Name: "Admin", Username: "admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	member := &models.User{Name: "Member", Username: "member", Email: "member@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(member).Error)

	return taskServiceTestEnv{
		db:      db,
		service: NewTaskService(repository.NewTaskRepository(db)),
		admin:   admin,
		member:  member,
	}
}

func (env taskServiceTestEnv) createTask(t *testing.T, input CreateTaskInput) *models.Task {
	t.Helper()
	if input.Title == "" {
		input.Title = "Test Task"
	}
	if len(input.AssignedTo) == 0 {
		input.AssignedTo = []uint64{env.member.ID}
	}
	if input.CreatorID == 0 {
		input.CreatorID = env.admin.ID
	}
	task, err := env.service.CreateTask(input)
	require.NoError(t, err)
	return task
}

func TestCreateTask_RequiresAssignees(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	_, err := env.service.CreateTask(CreateTaskInput{
		Title:      "No assignees",
		AssignedTo: []uint64{},
		CreatorID:  env.admin.ID,
	})
	require.ErrorIs(t, err, ErrAssigneesRequired)
}

func TestCreateTask_RejectsUnknownAssignee(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	_, err := env.service.CreateTask(CreateTaskInput{
		Title:      "Ghost assignee",
		AssignedTo: []uint64{env.member.ID, 9999},
		CreatorID:  env.admin.ID,
	})
	require.ErrorIs(t, err, ErrInvalidAssignee)
}

func TestCreateTask_DerivesProgressFromChecklist(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{
		Checklist: []ChecklistItemInput{
			{Text: "A", Completed: true},
			{Text: "B", Completed: false},
		},
	})

	assert.Equal(t, 50, task.Progress)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.Len(t, task.Checklist, 2)
}

func TestChecklistLifecycle(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{
		Checklist: []ChecklistItemInput{
			{Text: "A", Completed: false},
			{Text: "B", Completed: false},
		},
	})
	assert.Equal(t, 0, task.Progress)
	assert.Equal(t, models.TaskStatusPending, task.Status)

	task, err := env.service.UpdateChecklist(task.ID, env.member.ID, models.RoleMember, []ChecklistItemInput{
		{Text: "A", Completed: true},
		{Text: "B", Completed: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)

	task, err = env.service.UpdateChecklist(task.ID, env.member.ID, models.RoleMember, []ChecklistItemInput{
		{Text: "A", Completed: true},
		{Text: "B", Completed: false},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, task.Progress)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
}

func TestUpdateChecklist_RejectsBlankTextWithoutMutation(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{
		Checklist: []ChecklistItemInput{{Text: "Keep me", Completed: false}},
	})

	_, err := env.service.UpdateChecklist(task.ID, env.member.ID, models.RoleMember, []ChecklistItemInput{
		{Text: "", Completed: true},
	})
	require.ErrorIs(t, err, ErrChecklistItemText)

	// The rejected update must leave the task untouched
	reloaded, err := env.service.GetTask(task.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Checklist, 1)
	assert.Equal(t, "Keep me", reloaded.Checklist[0].Text)
	assert.False(t, reloaded.Checklist[0].Completed)
	assert.Equal(t, 0, reloaded.Progress)
	assert.Equal(t, models.TaskStatusPending, reloaded.Status)
}

func TestUpdateChecklist_ForbiddenForNonAssignee(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	outsider := &models.User{Name: "Outsider", Username: "outsider", Email: "outsider@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, env.db.Create(outsider).Error)

	task := env.createTask(t, CreateTaskInput{})

	_, err := env.service.UpdateChecklist(task.ID, outsider.ID, models.RoleMember, []ChecklistItemInput{
		{Text: "A", Completed: false},
	})
	require.ErrorIs(t, err, ErrNotTaskAssignee)

	// Admins may always update
	_, err = env.service.UpdateChecklist(task.ID, outsider.ID, models.RoleAdmin, []ChecklistItemInput{
		{Text: "A", Completed: false},
	})
	require.NoError(t, err)
}

func TestUpdateStatus_CompletedForcesChecklist(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{
		Checklist: []ChecklistItemInput{
			{Text: "A", Completed: false},
			{Text: "B", Completed: true},
		},
	})

	task, err := env.service.UpdateStatus(task.ID, env.member.ID, models.RoleMember, models.TaskStatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	for _, item := range task.Checklist {
		assert.True(t, item.Completed)
	}
}

func TestUpdateStatus_DirectDowngradeLeavesChecklist(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{
		Checklist: []ChecklistItemInput{{Text: "A", Completed: true}},
	})
	require.Equal(t, models.TaskStatusCompleted, task.Status)

	// A direct status write does not touch the checklist; the inconsistency
	// persists until the next checklist replacement
	task, err := env.service.UpdateStatus(task.ID, env.member.ID, models.RoleMember, models.TaskStatusPending)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, 100, task.Progress)
	require.Len(t, task.Checklist, 1)
	assert.True(t, task.Checklist[0].Completed)
}

func TestUpdateStatus_ForbiddenForNonAssignee(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	outsider := &models.User{Name: "Outsider", Username: "outsider", Email: "outsider@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, env.db.Create(outsider).Error)

	task := env.createTask(t, CreateTaskInput{})

	_, err := env.service.UpdateStatus(task.ID, outsider.ID, models.RoleMember, models.TaskStatusCompleted)
	require.ErrorIs(t, err, ErrNotTaskAssignee)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{})

	_, err := env.service.UpdateStatus(task.ID, env.member.ID, models.RoleMember, models.TaskStatus("Archived"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListTasks_MemberSeesOnlyAssignedTasks(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	mine := env.createTask(t, CreateTaskInput{Title: "Mine", AssignedTo: []uint64{env.member.ID}})
	env.createTask(t, CreateTaskInput{Title: "Not mine", AssignedTo: []uint64{env.admin.ID}})

	tasks, summary, err := env.service.ListTasks(repository.TaskScope{UserID: env.member.ID, Role: models.RoleMember}, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, mine.ID, tasks[0].ID)
	assert.Equal(t, int64(1), summary.All)

	tasks, summary, err = env.service.ListTasks(repository.TaskScope{UserID: env.admin.ID, Role: models.RoleAdmin}, nil)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, int64(2), summary.All)
}

func TestListTasks_SummaryIgnoresStatusFilter(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	env.createTask(t, CreateTaskInput{Title: "Pending one"})
	env.createTask(t, CreateTaskInput{
		Title:     "Done one",
		Checklist: []ChecklistItemInput{{Text: "A", Completed: true}},
	})

	completed := models.TaskStatusCompleted
	tasks, summary, err := env.service.ListTasks(repository.Global(), &completed)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskStatusCompleted, tasks[0].Status)

	assert.Equal(t, int64(2), summary.All)
	assert.Equal(t, int64(1), summary.Pending)
	assert.Equal(t, int64(1), summary.Completed)
}

func TestListTasks_RejectsUnknownStatusFilter(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	bogus := models.TaskStatus("Archived")
	_, _, err := env.service.ListTasks(repository.Global(), &bogus)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateTask_PartialFields(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{
		Title:       "Original",
		Description: "Original description",
		Priority:    models.TaskPriorityHigh,
	})

	empty := ""
	updated, err := env.service.UpdateTask(task.ID, UpdateTaskInput{Description: &empty})
	require.NoError(t, err)

	// Explicitly supplied empty string clears the field, everything else stays
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, models.TaskPriorityHigh, updated.Priority)
}

func TestUpdateTask_ChecklistReplacementDerivesStatus(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{})

	checklist := []ChecklistItemInput{
		{Text: "A", Completed: true},
		{Text: "B", Completed: true},
	}
	updated, err := env.service.UpdateTask(task.ID, UpdateTaskInput{Checklist: &checklist})
	require.NoError(t, err)

	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, models.TaskStatusCompleted, updated.Status)
}

func TestUpdateTask_EmptyAssigneesRejected(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{})

	noAssignees := []uint64{}
	_, err := env.service.UpdateTask(task.ID, UpdateTaskInput{AssignedTo: &noAssignees})
	require.ErrorIs(t, err, ErrAssigneesRequired)
}

func TestDeleteTask(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	task := env.createTask(t, CreateTaskInput{})

	require.NoError(t, env.service.DeleteTask(task.ID))
	require.ErrorIs(t, env.service.DeleteTask(task.ID), ErrTaskNotFound)

	_, err := env.service.GetTask(task.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	// Children must not survive the task
	var orphans int64
	require.NoError(t, env.db.Model(&models.TaskAssignment{}).Where("task_id = ?", task.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestDashboard_OverdueCount(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	yesterday := time.Now().Add(-24 * time.Hour)
	overdue := env.createTask(t, CreateTaskInput{
		Title:     "Overdue",
		DueDate:   &yesterday,
		Checklist: []ChecklistItemInput{{Text: "A", Completed: true}, {Text: "B", Completed: false}},
	})
	require.Equal(t, models.TaskStatusInProgress, overdue.Status)

	data, err := env.service.Dashboard(repository.Global())
	require.NoError(t, err)
	assert.Equal(t, int64(1), data.Statistics.OverdueTasks)

	// Completing the task removes it from the overdue count
	_, err = env.service.UpdateStatus(overdue.ID, env.member.ID, models.RoleMember, models.TaskStatusCompleted)
	require.NoError(t, err)

	data, err = env.service.Dashboard(repository.Global())
	require.NoError(t, err)
	assert.Equal(t, int64(0), data.Statistics.OverdueTasks)
	assert.Equal(t, int64(1), data.Statistics.CompletedTasks)
}

func TestDashboard_PerUserScope(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	env.createTask(t, CreateTaskInput{Title: "Mine", AssignedTo: []uint64{env.member.ID}})
	env.createTask(t, CreateTaskInput{Title: "Someone else's", AssignedTo: []uint64{env.admin.ID}, Priority: models.TaskPriorityHigh})

	data, err := env.service.Dashboard(repository.AssignedOnly(env.member.ID))
	require.NoError(t, err)

	assert.Equal(t, int64(1), data.Statistics.TotalTasks)
	assert.Equal(t, int64(1), data.TaskDistribution["All"])
	assert.Equal(t, int64(1), data.PriorityLevels["Medium"])
	assert.Equal(t, int64(0), data.PriorityLevels["High"])
	require.Len(t, data.RecentTasks, 1)
	assert.Equal(t, "Mine", data.RecentTasks[0].Title)
}

func TestDashboard_RecentTasksLimitAndOrder(t *testing.T) {
	env := setupTaskServiceTestEnv(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		task := env.createTask(t, CreateTaskInput{Title: "Task"})
		// Space creation times out so the ordering is deterministic
		createdAt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, env.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("created_at", createdAt).Error)
	}

	data, err := env.service.Dashboard(repository.Global())
	require.NoError(t, err)
	require.Len(t, data.RecentTasks, 10)

	for i := 1; i < len(data.RecentTasks); i++ {
		assert.False(t, data.RecentTasks[i].CreatedAt.After(data.RecentTasks[i-1].CreatedAt))
	}
}
