package database

import (
	"github.com/stretchr/testify/mock"
)

type MockLeadStreamRepository struct {
	mock.Mock
}

func (m *MockLeadStreamRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockLeadStreamRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLeadStreamRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLeadStreamRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLeadStreamRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLeadStreamRepository) UpdateLastActive(accountId int) error {
	args := m.Called(accountId)
	return args.Error(0)
}
func (m *MockLeadStreamRepository) CreateLead(params CreateLeadParams) (Lead, error) {
	args := m.Called(params)
	return args.Get(0).(Lead), args.Error(1)
}
func (m *MockLeadStreamRepository) GetLeadById(leadId int) (Lead, error) {
	args := m.Called(leadId)
	return args.Get(0).(Lead), args.Error(1)
}
func (m *MockLeadStreamRepository) ListLeads(assignedTo int, status string, limit int) ([]Lead, error) {
	args := m.Called(assignedTo, status, limit)
	return args.Get(0).([]Lead), args.Error(1)
}
func (m *MockLeadStreamRepository) UpdateLead(params UpdateLeadParams) (Lead, error) {
	args := m.Called(params)
	return args.Get(0).(Lead), args.Error(1)
}
func (m *MockLeadStreamRepository) DeleteLead(leadId int) error {
	args := m.Called(leadId)
	return args.Error(0)
}
func (m *MockLeadStreamRepository) CreateNote(params CreateNoteParams) (Note, error) {
	args := m.Called(params)
	return args.Get(0).(Note), args.Error(1)
}
func (m *MockLeadStreamRepository) ListNotesByLeadId(leadId int) ([]Note, error) {
	args := m.Called(leadId)
	return args.Get(0).([]Note), args.Error(1)
}
func (m *MockLeadStreamRepository) CreateDeal(params CreateDealParams) (Deal, error) {
	args := m.Called(params)
	return args.Get(0).(Deal), args.Error(1)
}
func (m *MockLeadStreamRepository) ListDeals() ([]Deal, error) {
	args := m.Called()
	return args.Get(0).([]Deal), args.Error(1)
}
func (m *MockLeadStreamRepository) UpdateDealStage(dealId int, stage string) (Deal, error) {
	args := m.Called(dealId, stage)
	return args.Get(0).(Deal), args.Error(1)
}
func (m *MockLeadStreamRepository) CreateTask(params CreateTaskParams) (Task, error) {
	args := m.Called(params)
	return args.Get(0).(Task), args.Error(1)
}
func (m *MockLeadStreamRepository) ListTasks(assignedTo int) ([]Task, error) {
	args := m.Called(assignedTo)
	return args.Get(0).([]Task), args.Error(1)
}
func (m *MockLeadStreamRepository) UpdateTaskStatus(taskId int, status string) (Task, error) {
	args := m.Called(taskId, status)
	return args.Get(0).(Task), args.Error(1)
}
