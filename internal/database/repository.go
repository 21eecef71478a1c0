package database

type LeadStreamRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	UpdateLastActive(accountId int) error
	CreateLead(params CreateLeadParams) (Lead, error)
	GetLeadById(leadId int) (Lead, error)
	ListLeads(assignedTo int, status string, limit int) ([]Lead, error)
	UpdateLead(params UpdateLeadParams) (Lead, error)
	DeleteLead(leadId int) error
	CreateNote(params CreateNoteParams) (Note, error)
	ListNotesByLeadId(leadId int) ([]Note, error)
	CreateDeal(params CreateDealParams) (Deal, error)
	ListDeals() ([]Deal, error)
	UpdateDealStage(dealId int, stage string) (Deal, error)
	CreateTask(params CreateTaskParams) (Task, error)
	ListTasks(assignedTo int) ([]Task, error)
	UpdateTaskStatus(taskId int, status string) (Task, error)
}
