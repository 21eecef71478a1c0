package database

import "time"

type User struct {
	Id           int
	Name         string
	EmailAddress string
	Role         string
	PasswordHash string
	LastActiveAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Lead struct {
	Id              int
	ExternalId      string
	Name            string
	EmailAddress    string
	Phone           string
	Company         string
	Source          string
	Status          string
	Priority        string
	Score           int
	ExpectedValue   int
	AssignedTo      int
	CreatedBy       int
	LastContactedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Note struct {
	Id        int
	LeadId    int
	Content   string
	CreatedBy int
	CreatedAt time.Time
}

type Deal struct {
	Id        int
	LeadId    int
	Title     string
	Stage     string
	Value     int
	OwnerId   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Task struct {
	Id          int
	LeadId      int
	Title       string
	Description string
	Type        string
	Priority    string
	Status      string
	AssignedTo  int
	DueAt       time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateAccountParams struct {
	Name         string
	EmailAddress string
	Role         string
	PasswordHash string
}

type UpdateAccountParams struct {
	UserId       int
	Name         string
	PasswordHash string
}

type CreateLeadParams struct {
	ExternalId    string
	Name          string
	EmailAddress  string
	Phone         string
	Company       string
	Source        string
	Status        string
	Priority      string
	Score         int
	ExpectedValue int
	AssignedTo    int
	CreatedBy     int
}

type UpdateLeadParams struct {
	LeadId        int
	Name          string
	EmailAddress  string
	Phone         string
	Company       string
	Status        string
	Priority      string
	Score         int
	ExpectedValue int
	AssignedTo    int
}

type CreateNoteParams struct {
	LeadId    int
	Content   string
	CreatedBy int
}

type CreateDealParams struct {
	LeadId  int
	Title   string
	Stage   string
	Value   int
	OwnerId int
}

type CreateTaskParams struct {
	LeadId      int
	Title       string
	Description string
	Type        string
	Priority    string
	AssignedTo  int
	DueAt       time.Time
}
