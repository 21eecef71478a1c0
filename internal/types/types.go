package types

import (
	"time"
)

// Role is the closed set of account roles. The allowed-agent set is
// defined by CanActAsAgent, not by string comparison at call sites.
type Role string

const (
	RoleMember  Role = "member"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a stored role string to a Role, defaulting unknown
// values to RoleMember.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleManager:
		return RoleManager
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// CanActAsAgent reports whether a role is permitted to act as a live
// support agent.
func CanActAsAgent(r Role) bool {
	return r == RoleManager || r == RoleAdmin
}

type User struct {
	Id           int       `json:"id"`
	Name         string    `json:"name"`
	EmailAddress string    `json:"email_address,omitempty"`
	Role         Role      `json:"role,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Lead struct {
	Id              int       `json:"id"`
	ExternalId      string    `json:"external_id"`
	Name            string    `json:"name"`
	EmailAddress    string    `json:"email_address"`
	Phone           string    `json:"phone,omitempty"`
	Company         string    `json:"company,omitempty"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
	Priority        string    `json:"priority"`
	Score           int       `json:"score"`
	ExpectedValue   int       `json:"expected_value"`
	AssignedTo      int       `json:"assigned_to"`
	CreatedBy       int       `json:"created_by"`
	LastContactedAt time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

type Note struct {
	Id        int       `json:"id"`
	LeadId    int       `json:"lead_id"`
	Content   string    `json:"content"`
	CreatedBy int       `json:"created_by"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Deal struct {
	Id        int       `json:"id"`
	LeadId    int       `json:"lead_id"`
	Title     string    `json:"title"`
	Stage     string    `json:"stage"`
	Value     int       `json:"value"`
	OwnerId   int       `json:"owner_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Task struct {
	Id          int       `json:"id"`
	LeadId      int       `json:"lead_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	AssignedTo  int       `json:"assigned_to"`
	DueAt       time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// ChatContextMessage is one entry of the recent-message window a
// requester sends along with a live-agent transfer request. Transcripts
// are stored client-side, so this window is the only context agents see.
type ChatContextMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}
