package database

import (
	"database/sql"
	"time"
)

func (db *PgLeadStreamRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (name, email, role, password_hash, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, name, email, role",
		params.Name,
		params.EmailAddress,
		params.Role,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.Role,
	)

	return u, err
}

func (db *PgLeadStreamRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET name = $2, password_hash = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING id, name, email, role",
		params.UserId,
		params.Name,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.Role,
	)

	return u, err
}

func (db *PgLeadStreamRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, role, password_hash, created_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgLeadStreamRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, role, password_hash, created_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgLeadStreamRepository) UpdateLastActive(accountId int) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET last_active_at = $2 WHERE id = $1",
		accountId,
		time.Now().UTC(),
	)
	return err
}

const leadColumns = "id, external_id, name, email, phone, company, source, status, " +
	"priority, score, expected_value, assigned_to, created_by, last_contacted_at, created_at"

func scanLead(row interface{ Scan(...any) error }) (Lead, error) {
	var l Lead
	var lastContacted sql.NullTime
	err := row.Scan(
		&l.Id,
		&l.ExternalId,
		&l.Name,
		&l.EmailAddress,
		&l.Phone,
		&l.Company,
		&l.Source,
		&l.Status,
		&l.Priority,
		&l.Score,
		&l.ExpectedValue,
		&l.AssignedTo,
		&l.CreatedBy,
		&lastContacted,
		&l.CreatedAt,
	)
	if lastContacted.Valid {
		l.LastContactedAt = lastContacted.Time
	}

	return l, err
}

func (db *PgLeadStreamRepository) CreateLead(params CreateLeadParams) (Lead, error) {
	row := db.conn.QueryRow(
		"INSERT INTO leads (external_id, name, email, phone, company, source, status, "+
			"priority, score, expected_value, assigned_to, created_by, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) "+
			"RETURNING "+leadColumns,
		params.ExternalId,
		params.Name,
		params.EmailAddress,
		params.Phone,
		params.Company,
		params.Source,
		params.Status,
		params.Priority,
		params.Score,
		params.ExpectedValue,
		params.AssignedTo,
		params.CreatedBy,
		time.Now().UTC(),
	)

	return scanLead(row)
}

func (db *PgLeadStreamRepository) GetLeadById(leadId int) (Lead, error) {
	row := db.conn.QueryRow(
		"SELECT "+leadColumns+" FROM leads WHERE id = $1 LIMIT 1",
		leadId,
	)

	return scanLead(row)
}

func (db *PgLeadStreamRepository) ListLeads(assignedTo int, status string, limit int) ([]Lead, error) {
	rows, err := db.conn.Query(
		"SELECT "+leadColumns+" FROM leads "+
			"WHERE ($1 = 0 OR assigned_to = $1) AND ($2 = '' OR status = $2) "+
			"ORDER BY created_at DESC LIMIT $3",
		assignedTo,
		status,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}

	return leads, rows.Err()
}

func (db *PgLeadStreamRepository) UpdateLead(params UpdateLeadParams) (Lead, error) {
	row := db.conn.QueryRow(
		"UPDATE leads SET name = $2, email = $3, phone = $4, company = $5, status = $6, "+
			"priority = $7, score = $8, expected_value = $9, assigned_to = $10, updated_at = $11 "+
			"WHERE id = $1 RETURNING "+leadColumns,
		params.LeadId,
		params.Name,
		params.EmailAddress,
		params.Phone,
		params.Company,
		params.Status,
		params.Priority,
		params.Score,
		params.ExpectedValue,
		params.AssignedTo,
		time.Now().UTC(),
	)

	return scanLead(row)
}

func (db *PgLeadStreamRepository) DeleteLead(leadId int) error {
	res, err := db.conn.Exec("DELETE FROM leads WHERE id = $1", leadId)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgLeadStreamRepository) CreateNote(params CreateNoteParams) (Note, error) {
	row := db.conn.QueryRow(
		"INSERT INTO lead_notes (lead_id, content, created_by, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, lead_id, content, created_by, created_at",
		params.LeadId,
		params.Content,
		params.CreatedBy,
		time.Now().UTC(),
	)

	var n Note
	err := row.Scan(
		&n.Id,
		&n.LeadId,
		&n.Content,
		&n.CreatedBy,
		&n.CreatedAt,
	)

	return n, err
}

func (db *PgLeadStreamRepository) ListNotesByLeadId(leadId int) ([]Note, error) {
	rows, err := db.conn.Query(
		"SELECT id, lead_id, content, created_by, created_at FROM lead_notes "+
			"WHERE lead_id = $1 ORDER BY created_at ASC",
		leadId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.Id, &n.LeadId, &n.Content, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

func (db *PgLeadStreamRepository) CreateDeal(params CreateDealParams) (Deal, error) {
	row := db.conn.QueryRow(
		"INSERT INTO deals (lead_id, title, stage, value, owner_id, created_at) "+
			"VALUES (NULLIF($1, 0), $2, $3, $4, $5, $6) "+
			"RETURNING id, COALESCE(lead_id, 0), title, stage, value, owner_id, created_at",
		params.LeadId,
		params.Title,
		params.Stage,
		params.Value,
		params.OwnerId,
		time.Now().UTC(),
	)

	var d Deal
	err := row.Scan(
		&d.Id,
		&d.LeadId,
		&d.Title,
		&d.Stage,
		&d.Value,
		&d.OwnerId,
		&d.CreatedAt,
	)

	return d, err
}

func (db *PgLeadStreamRepository) ListDeals() ([]Deal, error) {
	rows, err := db.conn.Query(
		"SELECT id, COALESCE(lead_id, 0), title, stage, value, owner_id, created_at FROM deals " +
			"ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.Id, &d.LeadId, &d.Title, &d.Stage, &d.Value, &d.OwnerId, &d.CreatedAt); err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}

	return deals, rows.Err()
}

func (db *PgLeadStreamRepository) UpdateDealStage(dealId int, stage string) (Deal, error) {
	row := db.conn.QueryRow(
		"UPDATE deals SET stage = $2, updated_at = $3 WHERE id = $1 "+
			"RETURNING id, COALESCE(lead_id, 0), title, stage, value, owner_id, created_at",
		dealId,
		stage,
		time.Now().UTC(),
	)

	var d Deal
	err := row.Scan(
		&d.Id,
		&d.LeadId,
		&d.Title,
		&d.Stage,
		&d.Value,
		&d.OwnerId,
		&d.CreatedAt,
	)

	return d, err
}

func (db *PgLeadStreamRepository) CreateTask(params CreateTaskParams) (Task, error) {
	row := db.conn.QueryRow(
		"INSERT INTO tasks (lead_id, title, description, type, priority, status, assigned_to, due_at, created_at) "+
			"VALUES (NULLIF($1, 0), $2, $3, $4, $5, 'open', $6, $7, $8) "+
			"RETURNING id, COALESCE(lead_id, 0), title, description, type, priority, status, assigned_to, due_at, created_at",
		params.LeadId,
		params.Title,
		params.Description,
		params.Type,
		params.Priority,
		params.AssignedTo,
		params.DueAt,
		time.Now().UTC(),
	)

	return scanTask(row)
}

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	var dueAt sql.NullTime
	err := row.Scan(
		&t.Id,
		&t.LeadId,
		&t.Title,
		&t.Description,
		&t.Type,
		&t.Priority,
		&t.Status,
		&t.AssignedTo,
		&dueAt,
		&t.CreatedAt,
	)
	if dueAt.Valid {
		t.DueAt = dueAt.Time
	}

	return t, err
}

func (db *PgLeadStreamRepository) ListTasks(assignedTo int) ([]Task, error) {
	rows, err := db.conn.Query(
		"SELECT id, COALESCE(lead_id, 0), title, description, type, priority, status, assigned_to, due_at, created_at "+
			"FROM tasks WHERE ($1 = 0 OR assigned_to = $1) ORDER BY due_at ASC NULLS LAST",
		assignedTo,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func (db *PgLeadStreamRepository) UpdateTaskStatus(taskId int, status string) (Task, error) {
	row := db.conn.QueryRow(
		"UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1 "+
			"RETURNING id, COALESCE(lead_id, 0), title, description, type, priority, status, assigned_to, due_at, created_at",
		taskId,
		status,
		time.Now().UTC(),
	)

	return scanTask(row)
}
