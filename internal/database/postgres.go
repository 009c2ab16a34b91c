package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/masahu84/Korvalia-backend/internal/models"
)

// DB is the PostgreSQL backend. It covers the chat and lead tables, which
// is what deployments running Postgres use this service for; the managed
// catalog stays on the MySQL backend.
type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the chat and lead tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS chat_conversations (
		id SERIAL PRIMARY KEY,
		session_id VARCHAR(64) NOT NULL UNIQUE,
		visitor_name VARCHAR(120) NOT NULL DEFAULT '',
		visitor_email VARCHAR(255) NOT NULL DEFAULT '',
		visitor_phone VARCHAR(32) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
		source VARCHAR(30) NOT NULL DEFAULT 'widget',
		property_ref VARCHAR(32) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id SERIAL PRIMARY KEY,
		conversation_id INTEGER NOT NULL REFERENCES chat_conversations(id) ON DELETE CASCADE,
		role VARCHAR(10) NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS leads (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		name VARCHAR(120) NOT NULL DEFAULT '',
		phone VARCHAR(32) NOT NULL DEFAULT '',
		source VARCHAR(30) NOT NULL DEFAULT 'cta_home',
		status VARCHAR(20) NOT NULL DEFAULT 'NEW',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS company_settings (
		id SERIAL PRIMARY KEY,
		company_name VARCHAR(120) NOT NULL DEFAULT '',
		phone VARCHAR(32) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		address VARCHAR(255) NOT NULL DEFAULT '',
		schedule TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_status ON chat_conversations(status);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON chat_conversations(updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON chat_messages(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
	`
	_, err := db.conn.Exec(query)
	return err
}

// FindBySession returns the conversation for a session, or (nil, nil) when
// the session is new.
func (db *DB) FindBySession(sessionID string) (*models.ChatConversation, error) {
	query := `
		SELECT id, session_id, visitor_name, visitor_email, visitor_phone,
			   status, source, property_ref, created_at, updated_at
		FROM chat_conversations
		WHERE session_id = $1
	`
	var conv models.ChatConversation
	err := db.conn.QueryRow(query, sessionID).Scan(
		&conv.ID, &conv.SessionID, &conv.VisitorName, &conv.VisitorEmail, &conv.VisitorPhone,
		&conv.Status, &conv.Source, &conv.PropertyRef, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (db *DB) Create(conv *models.ChatConversation) error {
	if conv.Status == "" {
		conv.Status = models.ChatStatusActive
	}
	if conv.Source == "" {
		conv.Source = "widget"
	}
	query := `
		INSERT INTO chat_conversations (session_id, visitor_name, visitor_email, visitor_phone, status, source, property_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return db.conn.QueryRow(query,
		conv.SessionID, conv.VisitorName, conv.VisitorEmail, conv.VisitorPhone,
		conv.Status, conv.Source, conv.PropertyRef).
		Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
}

// SaveMessage appends a turn and touches the conversation timestamp.
func (db *DB) SaveMessage(msg *models.ChatMessage) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO chat_messages (conversation_id, role, content, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, msg.ConversationID, msg.Role, msg.Content, msg.Metadata).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`UPDATE chat_conversations SET updated_at = NOW() WHERE id = $1`, msg.ConversationID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// CaptureContact records visitor data and marks the conversation as a lead.
// Empty fields keep previously captured values.
func (db *DB) CaptureContact(conversationID uint, name, email, phone string) error {
	query := `
		UPDATE chat_conversations SET
			visitor_name = CASE WHEN $2 <> '' THEN $2 ELSE visitor_name END,
			visitor_email = CASE WHEN $3 <> '' THEN $3 ELSE visitor_email END,
			visitor_phone = CASE WHEN $4 <> '' THEN $4 ELSE visitor_phone END,
			status = $5,
			updated_at = NOW()
		WHERE id = $1
	`
	_, err := db.conn.Exec(query, conversationID, name, email, phone, models.ChatStatusLeadCaptured)
	return err
}

// History returns a session's transcript, oldest first.
func (db *DB) History(sessionID string) ([]models.ChatMessage, error) {
	conv, err := db.FindBySession(sessionID)
	if err != nil || conv == nil {
		return []models.ChatMessage{}, err
	}

	rows, err := db.conn.Query(`
		SELECT id, conversation_id, role, content, metadata, created_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conv.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Metadata, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateLead registers a contact, deduplicating by lowercased email.
func (db *DB) CreateLead(email, name, phone, source string) (*models.Lead, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !models.ValidEmail(email) {
		return nil, models.ErrInvalidEmail
	}
	if source == "" {
		source = "cta_home"
	}

	lead := &models.Lead{Email: email, Name: name, Phone: phone, Source: source}

	var existingID uint
	err := db.conn.QueryRow(`SELECT id FROM leads WHERE email = $1`, email).Scan(&existingID)
	if err == nil {
		err = db.conn.QueryRow(`
			UPDATE leads SET updated_at = NOW() WHERE id = $1
			RETURNING id, email, name, phone, source, status, notes, created_at, updated_at
		`, existingID).Scan(&lead.ID, &lead.Email, &lead.Name, &lead.Phone,
			&lead.Source, &lead.Status, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt)
		return lead, err
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	lead.Status = models.LeadStatusNew
	err = db.conn.QueryRow(`
		INSERT INTO leads (email, name, phone, source, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, lead.Email, lead.Name, lead.Phone, lead.Source, lead.Status).
		Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (db *DB) ListLeads() ([]models.Lead, error) {
	rows, err := db.conn.Query(`
		SELECT id, email, name, phone, source, status, notes, created_at, updated_at
		FROM leads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		var lead models.Lead
		if err := rows.Scan(&lead.ID, &lead.Email, &lead.Name, &lead.Phone,
			&lead.Source, &lead.Status, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Settings returns the singleton company profile, creating a default row on
// first access.
func (db *DB) Settings() (*models.CompanySettings, error) {
	var settings models.CompanySettings
	err := db.conn.QueryRow(`
		SELECT id, company_name, phone, email, address, schedule, created_at, updated_at
		FROM company_settings
		ORDER BY id ASC
		LIMIT 1
	`).Scan(&settings.ID, &settings.CompanyName, &settings.Phone, &settings.Email,
		&settings.Address, &settings.Schedule, &settings.CreatedAt, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		err = db.conn.QueryRow(`
			INSERT INTO company_settings (company_name) VALUES ('')
			RETURNING id, created_at, updated_at
		`).Scan(&settings.ID, &settings.CreatedAt, &settings.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// CloseStaleConversations closes ACTIVE conversations with no activity
// since the cutoff.
func (db *DB) CloseStaleConversations(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(`
		UPDATE chat_conversations SET status = $1 WHERE status = $2 AND updated_at < $3
	`, models.ChatStatusClosed, models.ChatStatusActive, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteConversationsBefore removes closed conversations older than the
// cutoff; messages cascade.
func (db *DB) DeleteConversationsBefore(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(`
		DELETE FROM chat_conversations WHERE status = $1 AND updated_at < $2
	`, models.ChatStatusClosed, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
