package model

import "time"

// AuditAction is the kind of state transition recorded in the audit log.
type AuditAction string

const (
	ActionActivate         AuditAction = "activate"
	ActionDeactivate       AuditAction = "deactivate"
	ActionAddAlias         AuditAction = "add_alias"
	ActionOverrideLabel    AuditAction = "override_label"
	ActionUpdateAttributes AuditAction = "update_attributes"
	ActionCreateEntity     AuditAction = "create_entity"
	ActionDeleteEntity     AuditAction = "delete_entity"
)

// AuditEntry is one append-only record of a mutation on a canonical
// entity. The log itself is never edited or truncated.
type AuditEntry struct {
	ID         int64             `json:"id"`
	EntityType EntityType        `json:"entityType"`
	EntityUID  string            `json:"entityUid"`
	Action     AuditAction       `json:"action"`
	OldValue   string            `json:"oldValue"`
	NewValue   string            `json:"newValue"`
	Reason     string            `json:"reason"`
	Actor      string            `json:"actor"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// AuditFilter narrows audit queries. Zero values mean "no constraint".
type AuditFilter struct {
	EntityType EntityType
	EntityUID  string
	Action     AuditAction
	Actor      string
	Since      time.Time
	Until      time.Time
	Limit      int
}
