package model

import "time"

// EntityType is the kind of canonical entity tracked by the registry.
type EntityType string

const (
	EntityStation EntityType = "station"
	EntityTool    EntityType = "tool"
	EntityRobot   EntityType = "robot"
)

// EntityStatus is the lifecycle state of a canonical entity.
type EntityStatus string

const (
	StatusActive   EntityStatus = "active"
	StatusInactive EntityStatus = "inactive"
)

// CanonicalEntity is one stable station/tool/robot record. UID is
// assigned once and never reused; Key may be redirected over time via
// alias rules, UID is the only handle external systems may keep.
type CanonicalEntity struct {
	UID       string            `json:"uid"`
	Type      EntityType        `json:"type"`
	Key       string            `json:"key"`
	PlantKey  string            `json:"plantKey"`
	Labels    map[string]string `json:"labels"`
	Status    EntityStatus      `json:"status"`
	LastSeen  string            `json:"lastSeenRunId"`
	CreatedAt time.Time         `json:"createdAt"`
}

// AliasRule redirects a historical or alternate key to a canonical uid.
// At most one active rule may exist per (entityType, fromKey).
type AliasRule struct {
	ID        int64      `json:"id"`
	Type      EntityType `json:"type"`
	FromKey   string     `json:"fromKey"`
	TargetUID string     `json:"targetUid"`
	Reason    string     `json:"reason"`
	Actor     string     `json:"actor"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
}
