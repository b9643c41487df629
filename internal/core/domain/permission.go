package domain

import "time"

// Permission is an atomic capability identified by its (resource, action) pair.
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the canonical "resource:action" string.
func (p Permission) Key() string {
	return PermissionKey(p.Resource, p.Action)
}

// PermissionKey formats a resource/action pair the way tokens and checks expect it.
func PermissionKey(resource, action string) string {
	return resource + ":" + action
}
