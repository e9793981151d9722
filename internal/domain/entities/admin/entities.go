// Package admin defines the global-database entities: registered tenants,
// users, the widget catalog and per-role dashboard templates.
package admin

import (
	"encoding/json"
	"time"
)

// Tenant is a registered customer. ConfigTenant carries the tenant
// database name and encrypted connection overrides.
type Tenant struct {
	TenantID        int            `json:"tenant_id"`
	CompanyName     string         `json:"company_name"`
	AssociatedSince time.Time      `json:"associated_since"`
	IsActive        bool           `json:"is_active"`
	ConfigTenant    map[string]any `json:"config_tenant,omitempty"`
}

// DBName returns the tenant database name from config_tenant, or ""
// when the tenant carries no database binding.
func (t Tenant) DBName() string {
	if t.ConfigTenant == nil {
		return ""
	}
	if name, ok := t.ConfigTenant["db_name"].(string); ok {
		return name
	}
	return ""
}

// User is a dashboard user scoped to a tenant.
type User struct {
	UserID       int       `json:"user_id"`
	TenantID     int       `json:"tenant_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WidgetCatalogEntry maps a widget class name to its numeric identity
// and display name.
type WidgetCatalogEntry struct {
	WidgetID    int    `json:"widget_id"`
	WidgetName  string `json:"widget_name"`
	Description string `json:"description,omitempty"`
}

// DashboardTemplate is a per-tenant, per-role layout definition. The
// layout_config JSON selects which widgets and filters the role sees.
type DashboardTemplate struct {
	TemplateID   int             `json:"template_id"`
	TenantID     int             `json:"tenant_id"`
	RoleAccess   string          `json:"role_access"`
	LayoutConfig json.RawMessage `json:"layout_config"`
}

// LayoutConfig is the parsed form of DashboardTemplate.LayoutConfig.
type LayoutConfig struct {
	EnabledWidgetIDs []int          `json:"enabled_widget_ids"`
	EnabledFilterIDs []int          `json:"enabled_filter_ids"`
	Raw              map[string]any `json:"raw_config,omitempty"`
}

// UserLogin records a login attempt for auditing.
type UserLogin struct {
	LoginID   int64     `json:"login_id"`
	UserID    int       `json:"user_id"`
	LoginAt   time.Time `json:"login_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	Success   bool      `json:"success"`
}

// AuditLog records an administrative action.
type AuditLog struct {
	AuditID   int64     `json:"audit_id"`
	UserID    int       `json:"user_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
