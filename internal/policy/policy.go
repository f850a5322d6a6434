package policy

import (
	"errors"
	"strings"
)

type Role string

const (
	// RoleReadOnly users may only call read-only tools against their
	// allowed clusters.
	RoleReadOnly Role = "readonly"
	// RoleAdmin users may call any registered tool against any cluster.
	RoleAdmin Role = "admin"
)

type User struct {
	ID              string
	Role            Role
	AllowedClusters []string
	AllowedToolsets []string
	AllowedTools    []string
}

type Authorizer struct {
}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// Authenticate resolves the caller from an API key. The stdio transport is
// single-user, so an absent key maps to the local admin.
func (a *Authorizer) Authenticate(apiKey string) (User, error) {
	_ = apiKey
	return User{ID: "local", Role: RoleAdmin}, nil
}

// AuthorizeTool checks toolset and tool allowlists plus the read-only role
// gate. safety is the tool's declared safety class ("read_only", "write",
// "risky_write", "destructive").
func (a *Authorizer) AuthorizeTool(user User, toolsetID, toolName, safety string) error {
	if user.Role == RoleReadOnly && safety != "read_only" {
		return errors.New("tool not permitted for read-only role")
	}
	if len(user.AllowedToolsets) > 0 && !contains(user.AllowedToolsets, toolsetID) {
		return errors.New("toolset not allowed")
	}
	if len(user.AllowedTools) > 0 && !contains(user.AllowedTools, toolName) {
		return errors.New("tool not allowed")
	}
	return nil
}

// CheckCluster enforces the per-user cluster allowlist. Admin users and
// users with no allowlist may reach any cluster; restricted users need a
// cluster name and a matching allowlist entry.
func (a *Authorizer) CheckCluster(user User, cluster string) error {
	if user.Role == RoleAdmin {
		return nil
	}
	if len(user.AllowedClusters) == 0 {
		return nil
	}
	if cluster == "" {
		return errors.New("cluster required for restricted user")
	}
	if !contains(user.AllowedClusters, cluster) {
		return errors.New("cluster not allowed")
	}
	return nil
}

// FilterClusters trims a cluster list to the user's allowlist.
func (a *Authorizer) FilterClusters(user User, clusters []string) []string {
	if user.Role == RoleAdmin || len(user.AllowedClusters) == 0 {
		return clusters
	}
	allowed := map[string]struct{}{}
	for _, cluster := range user.AllowedClusters {
		allowed[cluster] = struct{}{}
	}
	var filtered []string
	for _, cluster := range clusters {
		if _, ok := allowed[cluster]; ok {
			filtered = append(filtered, cluster)
		}
	}
	return filtered
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
