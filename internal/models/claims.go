package models

import "github.com/golang-jwt/jwt/v5"

// Wallet permissions
const (
	PermissionWalletRead  = "wallet:read"
	PermissionWalletWrite = "wallet:write"
)

// UserClaims identifies the session owner. The registered subject selects
// the owner's wallet.
type UserClaims struct {
	jwt.RegisteredClaims
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Owner returns the wallet owner the token was issued for.
func (c *UserClaims) Owner() string {
	return c.Subject
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case "admin", "user":
		return []string{PermissionWalletRead, PermissionWalletWrite}
	case "viewer":
		return []string{PermissionWalletRead}
	default:
		return []string{}
	}
}
