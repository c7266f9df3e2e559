package imc

import (
	"context"
	"fmt"
	"strings"
)

// CreateUser creates an active local account in the given user slot.
func (m *Module) CreateUser(ctx context.Context, uid int, username, password, priv string) ([]Object, error) {
	if uid <= 0 {
		return nil, invalidArg("uid", "must be a positive user slot")
	}
	if username == "" {
		return nil, invalidArg("username", "must be set")
	}
	if password == "" {
		return nil, invalidArg("password", "must be set")
	}
	if priv == "" {
		return nil, invalidArg("priv", "must be set")
	}
	dn := userDN(uid)
	payload := fmt.Sprintf(`<aaaUser id="%d" accountStatus="active" name="%s" priv="%s" pwd="%s" dn="%s"/>`,
		uid, username, priv, password, dn)
	return m.modify(ctx, dn, payload)
}

// UserSettings are the optional fields SetUser pushes. Zero fields are left
// untouched on the device.
type UserSettings struct {
	Status   string
	Username string
	Password string
	Priv     string
}

// SetUser updates an existing user slot with the non-empty settings.
func (m *Module) SetUser(ctx context.Context, uid int, settings UserSettings) ([]Object, error) {
	if uid <= 0 {
		return nil, invalidArg("uid", "must be a positive user slot")
	}
	var attrs strings.Builder
	if settings.Status != "" {
		fmt.Fprintf(&attrs, ` accountStatus="%s"`, settings.Status)
	}
	if settings.Username != "" {
		fmt.Fprintf(&attrs, ` name="%s"`, settings.Username)
	}
	if settings.Priv != "" {
		fmt.Fprintf(&attrs, ` priv="%s"`, settings.Priv)
	}
	if settings.Password != "" {
		fmt.Fprintf(&attrs, ` pwd="%s"`, settings.Password)
	}
	dn := userDN(uid)
	payload := fmt.Sprintf(`<aaaUser id="%d"%s dn="%s"/>`, uid, attrs.String(), dn)
	return m.modify(ctx, dn, payload)
}

// Users lists the local accounts.
func (m *Module) Users(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "aaaUser", false)
}

// LDAP reports the LDAP client configuration.
func (m *Module) LDAP(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "aaaLdap", true)
}

func userDN(uid int) string {
	return fmt.Sprintf("sys/user-ext/user-%d", uid)
}
