package resources

import (
	"context"
	"fmt"

	"github.com/jrsteele09/backoffice-console/api"
	"github.com/jrsteele09/backoffice-console/profile"
)

const PathUsers = "/users"

// UserInput is the payload of a user create
type UserInput struct {
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Phone       string               `json:"phone,omitempty"`
	Password    string               `json:"password,omitempty"`
	Role        profile.Role         `json:"role"`
	Permissions []profile.Permission `json:"permissions,omitempty"`
}

type Users struct {
	*Collection[User]
}

func NewUsers(client *api.Client) *Users {
	return &Users{Collection: NewCollection[User](client, PathUsers)}
}

// UpdatePermissions replaces the permission set of a manager
func (u *Users) UpdatePermissions(ctx context.Context, id string, perms []profile.Permission) (*User, error) {
	if perms == nil {
		perms = []profile.Permission{}
	}
	body := map[string][]profile.Permission{"permissions": perms}
	resp, err := u.client.Patch(ctx, u.itemPath(id)+"/permissions", body)
	if err != nil {
		return nil, fmt.Errorf("[Users UpdatePermissions] %s: %w", id, err)
	}
	return decodeItem[User](resp)
}
