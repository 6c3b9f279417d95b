package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
	"gorm.io/gorm"
)

var (
	// ErrRoleNotFound is returned when a role id does not exist
	ErrRoleNotFound = errors.New("role not found")

	// ErrRoleExists is returned when creating a role id that is taken
	ErrRoleExists = errors.New("role already exists")

	// ErrRoleInvalid is returned when required role fields are missing
	ErrRoleInvalid = errors.New("roleId, name, prefix and color are required")
)

// RoleUpdate holds the editable role fields. Empty fields are left untouched.
type RoleUpdate struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
	Color  string `json:"color"`
}

// Roles provides access to custom roles and their members
type Roles struct {
	db *gorm.DB
}

// NewRoles creates a role repository
func NewRoles(db *gorm.DB) *Roles {
	return &Roles{db: db}
}

// List returns every custom role with its members
func (r *Roles) List(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, username") }).
		Order("role_id").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	for i := range roles {
		fillUsers(&roles[i])
	}
	return roles, nil
}

// Get retrieves one role with its members
func (r *Roles) Get(ctx context.Context, roleID string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, username") }).
		First(&role, "role_id = ?", roleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}
	fillUsers(&role)
	return &role, nil
}

// Create saves a new role without members
func (r *Roles) Create(ctx context.Context, role domain.Role) error {
	role.RoleID = strings.TrimSpace(role.RoleID)
	if role.RoleID == "" || role.Name == "" || role.Prefix == "" || role.Color == "" {
		return ErrRoleInvalid
	}

	role.Members = nil
	role.Users = nil
	if err := r.db.WithContext(ctx).Create(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoleExists
		}
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// Update changes the non-empty fields of a role
func (r *Roles) Update(ctx context.Context, roleID string, upd RoleUpdate) error {
	fields := map[string]interface{}{}
	if upd.Name != "" {
		fields["name"] = upd.Name
	}
	if upd.Prefix != "" {
		fields["prefix"] = upd.Prefix
	}
	if upd.Color != "" {
		fields["color"] = upd.Color
	}
	if len(fields) == 0 {
		_, err := r.Get(ctx, roleID)
		return err
	}

	result := r.db.WithContext(ctx).Model(&domain.Role{}).Where("role_id = ?", roleID).Updates(fields)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// Delete removes a role and its member assignments
func (r *Roles) Delete(ctx context.Context, roleID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.Role{}, "role_id = ?", roleID)
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}
		if result.RowsAffected == 0 {
			return ErrRoleNotFound
		}
		if err := tx.Delete(&domain.RoleMember{}, "role_id = ?", roleID).Error; err != nil {
			return fmt.Errorf("failed to delete role members: %w", err)
		}
		return nil
	})
}

// Assign moves username into roleID, removing it from any other role first
func (r *Roles) Assign(ctx context.Context, roleID, username string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Role{}).Where("role_id = ?", roleID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check role: %w", err)
		}
		if count == 0 {
			return ErrRoleNotFound
		}

		if err := tx.Delete(&domain.RoleMember{}, "username = ?", username).Error; err != nil {
			return fmt.Errorf("failed to clear role membership: %w", err)
		}
		if err := tx.Create(&domain.RoleMember{Username: username, RoleID: roleID}).Error; err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		return nil
	})
}

// RoleOfUser returns the custom role username belongs to, or nil
func (r *Roles) RoleOfUser(ctx context.Context, username string) (*domain.Role, error) {
	var member domain.RoleMember
	err := r.db.WithContext(ctx).First(&member, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find role membership: %w", err)
	}

	role, err := r.Get(ctx, member.RoleID)
	if errors.Is(err, ErrRoleNotFound) {
		return nil, nil
	}
	return role, err
}

func fillUsers(role *domain.Role) {
	role.Users = make([]string, 0, len(role.Members))
	for _, m := range role.Members {
		role.Users = append(role.Users, m.Username)
	}
}
