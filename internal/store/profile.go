package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
	"gorm.io/gorm"
)

var (
	// ErrProfileNotFound is returned when no profile exists for a username
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned when registering a taken username
	ErrProfileExists = errors.New("username already exists")

	// ErrInvalidCredentials is returned when username or password is too short
	ErrInvalidCredentials = errors.New("username and password must be at least 3 characters long")
)

// Profiles provides access to account profiles
type Profiles struct {
	db     *gorm.DB
	hasher *PasswordHasher
}

// NewProfiles creates a profile repository
func NewProfiles(db *gorm.DB, hasher *PasswordHasher) *Profiles {
	if hasher == nil {
		hasher = NewPasswordHasher()
	}
	return &Profiles{db: db, hasher: hasher}
}

// Create registers a new account with the built-in user role. A profile that
// was created without a password (a guest whose role or profile was edited)
// is claimed: it gets the password and keeps its role.
func (p *Profiles) Create(ctx context.Context, username, password, displayName string) (*domain.Profile, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < domain.MinCredentialLength ||
		utf8.RuneCountInString(password) < domain.MinCredentialLength {
		return nil, ErrInvalidCredentials
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = username
	}

	var profile domain.Profile
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&profile, "username = ?", username).Error
		switch {
		case err == nil && profile.Password != "":
			return ErrProfileExists
		case err == nil:
			profile.Password = hash
			profile.DisplayName = displayName
			return tx.Model(&profile).Updates(map[string]interface{}{
				"password":     hash,
				"display_name": displayName,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile = domain.Profile{
				Username:    username,
				Password:    hash,
				DisplayName: displayName,
				Role:        domain.RoleUser,
			}
			return tx.Create(&profile).Error
		default:
			return err
		}
	})
	switch {
	case errors.Is(err, ErrProfileExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, ErrProfileExists
	case err != nil:
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &profile, nil
}

// CheckPassword reports whether password matches the stored hash. Unknown users never match.
func (p *Profiles) CheckPassword(ctx context.Context, username, password string) (bool, error) {
	profile, err := p.Get(ctx, username)
	if errors.Is(err, ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.hasher.Verify(password, profile.Password), nil
}

// Get retrieves a profile by username
func (p *Profiles) Get(ctx context.Context, username string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := p.db.WithContext(ctx).First(&profile, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return &profile, nil
}

// GetOrDefault retrieves a profile, falling back to the default profile for unknown usernames
func (p *Profiles) GetOrDefault(ctx context.Context, username string) (*domain.Profile, error) {
	profile, err := p.Get(ctx, username)
	if errors.Is(err, ErrProfileNotFound) {
		return domain.DefaultProfile(username), nil
	}
	return profile, err
}

// RoleOf returns the stored role, or the user role for unknown usernames
func (p *Profiles) RoleOf(ctx context.Context, username string) (string, error) {
	profile, err := p.GetOrDefault(ctx, username)
	if err != nil {
		return "", err
	}
	if profile.Role == "" {
		return domain.RoleUser, nil
	}
	return profile.Role, nil
}

// Update changes the editable fields of a profile. Unknown usernames get a
// passwordless default profile first, so guests can edit theirs.
func (p *Profiles) Update(ctx context.Context, username string, upd domain.ProfileUpdate) error {
	fields := map[string]interface{}{}
	if upd.DisplayName != nil {
		fields["display_name"] = *upd.DisplayName
	}
	if upd.Bio != nil {
		fields["bio"] = *upd.Bio
	}
	if upd.Location != nil {
		fields["location"] = *upd.Location
	}
	if upd.Website != nil {
		fields["website"] = *upd.Website
	}
	if upd.Avatar != nil {
		fields["avatar"] = *upd.Avatar
	}
	return p.upsert(ctx, username, fields)
}

// UpdateRole stores a new role for username, creating a default profile when none exists
func (p *Profiles) UpdateRole(ctx context.Context, username, role string) error {
	return p.upsert(ctx, username, map[string]interface{}{"role": role})
}

func (p *Profiles) upsert(ctx context.Context, username string, fields map[string]interface{}) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrProfileNotFound
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile domain.Profile
		defaults := domain.Profile{DisplayName: username, Role: domain.RoleUser}
		if err := tx.Where(domain.Profile{Username: username}).Attrs(defaults).FirstOrCreate(&profile).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Model(&profile).Updates(fields).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// List returns all profiles ordered by username
func (p *Profiles) List(ctx context.Context) ([]domain.Profile, error) {
	var profiles []domain.Profile
	if err := p.db.WithContext(ctx).Order("username").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}
