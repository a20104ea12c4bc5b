package profile

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
)

var ErrNotFound = core.NewNotFoundError("profile")

// Profile is a user's display identity.
type Profile struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	AvatarURL  string    `json:"avatar_url"`
	GradeLevel string    `json:"grade_level"`
	Department string    `json:"department"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpdateProfile defines what a user may change on their own Profile. Empty fields are left untouched.
type UpdateProfile struct {
	FullName   string  `json:"full_name" validate:"omitempty,notblank,max=120"`
	AvatarURL  *string `json:"avatar_url" validate:"omitempty,url"`
	GradeLevel *string `json:"grade_level" validate:"omitempty,max=40"`
	Department *string `json:"department" validate:"omitempty,max=80"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.FullName = core.CleanString(up.FullName)
	return validate.Struct(up)
}

type QueryFilter struct {
	Search         string   // case-insensitive match on FullName
	UserIDs        []string // restrict to these users
	ExcludeUserIDs []string
}

type (
	Repository interface {
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		GetProfileByUserID(ctx context.Context, userID string) (Profile, error)
		QueryProfiles(ctx context.Context, filter QueryFilter) ([]Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, p Profile) (Profile, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return svc.repo.CreateProfile(ctx, p)
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfileByUserID(ctx, userID)
}

// ByUserIDs bulk-loads the profiles of the given users into a userID -> Profile map.
func (svc *Service) ByUserIDs(ctx context.Context, userIDs ...string) (map[string]Profile, error) {
	userIDs = core.UniqueStrings(userIDs...)
	if len(userIDs) == 0 {
		return map[string]Profile{}, nil
	}
	profiles, err := svc.repo.QueryProfiles(ctx, QueryFilter{UserIDs: userIDs})
	if err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	byUser := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}
	return byUser, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Profile, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.QueryProfiles(ctx, filter)
}

// Update applies up to the Profile of userID. up must have been validated.
func (svc *Service) Update(ctx context.Context, userID string, up UpdateProfile) (Profile, error) {
	p, err := svc.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if up.FullName != "" {
		p.FullName = up.FullName
	}
	if up.AvatarURL != nil {
		p.AvatarURL = *up.AvatarURL
	}
	if up.GradeLevel != nil {
		p.GradeLevel = core.CleanString(*up.GradeLevel)
	}
	if up.Department != nil {
		p.Department = core.CleanString(*up.Department)
	}
	if up.Phone != nil {
		p.Phone = core.CleanString(*up.Phone)
	}
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, p)
}
