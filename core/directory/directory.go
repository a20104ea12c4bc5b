// Package directory resolves user ids into display identities (profile + role) with bulk lookups.
package directory

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// Person is the public identity of a user as shown next to posts, messages, requests, etc.
type Person struct {
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	AvatarURL  string    `json:"avatar_url"`
	Role       user.Role `json:"role"`
	GradeLevel string    `json:"grade_level,omitempty"`
	Department string    `json:"department,omitempty"`
}

// Info is the one-line description of the Person: their grade for students, their department for staff.
func (p Person) Info() string {
	if p.Role == user.RoleStudent {
		if p.GradeLevel != "" {
			return "Grade " + strings.TrimPrefix(p.GradeLevel, "Grade ")
		}
		return "Student"
	}
	if p.Department != "" {
		return p.Department + " Department"
	}
	if p.Role == "" {
		return ""
	}
	return strings.ToUpper(string(p.Role[:1])) + string(p.Role[1:])
}

func fromProfile(p profile.Profile, role user.Role) Person {
	return Person{
		UserID:     p.UserID,
		FullName:   p.FullName,
		AvatarURL:  p.AvatarURL,
		Role:       role,
		GradeLevel: p.GradeLevel,
		Department: p.Department,
	}
}

// Unknown is the placeholder for users whose profile could not be found.
func Unknown(userID string) Person {
	return Person{UserID: userID, FullName: "Unknown user"}
}

type Filter struct {
	Search         string
	Roles          []user.Role
	ExcludeUserIDs []string
}

type Directory struct {
	profiles *profile.Service
	users    *user.Service
}

func New(profiles *profile.Service, users *user.Service) *Directory {
	return &Directory{profiles: profiles, users: users}
}

// Lookup resolves ids in two queries (profiles, roles) joined in memory.
// Ids without a profile are absent from the result.
func (d *Directory) Lookup(ctx context.Context, ids ...string) (map[string]Person, error) {
	profiles, err := d.profiles.ByUserIDs(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "looking up profiles")
	}
	if len(profiles) == 0 {
		return map[string]Person{}, nil
	}
	roles, err := d.users.RolesByIDs(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "looking up roles")
	}

	people := make(map[string]Person, len(profiles))
	for id, p := range profiles {
		people[id] = fromProfile(p, roles[id])
	}
	return people, nil
}

// Get resolves a single id, falling back to Unknown.
func (d *Directory) Get(ctx context.Context, id string) (Person, error) {
	people, err := d.Lookup(ctx, id)
	if err != nil {
		return Person{}, err
	}
	if p, ok := people[id]; ok {
		return p, nil
	}
	return Unknown(id), nil
}

// Resolve returns Person for id from people, falling back to Unknown.
func Resolve(people map[string]Person, id string) Person {
	if p, ok := people[id]; ok {
		return p
	}
	return Unknown(id)
}

// Find lists the people matching filter, ordered by name.
func (d *Directory) Find(ctx context.Context, filter Filter) ([]Person, error) {
	profiles, err := d.profiles.Query(ctx, profile.QueryFilter{
		Search:         filter.Search,
		ExcludeUserIDs: filter.ExcludeUserIDs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	if len(profiles) == 0 {
		return []Person{}, nil
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	roles, err := d.users.RolesByIDs(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "looking up roles")
	}

	wanted := make(map[user.Role]bool, len(filter.Roles))
	for _, r := range filter.Roles {
		wanted[r] = true
	}
	people := make([]Person, 0, len(profiles))
	for _, p := range profiles {
		role := roles[p.UserID]
		if len(wanted) > 0 && !wanted[role] {
			continue
		}
		people = append(people, fromProfile(p, role))
	}
	sort.SliceStable(people, func(i, j int) bool {
		return strings.ToLower(people[i].FullName) < strings.ToLower(people[j].FullName)
	})
	return people, nil
}
