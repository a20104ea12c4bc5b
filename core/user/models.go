package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/akia2466/PMNTS-Lovable/core"
)

type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var (
	AllRoles    = []Role{RoleStudent, RoleTeacher, RoleAdmin}
	SignUpRoles = []Role{RoleStudent, RoleTeacher}

	rolePriorities = map[Role]int{
		RoleAdmin:   30,
		RoleTeacher: 20,
		RoleStudent: 10,
	}

	Roles = []RoleInfo{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func RolePriority(role Role) int {
	return rolePriorities[role]
}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	Role         Role      `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// IsStaff reports whether the user is a teacher or an admin.
func (u User) IsStaff() bool { return u.IsTeacher() || u.IsAdmin() }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,role"`
	FullName string `json:"full_name"` // only used by the password policy
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FullName = core.CleanString(nu.FullName)
	return validate.Struct(nu)
}

// NewAccount is the admin form of an account of any role along with its initial profile.
type NewAccount struct {
	NewUser
	GradeLevel string `json:"grade_level"`
	Department string `json:"department"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.GradeLevel = core.CleanString(na.GradeLevel)
	na.Department = core.CleanString(na.Department)
	return na.NewUser.Validate(validate)
}

// SignUp is the self-service registration form: the account, its role and the initial profile.
type SignUp struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	FullName   string `json:"full_name" validate:"required,notblank"`
	Role       Role   `json:"role" validate:"required,signuprole"`
	GradeLevel string `json:"grade_level"`
	Department string `json:"department"`
}

func (su *SignUp) Validate(validate *validator.Validate) error {
	su.Email = core.CleanString(su.Email, true /* lower */)
	su.FullName = core.CleanString(su.FullName)
	su.GradeLevel = core.CleanString(su.GradeLevel)
	su.Department = core.CleanString(su.Department)
	if su.Role == "" {
		su.Role = RoleStudent
	}
	return validate.Struct(su)
}

// NewUser returns the account part of the form.
func (su SignUp) NewUser() NewUser {
	return NewUser{Email: su.Email, Password: su.Password, Role: su.Role, FullName: su.FullName}
}

func (su SignUp) Account() NewAccount {
	return NewAccount{NewUser: su.NewUser(), GradeLevel: su.GradeLevel, Department: su.Department}
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Role            Role   `json:"role" validate:"omitempty,role"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	return validate.Struct(uu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []Role    `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
