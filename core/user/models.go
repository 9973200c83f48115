package user

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/edportal/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

var AllRoles = []string{RoleStudent, RoleTeacher}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Avatar       string    `json:"avatar"`
	Phone        string    `json:"phone"`
	Location     string    `json:"location"`
	Bio          string    `json:"bio"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u User) GetID() string { return u.ID }

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

func (u User) IsTeacher() bool { return u.Role == RoleTeacher }

func (u User) IsStudent() bool { return u.Role == RoleStudent }

// Actor is the identity u acts as in other collections.
func (u User) Actor() core.Actor {
	return core.Actor{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: u.Role}
}

// Initials returns the uppercased first letters of the first two words of name, eg. "JD" for "John Doe".
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(string([]rune(word)[0])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=student teacher"`
	Avatar          string `json:"avatar"`
	Phone           string `json:"phone" validate:"omitempty,max=30"`
	Location        string `json:"location" validate:"omitempty,max=100"`
	Bio             string `json:"bio" validate:"omitempty,max=500"`
}

func (nu *NewUser) Validate(v *core.Validator) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
	return v.Struct(nu)
}

// UpdateProfile defines what information may be provided to modify an existing User. Unset fields are kept.
type UpdateProfile struct {
	Name     null.String `json:"name" validate:"omitempty,max=100"`
	Email    null.String `json:"email" validate:"omitempty,email"`
	Avatar   null.String `json:"avatar"`
	Phone    null.String `json:"phone" validate:"omitempty,max=30"`
	Location null.String `json:"location" validate:"omitempty,max=100"`
	Bio      null.String `json:"bio" validate:"omitempty,max=500"`
}

func (up *UpdateProfile) Validate(v *core.Validator) error {
	if up.Name.Valid {
		up.Name.String = core.CleanString(up.Name.String)
		if up.Name.String == "" {
			return core.NewValidationError(errBlankName, core.FieldError{Field: "name", Error: errBlankName.Error()})
		}
	}
	if up.Email.Valid {
		up.Email.String = core.CleanString(up.Email.String, true /* lower */)
		if up.Email.String == "" {
			return core.NewValidationError(errBlankEmail, core.FieldError{Field: "email", Error: errBlankEmail.Error()})
		}
	}
	return v.Struct(up)
}

// apply merges the set fields of up into u.
func (up UpdateProfile) apply(u User) User {
	if up.Name.Valid {
		u.Name = up.Name.String
	}
	if up.Email.Valid {
		u.Email = up.Email.String
	}
	if up.Avatar.Valid {
		u.Avatar = up.Avatar.String
	}
	if up.Phone.Valid {
		u.Phone = up.Phone.String
	}
	if up.Location.Valid {
		u.Location = up.Location.String
	}
	if up.Bio.Valid {
		u.Bio = up.Bio.String
	}
	return u
}

type QueryFilter struct {
	Search string `query:"search"`
	Role   string `query:"role"` // "all" or empty for every role
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
