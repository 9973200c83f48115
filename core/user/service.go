package user

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

// result messages
const (
	MsgRegistered         = "Registration successful"
	MsgEmailTaken         = "Email already registered"
	MsgLoggedIn           = "Login successful"
	MsgInvalidCredentials = "Invalid credentials"
)

type (
	Store = collection.Store[User]

	Service struct {
		store    Store
		ids      core.IDGenerator
		validate *core.Validator
		log      core.Logger
		now      core.Clock

		mu        sync.RWMutex
		currentID string // logged in user
	}
)

func NewService(store Store, ids core.IDGenerator, validate *core.Validator, log core.Logger, now core.Clock) *Service {
	InitValidators(validate)
	return &Service{store: store, ids: ids, validate: validate, log: log, now: now}
}

// Create validates nu and stores the new User.
func (svc *Service) Create(nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	usr := User{
		ID:        svc.ids.NewID(),
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		Avatar:    core.CleanString(nu.Avatar),
		Phone:     core.CleanString(nu.Phone),
		Location:  core.CleanString(nu.Location),
		Bio:       core.CleanString(nu.Bio),
		CreatedAt: svc.now(),
	}
	if usr.Avatar == "" {
		usr.Avatar = Initials(usr.Name)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	_, err := svc.store.Apply(func(users []User) ([]User, error) {
		if _, ok := findByEmail(users, usr.Email); ok {
			return nil, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		next, _, err := collection.Create(users, usr, collection.Append)
		return next, err
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

// Register creates the User and logs them in.
func (svc *Service) Register(nu NewUser) (core.Result, User) {
	usr, err := svc.Create(nu)
	if err != nil {
		vErr, ok := core.IsValidationError(err)
		switch {
		case ok && errors.Cause(vErr.Err) == ErrEmailExists:
			return core.Failed(MsgEmailTaken), User{}
		case ok:
			return core.Failed(vErr.Message()), User{}
		default:
			svc.log.Error("registering user", err)
			return core.Failed(err.Error()), User{}
		}
	}

	svc.setCurrent(usr.ID)
	svc.log.Info("user registered", usr)
	return core.Succeeded(MsgRegistered), usr
}

func (svc *Service) Login(email, pwd string) core.Result {
	usr, err := svc.GetByEmail(email)
	if err != nil || usr.CheckPassword(pwd) != nil {
		return core.Failed(MsgInvalidCredentials)
	}

	now := svc.now()
	if _, err = svc.store.Apply(func(users []User) ([]User, error) {
		next, _, ok := collection.Update(users, usr.ID, func(u User) User {
			u.LastLogin = now
			return u
		})
		if !ok {
			return nil, collection.ErrSkip
		}
		return next, nil
	}); err != nil {
		svc.log.Error("recording last login", err, map[string]interface{}{"id": usr.ID})
	}
	svc.setCurrent(usr.ID)
	return core.Succeeded(MsgLoggedIn)
}

func (svc *Service) Logout() {
	svc.setCurrent("")
}

// Current returns the logged in User, if any.
func (svc *Service) Current() (User, bool) {
	svc.mu.RLock()
	id := svc.currentID
	svc.mu.RUnlock()

	if id == "" {
		return User{}, false
	}
	return collection.Find(svc.store.GetAll().Items, id)
}

// CurrentActor returns the logged in User as a core.Actor; the zero Actor when nobody is.
func (svc *Service) CurrentActor() (core.Actor, bool) {
	usr, ok := svc.Current()
	if !ok {
		return core.Actor{}, false
	}
	return usr.Actor(), true
}

func (svc *Service) setCurrent(id string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.currentID = id
}

func (svc *Service) QueryAll() []User {
	return svc.store.GetAll().Items
}

func (svc *Service) GetByID(id string) (User, error) {
	if usr, ok := collection.Find(svc.store.GetAll().Items, id); ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (svc *Service) GetByEmail(email string) (User, error) {
	if usr, ok := findByEmail(svc.store.GetAll().Items, core.CleanString(email, true /* lower */)); ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

// List applies AND operation on available QueryFilter fields.
// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
func (svc *Service) List(filter QueryFilter) []User {
	filter.Clean()
	users := svc.store.GetAll().Items
	users = collection.FilterBySearch(users, filter.Search,
		func(u User) string { return u.Name },
		func(u User) string { return u.Email })
	return collection.FilterByStatus(users, filter.Role, func(u User) string { return u.Role })
}

// UpdateProfile merges up into the User matching id. ok is false if there's none.
func (svc *Service) UpdateProfile(id string, up UpdateProfile) (usr User, ok bool, err error) {
	if err = up.Validate(svc.validate); err != nil {
		return User{}, false, err
	}

	_, err = svc.store.Apply(func(users []User) ([]User, error) {
		if up.Email.Valid {
			if other, found := findByEmail(users, up.Email.String); found && other.ID != id {
				return nil, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
			}
		}
		var next []User
		next, usr, ok = collection.Update(users, id, up.apply)
		if !ok {
			return nil, collection.ErrSkip
		}
		return next, nil
	})
	if err != nil {
		return User{}, false, err
	}
	if !ok {
		svc.log.Debug("profile update skipped: user not found", map[string]interface{}{"id": id})
	}
	return usr, ok, nil
}

// Remove deletes the User matching id, logging them out if they're the current user.
func (svc *Service) Remove(id string) bool {
	var removed bool
	if _, err := svc.store.Apply(func(users []User) ([]User, error) {
		var next []User
		if next, removed = collection.Remove(users, id); !removed {
			return nil, collection.ErrSkip
		}
		return next, nil
	}); err != nil {
		svc.log.Error("removing user", err, map[string]interface{}{"id": id})
		return false
	}
	if !removed {
		svc.log.Debug("remove skipped: user not found", map[string]interface{}{"id": id})
		return false
	}

	svc.mu.Lock()
	if svc.currentID == id {
		svc.currentID = ""
	}
	svc.mu.Unlock()
	return true
}

func findByEmail(users []User, email string) (User, bool) {
	for _, u := range users {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}
