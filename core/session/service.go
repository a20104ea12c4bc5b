package session

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// ErrTokenRevoked is returned for tokens invalidated by a sign out.
var ErrTokenRevoked = errors.New("session has been signed out")

// TokenBlacklist holds the ids of the session tokens revoked before their expiry.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Service struct {
	tx        core.Transactor
	users     *user.Service
	profiles  *profile.Service
	bus       core.PubSub
	blacklist TokenBlacklist
	store     *Store
	logger    core.Logger
}

func NewService(
	tx core.Transactor,
	users *user.Service,
	profiles *profile.Service,
	bus core.PubSub,
	blacklist TokenBlacklist,
	logger core.Logger,
) *Service {
	svc := &Service{
		tx:        tx,
		users:     users,
		profiles:  profiles,
		bus:       bus,
		blacklist: blacklist,
		logger:    logger,
	}
	svc.store = NewStore(bus, svc.fetch, logger)
	return svc
}

// Start populates the session state from the auth events. Close must be called on shutdown.
func (svc *Service) Start(ctx context.Context) error { return svc.store.Start(ctx) }

func (svc *Service) Close() error { return svc.store.Close() }

func (svc *Service) Store() *Store { return svc.store }

func (svc *Service) fetch(ctx context.Context, userID string) (Identity, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return Identity{}, errors.Wrap(err, "finding user by ID")
	}
	prof, err := svc.profiles.GetByUserID(ctx, userID)
	if err != nil && !core.IsNotFound(err) {
		return Identity{}, errors.Wrap(err, "finding profile")
	}
	return Identity{User: usr, Role: usr.Role, Profile: prof}, nil
}

// CreateAccount creates the account and its profile in one transaction. na must have been validated.
func (svc *Service) CreateAccount(ctx context.Context, na user.NewAccount) (Identity, error) {
	var id Identity
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		usr, err := svc.users.Create(ctx, na.NewUser)
		if err != nil {
			return err
		}
		prof := profile.Profile{UserID: usr.ID, FullName: na.FullName}
		if usr.IsStudent() {
			prof.GradeLevel = na.GradeLevel
		} else {
			prof.Department = na.Department
		}
		if prof, err = svc.profiles.Create(ctx, prof); err != nil {
			return errors.Wrap(err, "creating profile")
		}
		id = Identity{User: usr, Role: usr.Role, Profile: prof}
		return nil
	})
	if err != nil {
		return Identity{}, err
	}
	return id, nil
}

// SignUp creates the account, its role and its profile then signs the user up. su must have been validated.
func (svc *Service) SignUp(ctx context.Context, su user.SignUp) (Identity, error) {
	id, err := svc.CreateAccount(ctx, su.Account())
	if err != nil {
		return Identity{}, err
	}

	svc.store.Put(id)
	svc.notify(ctx, EventSignedUp, id.User.ID)
	return id, nil
}

// SignIn authenticates the credentials and returns the signed-in identity.
func (svc *Service) SignIn(ctx context.Context, email, pwd string) (Identity, error) {
	usr, err := svc.users.Authenticate(ctx, email, pwd)
	if err != nil {
		return Identity{}, err
	}
	svc.notify(ctx, EventSignedIn, usr.ID)

	id, err := svc.fetch(ctx, usr.ID)
	if err != nil {
		return Identity{}, err
	}
	return id, nil
}

// SignOut revokes the session token until its expiry and clears the cached identity.
func (svc *Service) SignOut(ctx context.Context, userID, tokenID string, expiresAt time.Time) error {
	if ttl := time.Until(expiresAt); tokenID != "" && ttl > 0 {
		if err := svc.blacklist.Revoke(ctx, tokenID, ttl); err != nil {
			return errors.Wrap(err, "revoking token")
		}
	}
	svc.store.Evict(userID)
	svc.notify(ctx, EventSignedOut, userID)
	return nil
}

// Refreshed records that a new token was issued for userID.
func (svc *Service) Refreshed(ctx context.Context, userID, oldTokenID string, oldExpiresAt time.Time) error {
	if ttl := time.Until(oldExpiresAt); oldTokenID != "" && ttl > 0 {
		if err := svc.blacklist.Revoke(ctx, oldTokenID, ttl); err != nil {
			return errors.Wrap(err, "revoking token")
		}
	}
	svc.notify(ctx, EventTokenRefreshed, userID)
	return nil
}

// ProfileChanged drops the cached identity of userID so the next lookup sees the new profile.
func (svc *Service) ProfileChanged(ctx context.Context, userID string) {
	svc.store.Evict(userID)
	svc.notify(ctx, EventProfileUpdated, userID)
}

func (svc *Service) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return svc.blacklist.IsRevoked(ctx, tokenID)
}

// Current returns the Identity of an authenticated, still active user.
func (svc *Service) Current(ctx context.Context, userID string) (Identity, error) {
	id, err := svc.store.Get(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	if !id.User.IsActive {
		return Identity{}, user.ErrAccountDeactivated
	}
	return id, nil
}

// notify publishes an auth event. The realtime feed is best-effort: failures are only logged.
func (svc *Service) notify(ctx context.Context, typ EventType, userID string) {
	if err := publish(ctx, svc.bus, typ, userID); err != nil {
		svc.logger.Warn(fmt.Sprintf("session: %s event for %s: %v", typ, userID, err), err)
	}
}
