// Package user owns account records. Registration writes the profile and an
// email uniqueness guard row in one conditional transaction, so a duplicate
// email or id fails the whole create with a conflict.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prepstack/certstudy/internal/entity"
	"github.com/prepstack/certstudy/internal/store"
	"github.com/prepstack/certstudy/internal/utils/logging"
)

// Registry coordinates user records against the store.
type Registry struct {
	store store.Store
	log   logging.Logger
	now   func() time.Time
	newID func() string
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option { return func(r *Registry) { r.log = l } }

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// WithIDGenerator overrides user id generation (tests).
func WithIDGenerator(gen func() string) Option { return func(r *Registry) { r.newID = gen } }

// NewRegistry builds a Registry over the given store.
func NewRegistry(st store.Store, opts ...Option) *Registry {
	r := &Registry{
		store: st,
		log:   logging.NopLogger{},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a new user. A taken email or id surfaces as ConflictError
// from the guarded transaction.
func (r *Registry) Register(ctx context.Context, email, name string) (entity.User, error) {
	now := r.now().UTC()
	u := entity.User{
		ID:        r.newID(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	profile, err := entity.EncodeUser(u)
	if err != nil {
		return entity.User{}, err
	}
	guard, err := entity.EncodeEmailGuard(u.Email, u.ID)
	if err != nil {
		return entity.User{}, err
	}
	if err := r.store.TransactPut(ctx, []store.Item{profile, guard}); err != nil {
		return entity.User{}, err
	}
	r.log.Info("user.registered", logging.Fields{"userId": u.ID})
	return u, nil
}

// Get returns the user profile by id.
func (r *Registry) Get(ctx context.Context, userID string) (entity.User, error) {
	item, err := r.store.Get(ctx, entity.UserPK(userID), entity.UserSK)
	if err != nil {
		return entity.User{}, err
	}
	u, err := entity.DecodeUser(item)
	if err != nil {
		r.log.Error("user.corrupt", logging.Fields{"userId": userID})
		return entity.User{}, err
	}
	return u, nil
}

// GetByEmail resolves a user through the email lookup index.
func (r *Registry) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	items, err := r.store.Query(ctx, store.Query{
		PartitionKey: entity.EmailGSI1PK(email),
		IndexName:    store.IndexGSI1,
		Limit:        1,
	})
	if err != nil {
		return entity.User{}, err
	}
	if len(items) == 0 {
		return entity.User{}, &store.NotFoundError{}
	}
	return entity.DecodeUser(items[0])
}

// RecordLogin stamps the last-login time on the profile.
func (r *Registry) RecordLogin(ctx context.Context, userID string) error {
	ts := r.now().UTC().Format(time.RFC3339Nano)
	upd := store.NewUpdate().
		Set("lastLoginAt", store.StringAttr(ts)).
		Set("updatedAt", store.StringAttr(ts))
	_, err := r.store.Update(ctx, entity.UserPK(userID), entity.UserSK, upd)
	return err
}

// ProfileUpdate is the typed partial update for profile edits.
type ProfileUpdate struct {
	Name *string
}

// Update applies a profile edit.
func (r *Registry) Update(ctx context.Context, userID string, pu ProfileUpdate) (entity.User, error) {
	upd := store.NewUpdate().
		Set("updatedAt", store.StringAttr(r.now().UTC().Format(time.RFC3339Nano)))
	if pu.Name != nil {
		upd.Set("name", store.StringAttr(*pu.Name))
	}
	item, err := r.store.Update(ctx, entity.UserPK(userID), entity.UserSK, upd)
	if err != nil {
		return entity.User{}, err
	}
	return entity.DecodeUser(item)
}
