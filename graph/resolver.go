package graph

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/samandartukhtayev/graphql-user-service/metrics"
	"github.com/samandartukhtayev/graphql-user-service/models"
	"github.com/samandartukhtayev/graphql-user-service/repository"
)

// Resolver is the root resolver for both Query and Mutation. Every field maps
// to exactly one repository call.
//
// Fields addressed by id (user, updateUser, deleteUser) fail soft: any error is
// logged and turned into null or false. List and create errors are returned to
// the caller in the GraphQL errors array.
type Resolver struct {
	repo    repository.UserRepository
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver over repo. m may be nil.
func NewResolver(repo repository.UserRepository, logger zerolog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		repo:    repo,
		logger:  logger.With().Str("component", "graphql").Logger(),
		metrics: m,
	}
}

// Queries

// Users resolves the users query
func (r *Resolver) Users(ctx context.Context) (*[]*userResolver, error) {
	users, err := r.repo.List(ctx)
	r.observe("users", err)
	if err != nil {
		return nil, err
	}
	return wrapUsers(users), nil
}

// User resolves user(id). Any failure resolves to null.
func (r *Resolver) User(ctx context.Context, args struct{ ID string }) (*userResolver, error) {
	user, err := r.repo.GetByID(ctx, args.ID)
	if err != nil {
		r.failSoft("user", args.ID, err)
		return nil, nil
	}
	r.observe("user", nil)
	return &userResolver{user}, nil
}

// UsersByName resolves usersByName(name)
func (r *Resolver) UsersByName(ctx context.Context, args struct{ Name string }) (*[]*userResolver, error) {
	users, err := r.repo.SearchByName(ctx, args.Name)
	r.observe("usersByName", err)
	if err != nil {
		return nil, err
	}
	return wrapUsers(users), nil
}

// Mutations

// CreateUser resolves the createUser mutation
func (r *Resolver) CreateUser(ctx context.Context, args struct {
	Name string
	Age  int32
}) (*createUserPayload, error) {
	user, err := r.repo.Create(ctx, args.Name, args.Age)
	r.observe("createUser", err)
	if err != nil {
		return nil, err
	}
	return &createUserPayload{user: &userResolver{user}}, nil
}

// UpdateUser resolves updateUser. Missing users and store failures resolve to null.
func (r *Resolver) UpdateUser(ctx context.Context, args struct {
	ID   string
	Name *string
	Age  *int32
}) (*updateUserPayload, error) {
	user, err := r.repo.Update(ctx, args.ID, models.UserPatch{Name: args.Name, Age: args.Age})
	if err != nil {
		r.failSoft("updateUser", args.ID, err)
		return nil, nil
	}
	r.observe("updateUser", nil)
	return &updateUserPayload{user: &userResolver{user}}, nil
}

// DeleteUser resolves deleteUser. Any failure reports success false.
func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID string }) (*deleteUserPayload, error) {
	removed, err := r.repo.Delete(ctx, args.ID)
	if err != nil {
		r.failSoft("deleteUser", args.ID, err)
		return &deleteUserPayload{success: false}, nil
	}
	r.observe("deleteUser", nil)
	return &deleteUserPayload{success: removed}, nil
}

func (r *Resolver) observe(field string, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		r.logger.Error().Err(err).Str("field", field).Msg("resolver failed")
	}
	r.metrics.ObserveResolver(field, outcome)
}

func (r *Resolver) failSoft(field, id string, err error) {
	// a missing document is an expected answer, not a failure
	if errors.Is(err, repository.ErrNotFound) {
		r.metrics.ObserveResolver(field, metrics.OutcomeOK)
		return
	}
	r.logger.Warn().Err(err).Str("field", field).Str("id", id).Msg("lookup by id failed")
	r.metrics.ObserveResolver(field, metrics.OutcomeFailSoft)
}

// Object resolvers

type userResolver struct {
	u *models.User
}

func (r *userResolver) ID() *string {
	id := r.u.ID
	return &id
}

func (r *userResolver) Name() *string {
	return r.u.Name
}

func (r *userResolver) Age() *int32 {
	return r.u.Age
}

func wrapUsers(users []*models.User) *[]*userResolver {
	out := make([]*userResolver, 0, len(users))
	for _, u := range users {
		out = append(out, &userResolver{u})
	}
	return &out
}

type createUserPayload struct {
	user *userResolver
}

func (p *createUserPayload) User() *userResolver {
	return p.user
}

type updateUserPayload struct {
	user *userResolver
}

func (p *updateUserPayload) User() *userResolver {
	return p.user
}

type deleteUserPayload struct {
	success bool
}

func (p *deleteUserPayload) Success() *bool {
	success := p.success
	return &success
}
