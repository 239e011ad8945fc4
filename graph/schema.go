package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/rs/zerolog"
)

// SDL is the GraphQL schema served at /graphql
const SDL = `
schema {
	query: Query
	mutation: Mutation
}

type User {
	id: String
	name: String
	age: Int
}

type Query {
	users: [User]
	user(id: String!): User
	usersByName(name: String!): [User]
}

type CreateUser {
	user: User
}

type UpdateUser {
	user: User
}

type DeleteUser {
	success: Boolean
}

type Mutation {
	createUser(name: String!, age: Int!): CreateUser
	updateUser(id: String!, name: String, age: Int): UpdateUser
	deleteUser(id: String!): DeleteUser
}
`

// NewSchema parses SDL against the resolver. It panics if a field has no matching resolver method.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(SDL, r, graphql.Logger(panicLogger{r.logger}))
}

// panicLogger reports resolver panics recovered by the engine
type panicLogger struct {
	logger zerolog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value any) {
	l.logger.Error().Interface("panic", value).Msg("graphql resolver panic")
}
