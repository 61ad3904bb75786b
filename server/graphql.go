package server

import (
	"context"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/fwbench/fwbench/payload"
)

const graphQLSchema = `
schema {
	query: Query
	mutation: Mutation
}

type Query {
	json1k: [Item!]!
	json10k: [Item!]!
	users: [User!]!
	slow: SlowResponse!
	nplus1: [UserWithOrders!]!
}

type Mutation {
	createItem(input: CreateItemInput!): CreatedItem!
}

input CreateItemInput {
	name: String!
	quantity: Int!
}

type Item {
	id: Int!
	name: String!
	description: String!
	price: Float!
	category: String!
	inStock: Boolean!
	tags: [String!]!
}

type User {
	id: Int!
	username: String!
	email: String!
	firstName: String!
	lastName: String!
	isActive: Boolean!
}

type SlowResponse {
	status: String!
	delaySeconds: Int!
}

type Order {
	id: Int!
	total: Float!
	itemCount: Int!
}

type UserWithOrders {
	id: Int!
	username: String!
	orders: [Order!]!
}

type CreatedItem {
	id: Int!
	name: String!
	quantity: Int!
	status: String!
}
`

// newGraphQL serves the endpoint set as GraphQL operations on PathGraphQL.
func newGraphQL(h *Handlers) Server {
	schema := graphql.MustParseSchema(graphQLSchema, &rootResolver{h: h})

	mux := http.NewServeMux()
	mux.Handle("POST "+PathGraphQL, &relay.Handler{Schema: schema})
	mux.HandleFunc("GET "+PathVersions, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.Versions())
	})
	mux.HandleFunc("GET "+PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.Health())
	})

	return newHTTPServer(mux)
}

// rootResolver resolves both Query and Mutation.
type rootResolver struct {
	h *Handlers
}

func (r *rootResolver) JSON1K() []*itemResolver {
	return itemResolvers(r.h.JSON1K())
}

func (r *rootResolver) JSON10K() []*itemResolver {
	return itemResolvers(r.h.JSON10K())
}

func (r *rootResolver) Users(ctx context.Context) ([]*userResolver, error) {
	users, err := r.h.Users(ctx)
	if err != nil {
		r.h.logError(PathGraphQL, err)

		return nil, err
	}

	out := make([]*userResolver, len(users))
	for i := range users {
		out[i] = &userResolver{u: users[i]}
	}

	return out, nil
}

func (r *rootResolver) Slow(ctx context.Context) (*slowResolver, error) {
	resp, err := r.h.Slow(ctx)
	if err != nil {
		return nil, err
	}

	return &slowResolver{resp: resp}, nil
}

func (r *rootResolver) NPlus1() []*orderedUserResolver {
	users := r.h.NPlus1()

	out := make([]*orderedUserResolver, len(users))
	for i := range users {
		out[i] = &orderedUserResolver{u: users[i]}
	}

	return out
}

type createItemArgs struct {
	Input struct {
		Name     string
		Quantity int32
	}
}

func (r *rootResolver) CreateItem(args createItemArgs) (*createdItemResolver, error) {
	item, err := r.h.CreateItem(payload.NewItem{
		Name:     args.Input.Name,
		Quantity: int(args.Input.Quantity),
	})
	if err != nil {
		return nil, err
	}

	return &createdItemResolver{item: item}, nil
}

type itemResolver struct {
	it payload.Item
}

func itemResolvers(items []payload.Item) []*itemResolver {
	out := make([]*itemResolver, len(items))
	for i := range items {
		out[i] = &itemResolver{it: items[i]}
	}

	return out
}

func (r *itemResolver) ID() int32           { return int32(r.it.ID) }
func (r *itemResolver) Name() string        { return r.it.Name }
func (r *itemResolver) Description() string { return r.it.Description }
func (r *itemResolver) Price() float64      { return r.it.Price }
func (r *itemResolver) Category() string    { return r.it.Category }
func (r *itemResolver) InStock() bool       { return r.it.InStock }
func (r *itemResolver) Tags() []string      { return r.it.Tags }

type userResolver struct {
	u payload.User
}

func (r *userResolver) ID() int32         { return int32(r.u.ID) }
func (r *userResolver) Username() string  { return r.u.Username }
func (r *userResolver) Email() string     { return r.u.Email }
func (r *userResolver) FirstName() string { return r.u.FirstName }
func (r *userResolver) LastName() string  { return r.u.LastName }
func (r *userResolver) IsActive() bool    { return r.u.IsActive }

type slowResolver struct {
	resp SlowResponse
}

func (r *slowResolver) Status() string      { return r.resp.Status }
func (r *slowResolver) DelaySeconds() int32 { return int32(r.resp.DelaySeconds) }

type orderResolver struct {
	o payload.Order
}

func (r *orderResolver) ID() int32        { return int32(r.o.ID) }
func (r *orderResolver) Total() float64   { return r.o.Total }
func (r *orderResolver) ItemCount() int32 { return int32(r.o.ItemCount) }

type orderedUserResolver struct {
	u payload.OrderedUser
}

func (r *orderedUserResolver) ID() int32        { return int32(r.u.ID) }
func (r *orderedUserResolver) Username() string { return r.u.Username }

func (r *orderedUserResolver) Orders() []*orderResolver {
	out := make([]*orderResolver, len(r.u.Orders))
	for i := range r.u.Orders {
		out[i] = &orderResolver{o: r.u.Orders[i]}
	}

	return out
}

type createdItemResolver struct {
	item payload.CreatedItem
}

func (r *createdItemResolver) ID() int32       { return int32(r.item.ID) }
func (r *createdItemResolver) Name() string    { return r.item.Name }
func (r *createdItemResolver) Quantity() int32 { return int32(r.item.Quantity) }
func (r *createdItemResolver) Status() string  { return r.item.Status }
