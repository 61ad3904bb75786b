package payload

import (
	"fmt"
	"math"
)

// Shape of the N+1 data set: every user owns the same number of orders.
const (
	NPlus1UserCount     = 50
	NPlus1OrdersPerUser = 3
)

// Order belongs to one N+1 user.
type Order struct {
	ID        int     `json:"id"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

// OrderedUser is an N+1 user with its orders resolved.
type OrderedUser struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Orders   []Order `json:"orders"`
}

var (
	nplus1Users  = buildNPlus1Users()
	nplus1Orders = buildNPlus1Orders()
)

func buildNPlus1Users() []OrderedUser {
	users := make([]OrderedUser, NPlus1UserCount)
	for i := range users {
		id := i + 1
		users[i] = OrderedUser{ID: id, Username: fmt.Sprintf("user%03d", id)}
	}

	return users
}

// Order IDs are userID*1000+n; totals are 10 + userID/10 + n, rounded to cents.
func buildNPlus1Orders() map[int][]Order {
	orders := make(map[int][]Order, NPlus1UserCount)

	for userID := 1; userID <= NPlus1UserCount; userID++ {
		list := make([]Order, NPlus1OrdersPerUser)
		for j := 1; j <= NPlus1OrdersPerUser; j++ {
			id := userID*1000 + j
			list[j-1] = Order{
				ID:        id,
				Total:     math.Round((10+float64(userID)*0.1+float64(j))*100) / 100,
				ItemCount: 1 + id%4,
			}
		}

		orders[userID] = list
	}

	return orders
}

// NPlus1Users returns the first limit users without orders. A limit of zero
// or less returns all of them.
func NPlus1Users(limit int) []OrderedUser {
	if limit <= 0 || limit > len(nplus1Users) {
		limit = len(nplus1Users)
	}

	out := make([]OrderedUser, limit)
	copy(out, nplus1Users[:limit])

	return out
}

// BatchLoadOrders returns the orders of every requested user in one call.
// Unknown users map to an empty list.
func BatchLoadOrders(userIDs []int) map[int][]Order {
	out := make(map[int][]Order, len(userIDs))
	for _, id := range userIDs {
		orders, ok := nplus1Orders[id]
		if !ok {
			orders = []Order{}
		}

		out[id] = orders
	}

	return out
}

// NPlus1 resolves every user's orders with a single batch load.
func NPlus1() []OrderedUser {
	users := NPlus1Users(0)

	ids := make([]int, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	orders := BatchLoadOrders(ids)
	for i := range users {
		users[i].Orders = orders[users[i].ID]
	}

	return users
}
