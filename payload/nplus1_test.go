package payload

import (
	"sync"
	"testing"
)

func TestNPlus1Shape(t *testing.T) {
	users := NPlus1()
	if len(users) != NPlus1UserCount {
		t.Fatalf("users = %d, want %d", len(users), NPlus1UserCount)
	}

	first := users[0]
	if first.ID != 1 || first.Username != "user001" {
		t.Errorf("first user = %+v", first)
	}

	if len(first.Orders) != NPlus1OrdersPerUser {
		t.Fatalf("orders = %d, want %d", len(first.Orders), NPlus1OrdersPerUser)
	}

	// user 1, order 2: id 1002, total 10 + 0.1 + 2, item count 1 + 1002%4.
	want := Order{ID: 1002, Total: 12.1, ItemCount: 3}
	if first.Orders[1] != want {
		t.Errorf("order = %+v, want %+v", first.Orders[1], want)
	}

	last := users[len(users)-1]
	if last.Username != "user050" || last.Orders[2].ID != 50003 || last.Orders[2].Total != 18 {
		t.Errorf("last user = %+v", last)
	}
}

func TestNPlus1UsersLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, NPlus1UserCount},
		{5, 5},
		{500, NPlus1UserCount},
	}

	for _, tt := range tests {
		if got := len(NPlus1Users(tt.limit)); got != tt.want {
			t.Errorf("NPlus1Users(%d) = %d users, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestBatchLoadOrdersUnknownUser(t *testing.T) {
	orders := BatchLoadOrders([]int{2, 999})

	if len(orders[2]) != NPlus1OrdersPerUser {
		t.Errorf("user 2 orders = %v", orders[2])
	}

	if got, ok := orders[999]; !ok || len(got) != 0 {
		t.Errorf("unknown user orders = %v, present %v", got, ok)
	}
}

func TestItemCounterConcurrent(t *testing.T) {
	var (
		counter ItemCounter
		mu      sync.Mutex
		wg      sync.WaitGroup
		seen    = make(map[int]bool)
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			item := counter.Create(NewItem{Name: "widget", Quantity: 2})

			mu.Lock()
			seen[item.ID] = true
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(seen) != 50 {
		t.Errorf("distinct ids = %d, want 50", len(seen))
	}

	for id := 1; id <= 50; id++ {
		if !seen[id] {
			t.Errorf("id %d never issued", id)
		}
	}

	next := counter.Create(NewItem{Name: "gadget", Quantity: 1})
	if next.ID != 51 || next.Status != "ok" || next.Name != "gadget" {
		t.Errorf("next = %+v", next)
	}
}

func TestNewItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      NewItem
		wantErr bool
	}{
		{"valid", NewItem{Name: "widget", Quantity: 1}, false},
		{"zero quantity", NewItem{Name: "widget"}, false},
		{"no name", NewItem{Quantity: 1}, true},
		{"negative", NewItem{Name: "widget", Quantity: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
