package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fwbench/fwbench/payload"
)

func startServer(t *testing.T, name string) string {
	t.Helper()

	ctx := context.Background()

	store, err := payload.OpenStore(ctx, ":memory:")
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Seed(ctx, payload.DefaultUserCount); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	srv, err := New(name, &Handlers{
		Store:     store,
		SlowDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New(%q) failed: %v", name, err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() { _ = srv.Serve(ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return "http://" + ln.Addr().String()
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d, body %s", url, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v\nbody: %s", url, err, body)
	}
}

func postJSON(t *testing.T, url, body string, wantStatus int, v any) {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}

	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: status %d, want %d, body %s", url, resp.StatusCode, wantStatus, data)
	}

	if v != nil {
		if err := json.Unmarshal(data, v); err != nil {
			t.Fatalf("decode %s: %v\nbody: %s", url, err, data)
		}
	}
}

func TestEveryFrameworkServesEveryEndpoint(t *testing.T) {
	for _, name := range Frameworks() {
		if name == GraphQL {
			continue
		}

		t.Run(name, func(t *testing.T) {
			base := startServer(t, name)

			var small []payload.Item
			getJSON(t, base+PathJSON1K, &small)
			if len(small) != len(payload.JSON1K) {
				t.Errorf("json-1k items = %d, want %d", len(small), len(payload.JSON1K))
			}

			var large []payload.Item
			getJSON(t, base+PathJSON10K, &large)
			if len(large) != len(payload.JSON10K) {
				t.Errorf("json-10k items = %d, want %d", len(large), len(payload.JSON10K))
			}

			var users []payload.User
			getJSON(t, base+PathDB, &users)
			if len(users) != payload.DefaultUserCount {
				t.Errorf("db users = %d, want %d", len(users), payload.DefaultUserCount)
			}

			var slow SlowResponse
			getJSON(t, base+PathSlow, &slow)
			if slow.Status != "ok" {
				t.Errorf("slow status = %q, want ok", slow.Status)
			}

			var nplus1 []payload.OrderedUser
			getJSON(t, base+PathNPlus1, &nplus1)
			if len(nplus1) != payload.NPlus1UserCount || len(nplus1[0].Orders) != payload.NPlus1OrdersPerUser {
				t.Errorf("nplus1 = %d users", len(nplus1))
			}

			var first, second payload.CreatedItem
			postJSON(t, base+PathItems, `{"name":"widget","quantity":3}`, http.StatusCreated, &first)
			postJSON(t, base+PathItems, `{"name":"gadget","quantity":1}`, http.StatusCreated, &second)
			if first.Name != "widget" || first.Quantity != 3 || first.Status != "ok" {
				t.Errorf("created = %+v", first)
			}
			if second.ID != first.ID+1 {
				t.Errorf("ids = %d, %d, want consecutive", first.ID, second.ID)
			}

			postJSON(t, base+PathItems, `{"quantity":1}`, http.StatusBadRequest, nil)

			var versions payload.VersionInfo
			getJSON(t, base+PathVersions, &versions)
			if versions.Framework != name {
				t.Errorf("versions framework = %q, want %q", versions.Framework, name)
			}

			var health map[string]string
			getJSON(t, base+PathHealth, &health)
			if health["status"] != "ok" {
				t.Errorf("health = %v", health)
			}
		})
	}
}

func TestNewUnknownFramework(t *testing.T) {
	_, err := New("rails", &Handlers{})
	if !errors.Is(err, ErrUnknownFramework) {
		t.Errorf("err = %v, want ErrUnknownFramework", err)
	}
}

func TestSlowHonoursContext(t *testing.T) {
	h := &Handlers{SlowDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Slow(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSlowReportsDelaySeconds(t *testing.T) {
	h := &Handlers{SlowDelay: 1500 * time.Millisecond}

	resp, err := h.Slow(context.Background())
	if err != nil {
		t.Fatalf("Slow failed: %v", err)
	}

	if resp.DelaySeconds != 2 {
		t.Errorf("delay_seconds = %d, want 2", resp.DelaySeconds)
	}
}

type graphQLResponse struct {
	Data struct {
		JSON1K []payload.Item `json:"json1k"`
		Users  []struct {
			Username  string `json:"username"`
			FirstName string `json:"firstName"`
		} `json:"users"`
		Slow struct {
			Status       string `json:"status"`
			DelaySeconds int    `json:"delaySeconds"`
		} `json:"slow"`
		NPlus1 []struct {
			ID     int `json:"id"`
			Orders []struct {
				ID        int     `json:"id"`
				Total     float64 `json:"total"`
				ItemCount int     `json:"itemCount"`
			} `json:"orders"`
		} `json:"nplus1"`
		CreateItem payload.CreatedItem `json:"createItem"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func TestGraphQLServesEveryOperation(t *testing.T) {
	base := startServer(t, GraphQL)

	query := `{"query":"{ json1k { id name inStock tags } users { username firstName } slow { status delaySeconds } nplus1 { id orders { id total itemCount } } }"}`

	var resp graphQLResponse
	postJSON(t, base+PathGraphQL, query, http.StatusOK, &resp)

	if len(resp.Errors) > 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}

	if len(resp.Data.JSON1K) != len(payload.JSON1K) || resp.Data.JSON1K[0].Name != payload.JSON1K[0].Name {
		t.Errorf("json1k = %d items", len(resp.Data.JSON1K))
	}
	if len(resp.Data.Users) != payload.DefaultUserCount || resp.Data.Users[0].FirstName == "" {
		t.Errorf("users = %+v", resp.Data.Users)
	}
	if resp.Data.Slow.Status != "ok" {
		t.Errorf("slow = %+v", resp.Data.Slow)
	}
	if len(resp.Data.NPlus1) != payload.NPlus1UserCount || resp.Data.NPlus1[0].Orders[0].ID != 1001 {
		t.Errorf("nplus1 = %d users", len(resp.Data.NPlus1))
	}

	mutation := `{"query":"mutation { createItem(input: {name: \"widget\", quantity: 3}) { id name quantity status } }"}`

	var created graphQLResponse
	postJSON(t, base+PathGraphQL, mutation, http.StatusOK, &created)

	if len(created.Errors) > 0 {
		t.Fatalf("errors = %+v", created.Errors)
	}

	want := payload.CreatedItem{ID: 1, Name: "widget", Quantity: 3, Status: "ok"}
	if created.Data.CreateItem != want {
		t.Errorf("createItem = %+v, want %+v", created.Data.CreateItem, want)
	}

	var versions payload.VersionInfo
	getJSON(t, base+PathVersions, &versions)
	if versions.Framework != GraphQL {
		t.Errorf("versions framework = %q", versions.Framework)
	}
}

func TestGraphQLRejectsInvalidItem(t *testing.T) {
	base := startServer(t, GraphQL)

	mutation := `{"query":"mutation { createItem(input: {name: \"\", quantity: 1}) { id } }"}`

	var resp graphQLResponse
	postJSON(t, base+PathGraphQL, mutation, http.StatusOK, &resp)

	if len(resp.Errors) == 0 || !strings.Contains(resp.Errors[0].Message, "name is required") {
		t.Errorf("errors = %+v, want name validation error", resp.Errors)
	}
}
