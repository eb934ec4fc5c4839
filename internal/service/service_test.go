package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testClients struct {
	users     apiconnect.UserServiceClient
	groups    apiconnect.GroupServiceClient
	expenses  apiconnect.ExpenseServiceClient
	publisher *recordingPublisher
}

// setupTestServer serves all three services over httptest backed by a
// temporary SQLite database and an in-memory Redis balance cache.
func setupTestServer(t *testing.T) *testClients {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	publisher := &recordingPublisher{}
	ledgerSvc := ledger.New(store, cache.NewRedis(client, time.Minute))
	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor())

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewUserServiceHandler(NewUserService(store, ledgerSvc), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store, ledgerSvc), interceptors))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(store, ledgerSvc, publisher), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		client.Close()
		store.Close()
	})

	return &testClients{
		users:     apiconnect.NewUserServiceClient(server.Client(), server.URL),
		groups:    apiconnect.NewGroupServiceClient(server.Client(), server.URL),
		expenses:  apiconnect.NewExpenseServiceClient(server.Client(), server.URL),
		publisher: publisher,
	}
}

func pct(p money.Percent) *money.Percent { return &p }

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func (c *testClients) createUser(t *testing.T, name string) int64 {
	t.Helper()
	resp, err := c.users.CreateUser(context.Background(), connect.NewRequest(&api.CreateUserRequest{
		Name:  name,
		Email: name + "@example.com",
	}))
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return resp.Msg.User.ID
}

func (c *testClients) createGroup(t *testing.T, name string, members ...int64) int64 {
	t.Helper()
	resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:    name,
		Members: members,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group.ID
}

func (c *testClients) createExpense(t *testing.T, req *api.CreateExpenseRequest) *api.Expense {
	t.Helper()
	resp, err := c.expenses.CreateExpense(context.Background(), connect.NewRequest(req))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

// scenario records the two expenses of the reference trip among a, b and c:
// 120.00 paid by a split equally, 100.00 paid by b split 30/35/35.
func (c *testClients) scenario(t *testing.T) (groupID, a, b, cc int64) {
	t.Helper()
	a, b, cc = c.createUser(t, "alice"), c.createUser(t, "bob"), c.createUser(t, "carol")
	groupID = c.createGroup(t, "Trip", a, b, cc)

	c.createExpense(t, &api.CreateExpenseRequest{
		GroupID:     groupID,
		Description: "Dinner",
		Amount:      money.MustParse("120.00"),
		PaidBy:      a,
		SplitType:   "equal",
	})
	c.createExpense(t, &api.CreateExpenseRequest{
		GroupID:     groupID,
		Description: "Tickets",
		Amount:      money.MustParse("100.00"),
		PaidBy:      b,
		SplitType:   "percentage",
		Splits: []*api.SplitInput{
			{UserID: a, Percentage: pct(3000)},
			{UserID: b, Percentage: pct(3500)},
			{UserID: cc, Percentage: pct(3500)},
		},
	})
	return groupID, a, b, cc
}
