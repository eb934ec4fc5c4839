package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/pkg/api"
)

func TestCreateGroup(t *testing.T) {
	c := setupTestServer(t)
	a, b, cc := c.createUser(t, "alice"), c.createUser(t, "bob"), c.createUser(t, "carol")

	resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:    "Roommates",
		Members: []int64{cc, a, b},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	group := resp.Msg.Group
	if group.ID == 0 {
		t.Error("expected non-zero group ID")
	}
	if group.Name != "Roommates" {
		t.Errorf("name: expected 'Roommates', got '%s'", group.Name)
	}
	if group.MemberCount != 3 || group.Members[0] != a {
		t.Errorf("members: expected 3 sorted members, got %v", group.Members)
	}
	if group.CreatedAt == 0 {
		t.Error("expected non-zero CreatedAt")
	}
}

func TestCreateGroupValidation(t *testing.T) {
	c := setupTestServer(t)
	a, b := c.createUser(t, "alice"), c.createUser(t, "bob")

	tests := []struct {
		name string
		req  *api.CreateGroupRequest
		code connect.Code
	}{
		{"short name", &api.CreateGroupRequest{Name: " x ", Members: []int64{a, b}}, connect.CodeInvalidArgument},
		{"one member", &api.CreateGroupRequest{Name: "Solo", Members: []int64{a}}, connect.CodeInvalidArgument},
		{"duplicate members", &api.CreateGroupRequest{Name: "Dupes", Members: []int64{a, a}}, connect.CodeInvalidArgument},
		{"unknown member", &api.CreateGroupRequest{Name: "Ghosts", Members: []int64{a, 999}}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(tt.req))
			expectCode(t, err, tt.code)
		})
	}
}

func TestGetGroupWithTotals(t *testing.T) {
	c := setupTestServer(t)
	groupID, _, _, _ := c.scenario(t)

	resp, err := c.groups.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if resp.Msg.Group.ExpenseCount != 2 {
		t.Errorf("expense count: expected 2, got %d", resp.Msg.Group.ExpenseCount)
	}
	if resp.Msg.Group.TotalExpenses != money.MustParse("220.00") {
		t.Errorf("total: expected 220.00, got %s", resp.Msg.Group.TotalExpenses)
	}

	_, err = c.groups.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{GroupID: 999}))
	expectCode(t, err, connect.CodeNotFound)
}

func TestListGroups(t *testing.T) {
	c := setupTestServer(t)
	c.scenario(t)
	d, e := c.createUser(t, "dave"), c.createUser(t, "erin")
	c.createGroup(t, "Office", d, e)

	resp, err := c.groups.ListGroups(context.Background(), connect.NewRequest(&api.ListGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(resp.Msg.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(resp.Msg.Groups))
	}
}

func TestGetGroupBalancesScenario(t *testing.T) {
	c := setupTestServer(t)
	groupID, a, b, cc := c.scenario(t)

	resp, err := c.groups.GetGroupBalances(context.Background(), connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	if resp.Msg.GroupName != "Trip" {
		t.Errorf("group name: expected 'Trip', got '%s'", resp.Msg.GroupName)
	}

	expected := []struct {
		user    int64
		name    string
		balance string
	}{
		{cc, "carol", "-75.00"},
		{b, "bob", "25.00"},
		{a, "alice", "50.00"},
	}
	if len(resp.Msg.Balances) != len(expected) {
		t.Fatalf("expected %d balances, got %d", len(expected), len(resp.Msg.Balances))
	}
	var sum money.Cents
	for i, want := range expected {
		got := resp.Msg.Balances[i]
		sum += got.Balance
		if got.UserID != want.user || got.UserName != want.name || got.Balance != money.MustParse(want.balance) {
			t.Errorf("balance %d: expected %s %s, got %+v", i, want.name, want.balance, got)
		}
		if got.PaidTotal-got.OwesTotal != got.Balance {
			t.Errorf("%s: paid %s - owes %s != balance %s", want.name, got.PaidTotal, got.OwesTotal, got.Balance)
		}
	}
	if sum != 0 {
		t.Errorf("balances should sum to zero, got %s", sum)
	}
}

func TestGetGroupBalancesEmptyGroup(t *testing.T) {
	c := setupTestServer(t)
	a, b := c.createUser(t, "alice"), c.createUser(t, "bob")
	groupID := c.createGroup(t, "Quiet", a, b)

	balances, err := c.groups.GetGroupBalances(context.Background(), connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	if len(balances.Msg.Balances) != 2 {
		t.Fatalf("expected every member listed, got %d", len(balances.Msg.Balances))
	}
	for _, b := range balances.Msg.Balances {
		if b.Balance != 0 {
			t.Errorf("expected zero balance for %d, got %s", b.UserID, b.Balance)
		}
	}

	settlements, err := c.groups.GetSettlements(context.Background(), connect.NewRequest(&api.GetSettlementsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetSettlements failed: %v", err)
	}
	if !settlements.Msg.Settled || len(settlements.Msg.Settlements) != 0 {
		t.Errorf("expected settled group, got %+v", settlements.Msg)
	}
}

func TestGetSettlementsScenario(t *testing.T) {
	c := setupTestServer(t)
	groupID, a, b, cc := c.scenario(t)

	resp, err := c.groups.GetSettlements(context.Background(), connect.NewRequest(&api.GetSettlementsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetSettlements failed: %v", err)
	}
	if resp.Msg.Settled {
		t.Error("expected unsettled group")
	}

	got := resp.Msg.Settlements
	if len(got) != 2 {
		t.Fatalf("expected 2 settlements, got %d", len(got))
	}
	if got[0].FromUserID != cc || got[0].ToUserID != a || got[0].Amount != money.MustParse("50.00") {
		t.Errorf("first settlement: expected carol pays alice 50.00, got %+v", got[0])
	}
	if got[1].FromUserID != cc || got[1].ToUserID != b || got[1].Amount != money.MustParse("25.00") {
		t.Errorf("second settlement: expected carol pays bob 25.00, got %+v", got[1])
	}
	if got[0].FromUserName != "carol" || got[0].ToUserName != "alice" {
		t.Errorf("expected names on settlement, got %+v", got[0])
	}
}

func TestUpdateGroupKeepsFormerMemberBalance(t *testing.T) {
	c := setupTestServer(t)
	groupID, a, b, cc := c.scenario(t)
	d := c.createUser(t, "dave")

	// Cache the balances before the membership change.
	if _, err := c.groups.GetGroupBalances(context.Background(), connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID})); err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}

	resp, err := c.groups.UpdateGroup(context.Background(), connect.NewRequest(&api.UpdateGroupRequest{
		GroupID: groupID,
		Name:    "Trip 2025",
		Members: []int64{a, b, d},
	}))
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	if resp.Msg.Group.Name != "Trip 2025" || resp.Msg.Group.MemberCount != 3 {
		t.Errorf("unexpected group after update: %+v", resp.Msg.Group)
	}

	balances, err := c.groups.GetGroupBalances(context.Background(), connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	byUser := make(map[int64]*api.MemberBalance)
	var sum money.Cents
	for _, mb := range balances.Msg.Balances {
		byUser[mb.UserID] = mb
		sum += mb.Balance
	}
	if len(byUser) != 4 {
		t.Fatalf("expected 3 members plus carol, got %d entries", len(byUser))
	}
	if !byUser[cc].FormerMember || byUser[cc].Balance != money.MustParse("-75.00") {
		t.Errorf("carol should remain as former member owing 75.00, got %+v", byUser[cc])
	}
	if byUser[d].Balance != 0 || byUser[d].FormerMember {
		t.Errorf("dave should be a settled member, got %+v", byUser[d])
	}
	if sum != 0 {
		t.Errorf("balances should sum to zero, got %s", sum)
	}

	// Renaming only leaves members alone.
	renamed, err := c.groups.UpdateGroup(context.Background(), connect.NewRequest(&api.UpdateGroupRequest{GroupID: groupID, Name: "Trip"}))
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	if renamed.Msg.Group.MemberCount != 3 {
		t.Errorf("expected members unchanged, got %v", renamed.Msg.Group.Members)
	}
}

func TestDeleteGroup(t *testing.T) {
	c := setupTestServer(t)
	groupID, a, b, _ := c.scenario(t)

	_, err := c.groups.DeleteGroup(context.Background(), connect.NewRequest(&api.DeleteGroupRequest{GroupID: groupID}))
	expectCode(t, err, connect.CodeFailedPrecondition)

	empty := c.createGroup(t, "Empty", a, b)
	if _, err := c.groups.DeleteGroup(context.Background(), connect.NewRequest(&api.DeleteGroupRequest{GroupID: empty})); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	_, err = c.groups.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{GroupID: empty}))
	expectCode(t, err, connect.CodeNotFound)
}
