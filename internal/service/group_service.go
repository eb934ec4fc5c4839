package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

const minGroupNameLength = 2

// GroupService implements the Connect GroupService
type GroupService struct {
	store  storage.Store
	ledger *ledger.Service
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, ledger *ledger.Service) *GroupService {
	return &GroupService{store: store, ledger: ledger}
}

// CreateGroup creates a new group.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.InfoContext(ctx, "CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:    strings.TrimSpace(req.Msg.Name),
		Members: req.Msg.Members,
	}
	if err := s.checkGroup(ctx, group); err != nil {
		return nil, toConnectError(ctx, "CreateGroup", err)
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, toConnectError(ctx, "CreateGroup", err)
	}

	slog.InfoContext(ctx, "Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group by ID with its expense totals.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.InfoContext(ctx, "GetGroup request received", "group_id", req.Msg.GroupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	summary, err := s.store.GetGroupSummary(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroup", err)
	}

	slog.InfoContext(ctx, "GetGroup successful", "group_id", summary.ID, "name", summary.Name)

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroupSummary(summary)}), nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	slog.InfoContext(ctx, "ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, toConnectError(ctx, "ListGroups", err)
	}

	out := make([]*api.Group, len(groups))
	for i := range groups {
		out[i] = toAPIGroupSummary(&groups[i])
	}

	slog.InfoContext(ctx, "ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup renames a group and/or replaces its member set.
// Existing expenses keep their splits; departed members with a non-zero
// balance keep appearing in the group's balances.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	slog.InfoContext(ctx, "UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateGroup", err)
	}
	if name := strings.TrimSpace(req.Msg.Name); name != "" {
		group.Name = name
	}
	if len(req.Msg.Members) > 0 {
		group.Members = req.Msg.Members
	}
	if err := s.checkGroup(ctx, group); err != nil {
		return nil, toConnectError(ctx, "UpdateGroup", err)
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, toConnectError(ctx, "UpdateGroup", err)
	}
	s.ledger.Invalidate(ctx, group.ID)

	// Fetch updated group to get totals
	summary, err := s.store.GetGroupSummary(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateGroup", err)
	}

	slog.InfoContext(ctx, "Group updated", "group_id", group.ID)

	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroupSummary(summary)}), nil
}

// DeleteGroup removes a group that has no expenses.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.InfoContext(ctx, "DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "DeleteGroup", err)
	}
	s.ledger.Invalidate(ctx, req.Msg.GroupID)

	slog.InfoContext(ctx, "Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetGroupBalances returns each member's net balance, largest debt first.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	groupID := req.Msg.GroupID
	slog.InfoContext(ctx, "GetGroupBalances request received", "group_id", groupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	sheet, err := s.ledger.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroupBalances", err)
	}

	balances := make([]*api.MemberBalance, len(sheet.Balances))
	for i, b := range sheet.Balances {
		balances[i] = &api.MemberBalance{
			UserID:       b.UserID,
			UserName:     b.UserName,
			Balance:      b.Net,
			PaidTotal:    b.Paid,
			OwesTotal:    b.Owes,
			FormerMember: b.FormerMember,
		}
	}

	slog.InfoContext(ctx, "GetGroupBalances successful", "group_id", groupID, "members", len(balances))

	return connect.NewResponse(&api.GetGroupBalancesResponse{
		GroupID:   sheet.GroupID,
		GroupName: sheet.GroupName,
		Balances:  balances,
	}), nil
}

// GetSettlements suggests the payments that settle a group.
func (s *GroupService) GetSettlements(ctx context.Context, req *connect.Request[api.GetSettlementsRequest]) (*connect.Response[api.GetSettlementsResponse], error) {
	groupID := req.Msg.GroupID
	slog.InfoContext(ctx, "GetSettlements request received", "group_id", groupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	settlements, err := s.ledger.Settlements(ctx, groupID)
	if err != nil {
		return nil, toConnectError(ctx, "GetSettlements", err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = &api.Settlement{
			FromUserID:   st.From,
			FromUserName: st.FromName,
			ToUserID:     st.To,
			ToUserName:   st.ToName,
			Amount:       st.Amount,
		}
	}

	slog.InfoContext(ctx, "GetSettlements successful", "group_id", groupID, "transfers", len(out))

	return connect.NewResponse(&api.GetSettlementsResponse{
		GroupID:     groupID,
		Settlements: out,
		Settled:     len(out) == 0,
	}), nil
}

// checkGroup validates the name and member set of a group about to be
// written. Members are sorted in place.
func (s *GroupService) checkGroup(ctx context.Context, group *models.Group) error {
	if utf8.RuneCountInString(group.Name) < minGroupNameLength {
		return apperr.Validation("group name must be at least %d characters", minGroupNameLength)
	}

	members := slices.Clone(group.Members)
	slices.Sort(members)
	if len(slices.Compact(slices.Clone(members))) != len(members) {
		return apperr.Validation("group members must be unique")
	}
	if len(members) < 2 {
		return apperr.Validation("a group needs at least 2 members")
	}

	users, err := s.store.GetUsersByIDs(ctx, members)
	if err != nil {
		return err
	}
	for _, id := range members {
		if _, ok := users[id]; !ok {
			return apperr.NotFound("user", id)
		}
	}

	group.Members = members
	return nil
}
