package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// UserService implements the Connect UserService
type UserService struct {
	store  storage.Store
	ledger *ledger.Service
}

// NewUserService creates a new UserService with the given storage backend.
func NewUserService(store storage.Store, ledger *ledger.Service) *UserService {
	return &UserService{store: store, ledger: ledger}
}

// CreateUser registers a new user. Emails are unique.
func (s *UserService) CreateUser(ctx context.Context, req *connect.Request[api.CreateUserRequest]) (*connect.Response[api.CreateUserResponse], error) {
	slog.InfoContext(ctx, "CreateUser request received", "name", req.Msg.Name)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:  strings.TrimSpace(req.Msg.Name),
		Email: strings.TrimSpace(req.Msg.Email),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, toConnectError(ctx, "CreateUser", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", user.ID)

	return connect.NewResponse(&api.CreateUserResponse{User: toAPIUser(user)}), nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, req *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error) {
	slog.InfoContext(ctx, "GetUser request received", "user_id", req.Msg.UserID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(ctx, "GetUser", err)
	}

	return connect.NewResponse(&api.GetUserResponse{User: toAPIUser(user)}), nil
}

// ListUsers retrieves all users.
func (s *UserService) ListUsers(ctx context.Context, req *connect.Request[api.ListUsersRequest]) (*connect.Response[api.ListUsersResponse], error) {
	slog.InfoContext(ctx, "ListUsers request received")

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, toConnectError(ctx, "ListUsers", err)
	}

	out := make([]*api.User, len(users))
	for i := range users {
		out[i] = toAPIUser(&users[i])
	}

	slog.InfoContext(ctx, "ListUsers successful", "count", len(users))

	return connect.NewResponse(&api.ListUsersResponse{Users: out}), nil
}

// UpdateUser changes a user's name and email. The ID never changes.
func (s *UserService) UpdateUser(ctx context.Context, req *connect.Request[api.UpdateUserRequest]) (*connect.Response[api.UpdateUserResponse], error) {
	slog.InfoContext(ctx, "UpdateUser request received", "user_id", req.Msg.UserID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:    req.Msg.UserID,
		Name:  strings.TrimSpace(req.Msg.Name),
		Email: strings.TrimSpace(req.Msg.Email),
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, toConnectError(ctx, "UpdateUser", err)
	}

	updated, err := s.store.GetUser(ctx, user.ID)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateUser", err)
	}

	// Cached balances carry user names.
	s.invalidateGroupsOf(ctx, user.ID)

	slog.InfoContext(ctx, "User updated", "user_id", user.ID)

	return connect.NewResponse(&api.UpdateUserResponse{User: toAPIUser(updated)}), nil
}

// DeleteUser removes a user who is not referenced by any expense.
func (s *UserService) DeleteUser(ctx context.Context, req *connect.Request[api.DeleteUserRequest]) (*connect.Response[api.DeleteUserResponse], error) {
	slog.InfoContext(ctx, "DeleteUser request received", "user_id", req.Msg.UserID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsByUser(ctx, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(ctx, "DeleteUser", err)
	}
	if err := s.store.DeleteUser(ctx, req.Msg.UserID); err != nil {
		return nil, toConnectError(ctx, "DeleteUser", err)
	}
	for _, g := range groups {
		s.ledger.Invalidate(ctx, g.ID)
	}

	slog.InfoContext(ctx, "User deleted", "user_id", req.Msg.UserID)

	return connect.NewResponse(&api.DeleteUserResponse{}), nil
}

// GetUserBalances returns the user's balance in each of their groups.
func (s *UserService) GetUserBalances(ctx context.Context, req *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error) {
	slog.InfoContext(ctx, "GetUserBalances request received", "user_id", req.Msg.UserID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	user, groups, err := s.ledger.UserBalances(ctx, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(ctx, "GetUserBalances", err)
	}

	slog.InfoContext(ctx, "GetUserBalances successful", "user_id", user.ID, "groups", len(groups))

	return connect.NewResponse(&api.GetUserBalancesResponse{
		UserID:   user.ID,
		UserName: user.Name,
		Balances: toAPIUserGroupBalances(groups),
	}), nil
}

// GetUserSummary returns the user's balances with cross-group totals.
func (s *UserService) GetUserSummary(ctx context.Context, req *connect.Request[api.GetUserSummaryRequest]) (*connect.Response[api.GetUserSummaryResponse], error) {
	slog.InfoContext(ctx, "GetUserSummary request received", "user_id", req.Msg.UserID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	summary, err := s.ledger.UserSummary(ctx, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(ctx, "GetUserSummary", err)
	}

	return connect.NewResponse(&api.GetUserSummaryResponse{
		User:             toAPIUser(&summary.User),
		GroupsCount:      len(summary.Groups),
		Balances:         toAPIUserGroupBalances(summary.Groups),
		TotalBalance:     summary.Total,
		GroupsWithDebt:   summary.GroupsWithDebt,
		GroupsWithCredit: summary.GroupsWithCredit,
		LargestDebt:      summary.LargestDebt,
		LargestCredit:    summary.LargestCredit,
	}), nil
}

func (s *UserService) invalidateGroupsOf(ctx context.Context, userID int64) {
	groups, err := s.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to list groups for cache invalidation", "user_id", userID, "error", err)
		return
	}
	for _, g := range groups {
		s.ledger.Invalidate(ctx, g.ID)
	}
}
