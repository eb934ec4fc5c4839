package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// UserServiceName is the fully-qualified name of the UserService service.
const UserServiceName = "splitledger.v1.UserService"

// Procedure names of the UserService RPCs.
const (
	UserServiceCreateUserProcedure      = "/splitledger.v1.UserService/CreateUser"
	UserServiceGetUserProcedure         = "/splitledger.v1.UserService/GetUser"
	UserServiceListUsersProcedure       = "/splitledger.v1.UserService/ListUsers"
	UserServiceUpdateUserProcedure      = "/splitledger.v1.UserService/UpdateUser"
	UserServiceDeleteUserProcedure      = "/splitledger.v1.UserService/DeleteUser"
	UserServiceGetUserBalancesProcedure = "/splitledger.v1.UserService/GetUserBalances"
	UserServiceGetUserSummaryProcedure  = "/splitledger.v1.UserService/GetUserSummary"
)

// UserServiceHandler is implemented by the server side of splitledger.v1.UserService.
// UserService manages users and reports their balances across groups.
type UserServiceHandler interface {
	CreateUser(context.Context, *connect.Request[api.CreateUserRequest]) (*connect.Response[api.CreateUserResponse], error)
	GetUser(context.Context, *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error)
	ListUsers(context.Context, *connect.Request[api.ListUsersRequest]) (*connect.Response[api.ListUsersResponse], error)
	UpdateUser(context.Context, *connect.Request[api.UpdateUserRequest]) (*connect.Response[api.UpdateUserResponse], error)
	DeleteUser(context.Context, *connect.Request[api.DeleteUserRequest]) (*connect.Response[api.DeleteUserResponse], error)
	GetUserBalances(context.Context, *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error)
	GetUserSummary(context.Context, *connect.Request[api.GetUserSummaryRequest]) (*connect.Response[api.GetUserSummaryResponse], error)
}

// NewUserServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewUserServiceHandler(svc UserServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, UserServiceCreateUserProcedure, svc.CreateUser, opts)
	handle(mux, UserServiceGetUserProcedure, svc.GetUser, opts)
	handle(mux, UserServiceListUsersProcedure, svc.ListUsers, opts)
	handle(mux, UserServiceUpdateUserProcedure, svc.UpdateUser, opts)
	handle(mux, UserServiceDeleteUserProcedure, svc.DeleteUser, opts)
	handle(mux, UserServiceGetUserBalancesProcedure, svc.GetUserBalances, opts)
	handle(mux, UserServiceGetUserSummaryProcedure, svc.GetUserSummary, opts)
	return "/" + UserServiceName + "/", mux
}

// UserServiceClient is a client for the splitledger.v1.UserService service.
type UserServiceClient interface {
	CreateUser(context.Context, *connect.Request[api.CreateUserRequest]) (*connect.Response[api.CreateUserResponse], error)
	GetUser(context.Context, *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error)
	ListUsers(context.Context, *connect.Request[api.ListUsersRequest]) (*connect.Response[api.ListUsersResponse], error)
	UpdateUser(context.Context, *connect.Request[api.UpdateUserRequest]) (*connect.Response[api.UpdateUserResponse], error)
	DeleteUser(context.Context, *connect.Request[api.DeleteUserRequest]) (*connect.Response[api.DeleteUserResponse], error)
	GetUserBalances(context.Context, *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error)
	GetUserSummary(context.Context, *connect.Request[api.GetUserSummaryRequest]) (*connect.Response[api.GetUserSummaryResponse], error)
}

// NewUserServiceClient constructs a client for the splitledger.v1.UserService service.
// baseURL is the server's address, e.g. http://localhost:8080.
func NewUserServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) UserServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &userServiceClient{
		createUser:      connect.NewClient[api.CreateUserRequest, api.CreateUserResponse](httpClient, baseURL+UserServiceCreateUserProcedure, opts...),
		getUser:         connect.NewClient[api.GetUserRequest, api.GetUserResponse](httpClient, baseURL+UserServiceGetUserProcedure, opts...),
		listUsers:       connect.NewClient[api.ListUsersRequest, api.ListUsersResponse](httpClient, baseURL+UserServiceListUsersProcedure, opts...),
		updateUser:      connect.NewClient[api.UpdateUserRequest, api.UpdateUserResponse](httpClient, baseURL+UserServiceUpdateUserProcedure, opts...),
		deleteUser:      connect.NewClient[api.DeleteUserRequest, api.DeleteUserResponse](httpClient, baseURL+UserServiceDeleteUserProcedure, opts...),
		getUserBalances: connect.NewClient[api.GetUserBalancesRequest, api.GetUserBalancesResponse](httpClient, baseURL+UserServiceGetUserBalancesProcedure, opts...),
		getUserSummary:  connect.NewClient[api.GetUserSummaryRequest, api.GetUserSummaryResponse](httpClient, baseURL+UserServiceGetUserSummaryProcedure, opts...),
	}
}

type userServiceClient struct {
	createUser      *connect.Client[api.CreateUserRequest, api.CreateUserResponse]
	getUser         *connect.Client[api.GetUserRequest, api.GetUserResponse]
	listUsers       *connect.Client[api.ListUsersRequest, api.ListUsersResponse]
	updateUser      *connect.Client[api.UpdateUserRequest, api.UpdateUserResponse]
	deleteUser      *connect.Client[api.DeleteUserRequest, api.DeleteUserResponse]
	getUserBalances *connect.Client[api.GetUserBalancesRequest, api.GetUserBalancesResponse]
	getUserSummary  *connect.Client[api.GetUserSummaryRequest, api.GetUserSummaryResponse]
}

func (c *userServiceClient) CreateUser(ctx context.Context, req *connect.Request[api.CreateUserRequest]) (*connect.Response[api.CreateUserResponse], error) {
	return c.createUser.CallUnary(ctx, req)
}

func (c *userServiceClient) GetUser(ctx context.Context, req *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error) {
	return c.getUser.CallUnary(ctx, req)
}

func (c *userServiceClient) ListUsers(ctx context.Context, req *connect.Request[api.ListUsersRequest]) (*connect.Response[api.ListUsersResponse], error) {
	return c.listUsers.CallUnary(ctx, req)
}

func (c *userServiceClient) UpdateUser(ctx context.Context, req *connect.Request[api.UpdateUserRequest]) (*connect.Response[api.UpdateUserResponse], error) {
	return c.updateUser.CallUnary(ctx, req)
}

func (c *userServiceClient) DeleteUser(ctx context.Context, req *connect.Request[api.DeleteUserRequest]) (*connect.Response[api.DeleteUserResponse], error) {
	return c.deleteUser.CallUnary(ctx, req)
}

func (c *userServiceClient) GetUserBalances(ctx context.Context, req *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error) {
	return c.getUserBalances.CallUnary(ctx, req)
}

func (c *userServiceClient) GetUserSummary(ctx context.Context, req *connect.Request[api.GetUserSummaryRequest]) (*connect.Response[api.GetUserSummaryResponse], error) {
	return c.getUserSummary.CallUnary(ctx, req)
}
