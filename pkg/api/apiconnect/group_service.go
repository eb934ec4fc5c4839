package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService service.
const GroupServiceName = "splitledger.v1.GroupService"

// Procedure names of the GroupService RPCs.
const (
	GroupServiceCreateGroupProcedure      = "/splitledger.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure         = "/splitledger.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure       = "/splitledger.v1.GroupService/ListGroups"
	GroupServiceUpdateGroupProcedure      = "/splitledger.v1.GroupService/UpdateGroup"
	GroupServiceDeleteGroupProcedure      = "/splitledger.v1.GroupService/DeleteGroup"
	GroupServiceGetGroupBalancesProcedure = "/splitledger.v1.GroupService/GetGroupBalances"
	GroupServiceGetSettlementsProcedure   = "/splitledger.v1.GroupService/GetSettlements"
)

// GroupServiceHandler is implemented by the server side of splitledger.v1.GroupService.
// GroupService manages groups and answers balance and settlement queries.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
	GetSettlements(context.Context, *connect.Request[api.GetSettlementsRequest]) (*connect.Response[api.GetSettlementsResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, GroupServiceCreateGroupProcedure, svc.CreateGroup, opts)
	handle(mux, GroupServiceGetGroupProcedure, svc.GetGroup, opts)
	handle(mux, GroupServiceListGroupsProcedure, svc.ListGroups, opts)
	handle(mux, GroupServiceUpdateGroupProcedure, svc.UpdateGroup, opts)
	handle(mux, GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts)
	handle(mux, GroupServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts)
	handle(mux, GroupServiceGetSettlementsProcedure, svc.GetSettlements, opts)
	return "/" + GroupServiceName + "/", mux
}

// GroupServiceClient is a client for the splitledger.v1.GroupService service.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
	GetSettlements(context.Context, *connect.Request[api.GetSettlementsRequest]) (*connect.Response[api.GetSettlementsResponse], error)
}

// NewGroupServiceClient constructs a client for the splitledger.v1.GroupService service.
// baseURL is the server's address, e.g. http://localhost:8080.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &groupServiceClient{
		createGroup:      connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:         connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:       connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		updateGroup:      connect.NewClient[api.UpdateGroupRequest, api.UpdateGroupResponse](httpClient, baseURL+GroupServiceUpdateGroupProcedure, opts...),
		deleteGroup:      connect.NewClient[api.DeleteGroupRequest, api.DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		getGroupBalances: connect.NewClient[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse](httpClient, baseURL+GroupServiceGetGroupBalancesProcedure, opts...),
		getSettlements:   connect.NewClient[api.GetSettlementsRequest, api.GetSettlementsResponse](httpClient, baseURL+GroupServiceGetSettlementsProcedure, opts...),
	}
}

type groupServiceClient struct {
	createGroup      *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup         *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups       *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	updateGroup      *connect.Client[api.UpdateGroupRequest, api.UpdateGroupResponse]
	deleteGroup      *connect.Client[api.DeleteGroupRequest, api.DeleteGroupResponse]
	getGroupBalances *connect.Client[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse]
	getSettlements   *connect.Client[api.GetSettlementsRequest, api.GetSettlementsResponse]
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetSettlements(ctx context.Context, req *connect.Request[api.GetSettlementsRequest]) (*connect.Response[api.GetSettlementsResponse], error) {
	return c.getSettlements.CallUnary(ctx, req)
}
