package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "splitledger.v1.ExpenseService"

// Procedure names of the ExpenseService RPCs.
const (
	ExpenseServiceCreateExpenseProcedure     = "/splitledger.v1.ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure        = "/splitledger.v1.ExpenseService/GetExpense"
	ExpenseServiceListGroupExpensesProcedure = "/splitledger.v1.ExpenseService/ListGroupExpenses"
	ExpenseServiceUpdateExpenseProcedure     = "/splitledger.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure     = "/splitledger.v1.ExpenseService/DeleteExpense"
	ExpenseServiceGetStatisticsProcedure     = "/splitledger.v1.ExpenseService/GetStatistics"
)

// ExpenseServiceHandler is implemented by the server side of splitledger.v1.ExpenseService.
// ExpenseService records expenses and reports statistics.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	ListGroupExpenses(context.Context, *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	GetStatistics(context.Context, *connect.Request[api.GetStatisticsRequest]) (*connect.Response[api.GetStatisticsResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts)
	handle(mux, ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts)
	handle(mux, ExpenseServiceListGroupExpensesProcedure, svc.ListGroupExpenses, opts)
	handle(mux, ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts)
	handle(mux, ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts)
	handle(mux, ExpenseServiceGetStatisticsProcedure, svc.GetStatistics, opts)
	return "/" + ExpenseServiceName + "/", mux
}

// ExpenseServiceClient is a client for the splitledger.v1.ExpenseService service.
type ExpenseServiceClient interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	ListGroupExpenses(context.Context, *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	GetStatistics(context.Context, *connect.Request[api.GetStatisticsRequest]) (*connect.Response[api.GetStatisticsResponse], error)
}

// NewExpenseServiceClient constructs a client for the splitledger.v1.ExpenseService service.
// baseURL is the server's address, e.g. http://localhost:8080.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &expenseServiceClient{
		createExpense:     connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		getExpense:        connect.NewClient[api.GetExpenseRequest, api.GetExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		listGroupExpenses: connect.NewClient[api.ListGroupExpensesRequest, api.ListGroupExpensesResponse](httpClient, baseURL+ExpenseServiceListGroupExpensesProcedure, opts...),
		updateExpense:     connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense:     connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		getStatistics:     connect.NewClient[api.GetStatisticsRequest, api.GetStatisticsResponse](httpClient, baseURL+ExpenseServiceGetStatisticsProcedure, opts...),
	}
}

type expenseServiceClient struct {
	createExpense     *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	getExpense        *connect.Client[api.GetExpenseRequest, api.GetExpenseResponse]
	listGroupExpenses *connect.Client[api.ListGroupExpensesRequest, api.ListGroupExpensesResponse]
	updateExpense     *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	deleteExpense     *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	getStatistics     *connect.Client[api.GetStatisticsRequest, api.GetStatisticsResponse]
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListGroupExpenses(ctx context.Context, req *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error) {
	return c.listGroupExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetStatistics(ctx context.Context, req *connect.Request[api.GetStatisticsRequest]) (*connect.Response[api.GetStatisticsResponse], error) {
	return c.getStatistics.CallUnary(ctx, req)
}
