package results

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/twinflash/go/internal/game/outbox"
)

const (
	ServiceName = "twinflash.results.v1.ResultService"

	ListRecentResultsProcedure = "/" + ServiceName + "/ListRecentResults"

	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrNoStore = errors.New("results store not configured")

// ResultLister reads stored results
type ResultLister interface {
	ListRecentResults(ctx context.Context, limit int32) ([]outbox.StoredResult, error)
}

type ListRecentResultsRequest struct {
	Limit int32 `json:"limit"`
}

type ListRecentResultsResponse struct {
	Results []outbox.StoredResult `json:"results"`
}

// Service implements the ResultService read API
type Service struct {
	store ResultLister
}

func NewService(store ResultLister) *Service {
	return &Service{store: store}
}

// ListRecentResults returns the latest finished sessions, newest first
func (s *Service) ListRecentResults(ctx context.Context, req *connect.Request[ListRecentResultsRequest]) (*connect.Response[ListRecentResultsResponse], error) {
	limit := req.Msg.Limit
	switch {
	case limit < 0:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("limit must not be negative, got %d", limit))
	case limit == 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	if s.store == nil {
		return nil, connect.NewError(connect.CodeUnavailable, ErrNoStore)
	}

	results, err := s.store.ListRecentResults(ctx, limit)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if results == nil {
		results = []outbox.StoredResult{}
	}

	return connect.NewResponse(&ListRecentResultsResponse{Results: results}), nil
}

// NewHandler builds the HTTP handler of the service and the path to mount it on
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListRecentResultsProcedure, connect.NewUnaryHandler(
		ListRecentResultsProcedure,
		svc.ListRecentResults,
		opts...,
	))
	return "/" + ServiceName + "/", mux
}

// Client calls the ResultService
type Client struct {
	listRecentResults *connect.Client[ListRecentResultsRequest, ListRecentResultsResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		listRecentResults: connect.NewClient[ListRecentResultsRequest, ListRecentResultsResponse](
			httpClient,
			baseURL+ListRecentResultsProcedure,
			opts...,
		),
	}
}

func (c *Client) ListRecentResults(ctx context.Context, limit int32) ([]outbox.StoredResult, error) {
	resp, err := c.listRecentResults.CallUnary(ctx, connect.NewRequest(&ListRecentResultsRequest{Limit: limit}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Results, nil
}
