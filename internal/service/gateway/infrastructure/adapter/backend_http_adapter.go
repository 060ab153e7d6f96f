package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hrgateway/internal/pkg/httpclient"
	"hrgateway/internal/service/gateway/domain"
	"hrgateway/internal/service/gateway/port"

	"github.com/pkg/errors"
)

// 后端名称，用于 span 和指标标签
const (
	InclusionBackend = "inclusion"
	FetchBackend     = "fetch"
	DeleteBackend    = "delete"
	UpdateBackend    = "update"
)

// backendHTTPAdapter 是四个后端适配器共享的部分: 一个名称、一个基础地址和共享的客户端
type backendHTTPAdapter struct {
	name    string
	baseURL string
	client  *httpclient.Client
}

func newBackend(name, baseURL string, client *httpclient.Client) backendHTTPAdapter {
	return backendHTTPAdapter{name: name, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (a backendHTTPAdapter) Name() string { return a.name }

func (a backendHTTPAdapter) call(ctx context.Context, method, path string, query url.Values, payload any) (*port.Reply, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, errors.Wrapf(err, "encode %s payload", a.name)
		}
	}
	resp, err := a.client.Do(ctx, httpclient.Request{
		Backend: a.name,
		Method:  method,
		URL:     a.baseURL + path,
		Query:   query,
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	return &port.Reply{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// Ping 只要后端能给出 5xx 以外的响应就认为它可用
func (a backendHTTPAdapter) Ping(ctx context.Context) error {
	_, err := a.call(ctx, http.MethodGet, "/", nil, nil)
	var statusErr *httpclient.StatusError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &statusErr):
		if statusErr.StatusCode < http.StatusInternalServerError {
			return nil
		}
		return err
	case errors.Is(err, httpclient.ErrInvalidResponse):
		return nil
	default:
		return err
	}
}

// InclusionHTTPAdapter 实现了 port.InclusionService
type InclusionHTTPAdapter struct{ backendHTTPAdapter }

func NewInclusionHTTPAdapter(baseURL string, client *httpclient.Client) *InclusionHTTPAdapter {
	return &InclusionHTTPAdapter{newBackend(InclusionBackend, baseURL, client)}
}

func (a *InclusionHTTPAdapter) CreateEmployee(ctx context.Context, e *domain.Employee) (*port.Reply, error) {
	return a.call(ctx, http.MethodPost, "/employee", nil, e)
}

func (a *InclusionHTTPAdapter) CreatePromotion(ctx context.Context, p *domain.Promotion) (*port.Reply, error) {
	return a.call(ctx, http.MethodPost, "/promotion", nil, p)
}

// FetchHTTPAdapter 实现了 port.FetchService
type FetchHTTPAdapter struct{ backendHTTPAdapter }

func NewFetchHTTPAdapter(baseURL string, client *httpclient.Client) *FetchHTTPAdapter {
	return &FetchHTTPAdapter{newBackend(FetchBackend, baseURL, client)}
}

func (a *FetchHTTPAdapter) ListEmployees(ctx context.Context) (*port.Reply, error) {
	return a.call(ctx, http.MethodGet, "/employee", nil, nil)
}

func (a *FetchHTTPAdapter) ListPromotions(ctx context.Context) (*port.Reply, error) {
	return a.call(ctx, http.MethodGet, "/promotion", nil, nil)
}

// EmployeesBySalary 把薪资直接作为路径段: /employee/{salary}
func (a *FetchHTTPAdapter) EmployeesBySalary(ctx context.Context, salary int) (*port.Reply, error) {
	return a.call(ctx, http.MethodGet, "/employee/"+strconv.Itoa(salary), nil, nil)
}

func (a *FetchHTTPAdapter) FilterEmployees(ctx context.Context, salary int, department string) (*port.Reply, error) {
	q := url.Values{}
	q.Set("salary", strconv.Itoa(salary))
	q.Set("department", department)
	return a.call(ctx, http.MethodGet, "/employee/filter/sd", q, nil)
}

func (a *FetchHTTPAdapter) OrderedEmployees(ctx context.Context) (*port.Reply, error) {
	return a.call(ctx, http.MethodGet, "/employee/order/fields", nil, nil)
}

// DeleteHTTPAdapter 实现了 port.DeleteService
type DeleteHTTPAdapter struct{ backendHTTPAdapter }

func NewDeleteHTTPAdapter(baseURL string, client *httpclient.Client) *DeleteHTTPAdapter {
	return &DeleteHTTPAdapter{newBackend(DeleteBackend, baseURL, client)}
}

// DeleteEmployee 以查询参数传递 id，而不是路径段
func (a *DeleteHTTPAdapter) DeleteEmployee(ctx context.Context, id int) (*port.Reply, error) {
	q := url.Values{}
	q.Set("id", strconv.Itoa(id))
	return a.call(ctx, http.MethodDelete, "/employee", q, nil)
}

// UpdateHTTPAdapter 实现了 port.UpdateService
type UpdateHTTPAdapter struct{ backendHTTPAdapter }

func NewUpdateHTTPAdapter(baseURL string, client *httpclient.Client) *UpdateHTTPAdapter {
	return &UpdateHTTPAdapter{newBackend(UpdateBackend, baseURL, client)}
}

func (a *UpdateHTTPAdapter) UpdateEmployee(ctx context.Context, e *domain.Employee) (*port.Reply, error) {
	return a.call(ctx, http.MethodPut, "/employee", nil, e)
}
