package application

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"hrgateway/internal/service/gateway/domain"
	"hrgateway/internal/service/gateway/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	name string
	err  error
}

func (p fakePinger) Name() string { return p.name }
func (p fakePinger) Ping(ctx context.Context) error { return p.err }

// fakeFetch 记录 FilterEmployees 收到的参数
type fakeFetch struct {
	port.FetchService
	salary     int
	department string
	calls      int
}

func (f *fakeFetch) FilterEmployees(ctx context.Context, salary int, department string) (*port.Reply, error) {
	f.calls++
	f.salary, f.department = salary, department
	return &port.Reply{StatusCode: 200, Body: []byte(`[]`)}, nil
}

func TestReadiness(t *testing.T) {
	s := NewGatewayService(Backends{Probes: []port.Pinger{
		fakePinger{name: "inclusion"},
		fakePinger{name: "update", err: errors.New("connection refused")},
		fakePinger{name: "delete", err: errors.New("timeout")},
	}})

	failed := s.Readiness(context.Background())
	assert.Equal(t, map[string]string{"update": "connection refused", "delete": "timeout"}, failed)
	assert.Equal(t, []string{"delete", "update"}, FailedNames(failed))

	assert.Empty(t, NewGatewayService(Backends{}).Readiness(context.Background()))
}

func TestFilterEmployees(t *testing.T) {
	fetch := &fakeFetch{}
	s := NewGatewayService(Backends{Fetch: fetch})

	_, err := s.FilterEmployees(context.Background(), url.Values{"salary": {"50000"}, "department": {"IT"}, "extra": {"x"}})
	require.NoError(t, err)
	assert.Equal(t, 50000, fetch.salary)
	assert.Equal(t, "IT", fetch.department)

	_, err = s.FilterEmployees(context.Background(), url.Values{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasRule("salary", domain.RuleMissing))
	assert.True(t, verr.HasRule("department", domain.RuleMissing))

	// 空字符串的 department 仍然算作提供了
	_, err = s.FilterEmployees(context.Background(), url.Values{"salary": {"1"}, "department": {""}})
	require.NoError(t, err)
	assert.Equal(t, 2, fetch.calls)
}
