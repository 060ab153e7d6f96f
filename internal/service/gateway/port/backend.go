package port

import (
	"context"
	"encoding/json"

	"hrgateway/internal/service/gateway/domain"
)

// Reply 是后端原样返回的 JSON 响应
type Reply struct {
	StatusCode int
	Body       json.RawMessage
}

// Pinger 用于 readiness 检查
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// InclusionService 负责新增员工和晋升记录 (backend A)
type InclusionService interface {
	CreateEmployee(ctx context.Context, e *domain.Employee) (*Reply, error)
	CreatePromotion(ctx context.Context, p *domain.Promotion) (*Reply, error)
}

// FetchService 负责所有查询 (backend B)
type FetchService interface {
	ListEmployees(ctx context.Context) (*Reply, error)
	ListPromotions(ctx context.Context) (*Reply, error)
	EmployeesBySalary(ctx context.Context, salary int) (*Reply, error)
	FilterEmployees(ctx context.Context, salary int, department string) (*Reply, error)
	OrderedEmployees(ctx context.Context) (*Reply, error)
}

// DeleteService 负责删除员工 (backend C)
type DeleteService interface {
	DeleteEmployee(ctx context.Context, id int) (*Reply, error)
}

// UpdateService 负责整体替换员工记录 (backend D)
type UpdateService interface {
	UpdateEmployee(ctx context.Context, e *domain.Employee) (*Reply, error)
}
