package application

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"hrgateway/internal/pkg/validator"
	"hrgateway/internal/service/gateway/domain"
	"hrgateway/internal/service/gateway/port"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Backends 聚合网关转发所需的全部出站端口
type Backends struct {
	Inclusion port.InclusionService
	Fetch     port.FetchService
	Delete    port.DeleteService
	Update    port.UpdateService
	// Probes 供 readiness 检查使用，可为空
	Probes []port.Pinger
}

// GatewayService 校验入站请求，并把它转发给唯一对应的后端
type GatewayService struct {
	backends Backends
}

func NewGatewayService(backends Backends) *GatewayService {
	return &GatewayService{backends: backends}
}

func (s *GatewayService) CreateEmployee(ctx context.Context, body []byte) (*port.Reply, error) {
	e, err := domain.DecodeEmployee(body)
	if err != nil {
		return nil, err
	}
	zlog.Ctx(ctx).Debug().Int("employee_id", e.ID).Msg("forwarding employee creation")
	return s.backends.Inclusion.CreateEmployee(ctx, e)
}

func (s *GatewayService) CreatePromotion(ctx context.Context, body []byte) (*port.Reply, error) {
	p, err := domain.DecodePromotion(body)
	if err != nil {
		return nil, err
	}
	zlog.Ctx(ctx).Debug().Int("employee_id", p.ID).Msg("forwarding promotion creation")
	return s.backends.Inclusion.CreatePromotion(ctx, p)
}

func (s *GatewayService) ListEmployees(ctx context.Context) (*port.Reply, error) {
	return s.backends.Fetch.ListEmployees(ctx)
}

func (s *GatewayService) ListPromotions(ctx context.Context) (*port.Reply, error) {
	return s.backends.Fetch.ListPromotions(ctx)
}

func (s *GatewayService) EmployeesBySalary(ctx context.Context, rawSalary string) (*port.Reply, error) {
	salary, err := parseIntParam("salary", rawSalary)
	if err != nil {
		return nil, err
	}
	return s.backends.Fetch.EmployeesBySalary(ctx, salary)
}

// FilterEmployees 要求 salary (整数) 和 department 两个查询参数都存在
func (s *GatewayService) FilterEmployees(ctx context.Context, query url.Values) (*port.Reply, error) {
	var fields []validator.FieldError
	salary := 0
	if !query.Has("salary") {
		fields = append(fields, missingParam("salary"))
	} else if n, err := strconv.Atoi(strings.TrimSpace(query.Get("salary"))); err != nil {
		fields = append(fields, invalidIntParam("salary"))
	} else {
		salary = n
	}
	department := query.Get("department")
	if !query.Has("department") {
		fields = append(fields, missingParam("department"))
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}
	return s.backends.Fetch.FilterEmployees(ctx, salary, department)
}

func (s *GatewayService) OrderedEmployees(ctx context.Context) (*port.Reply, error) {
	return s.backends.Fetch.OrderedEmployees(ctx)
}

func (s *GatewayService) UpdateEmployee(ctx context.Context, body []byte) (*port.Reply, error) {
	e, err := domain.DecodeEmployee(body)
	if err != nil {
		return nil, err
	}
	zlog.Ctx(ctx).Debug().Int("employee_id", e.ID).Msg("forwarding employee update")
	return s.backends.Update.UpdateEmployee(ctx, e)
}

func (s *GatewayService) DeleteEmployee(ctx context.Context, rawID string) (*port.Reply, error) {
	id, err := parseIntParam("id", rawID)
	if err != nil {
		return nil, err
	}
	return s.backends.Delete.DeleteEmployee(ctx, id)
}

// Readiness 并发探测所有后端，返回 后端名 -> 错误信息; 全部可用时返回空 map
func (s *GatewayService) Readiness(ctx context.Context) map[string]string {
	results := make([]error, len(s.backends.Probes))
	// 每个后端的结果单独记录; 一个失败不能取消其余探测，所以 goroutine 总是返回 nil
	var g errgroup.Group
	for i, p := range s.backends.Probes {
		g.Go(func() error {
			results[i] = p.Ping(ctx)
			return nil
		})
	}
	_ = g.Wait()

	failed := make(map[string]string)
	for i, err := range results {
		if err != nil {
			failed[s.backends.Probes[i].Name()] = err.Error()
		}
	}
	return failed
}

// FailedNames 返回排好序的失败后端名称
func FailedNames(failed map[string]string) []string {
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseIntParam(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.NewValidationError(invalidIntParam(name))
	}
	return n, nil
}

func invalidIntParam(name string) validator.FieldError {
	return validator.FieldError{
		Field:   name,
		Rule:    domain.RuleIntType,
		Message: "The parameter '" + name + "' must be a valid integer.",
	}
}

func missingParam(name string) validator.FieldError {
	return validator.FieldError{
		Field:   name,
		Rule:    domain.RuleMissing,
		Message: "The parameter '" + name + "' is required.",
	}
}
