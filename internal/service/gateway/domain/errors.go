package domain

import (
	"strings"

	"hrgateway/internal/pkg/validator"
)

// 校验失败时对外暴露的规则名
const (
	RuleJSONInvalid = "json_invalid"
	RuleObjectType  = "object_type"
	RuleMissing     = "missing"
	RuleIntType     = "int_type"
	RuleStringType  = "string_type"
	RuleDateType    = "date_type"
	RuleEnum        = "enum"
	RuleEmail       = "email"
)

// ValidationError 表示请求在转发前就被拒绝
type ValidationError struct {
	Fields []validator.FieldError
}

func NewValidationError(fields ...validator.FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Rule)
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// HasRule 报告 field 是否因 rule 校验失败
func (e *ValidationError) HasRule(field, rule string) bool {
	for _, f := range e.Fields {
		if f.Field == field && f.Rule == rule {
			return true
		}
	}
	return false
}
