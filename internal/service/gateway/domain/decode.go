package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"hrgateway/internal/pkg/validator"
)

// fieldDecoder 逐个字段解析 JSON 对象，收集所有错误而不是遇到第一个就返回
type fieldDecoder struct {
	raw  map[string]json.RawMessage
	errs []validator.FieldError
}

func newFieldDecoder(body []byte) (*fieldDecoder, error) {
	if !json.Valid(body) {
		return nil, NewValidationError(validator.FieldError{
			Field: "body", Rule: RuleJSONInvalid, Message: "Request body is not valid JSON.",
		})
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, NewValidationError(validator.FieldError{
			Field: "body", Rule: RuleObjectType, Message: "Request body must be a JSON object.",
		})
	}
	return &fieldDecoder{raw: raw}, nil
}

func (d *fieldDecoder) fail(field, rule, format string, args ...any) {
	d.errs = append(d.errs, validator.FieldError{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (d *fieldDecoder) lookup(field string) (json.RawMessage, bool) {
	v, ok := d.raw[field]
	if !ok {
		d.fail(field, RuleMissing, "The field '%s' is required.", field)
		return nil, false
	}
	return bytes.TrimSpace(v), true
}

// Int 接受 JSON 整数、小数部分为零的浮点数，以及十进制整数字符串
func (d *fieldDecoder) Int(field string) int {
	v, ok := d.lookup(field)
	if !ok {
		return 0
	}
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return n
			}
		}
		d.fail(field, RuleIntType, "The field '%s' must be a valid integer.", field)
		return 0
	}
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&num); err != nil {
		d.fail(field, RuleIntType, "The field '%s' must be a valid integer.", field)
		return 0
	}
	if n, err := strconv.Atoi(num.String()); err == nil {
		return n
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		d.fail(field, RuleIntType, "The field '%s' must be a valid integer without a fractional part.", field)
		return 0
	}
	return int(f)
}

func (d *fieldDecoder) String(field string) string {
	v, ok := d.lookup(field)
	if !ok {
		return ""
	}
	var s string
	if len(v) == 0 || v[0] != '"' || json.Unmarshal(v, &s) != nil {
		d.fail(field, RuleStringType, "The field '%s' must be a string.", field)
		return ""
	}
	return s
}

// Date 只接受 YYYY-MM-DD 格式的字符串
func (d *fieldDecoder) Date(field string) Date {
	v, ok := d.lookup(field)
	if !ok {
		return Date{}
	}
	var s string
	if len(v) == 0 || v[0] != '"' || json.Unmarshal(v, &s) != nil {
		d.fail(field, RuleDateType, "The field '%s' must be a date string in YYYY-MM-DD format.", field)
		return Date{}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		d.fail(field, RuleDateType, "The field '%s' must be a valid date in YYYY-MM-DD format.", field)
		return Date{}
	}
	return Date{t}
}

// finish 运行结构体上的 validate 规则，已经解析失败的字段不再重复报错
func (d *fieldDecoder) finish(record any) error {
	ruleErrs, err := validator.ValidateStruct(record)
	if err != nil {
		return err
	}
	reported := make(map[string]bool, len(d.errs))
	for _, e := range d.errs {
		reported[e.Field] = true
	}
	for _, e := range ruleErrs {
		if !reported[e.Field] {
			d.errs = append(d.errs, e)
		}
	}
	if len(d.errs) == 0 {
		return nil
	}
	return NewValidationError(d.errs...)
}
