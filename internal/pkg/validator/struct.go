package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// 报错时使用 JSON 字段名而不是 Go 字段名
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FieldError 描述单个字段违反的规则
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// errorMessages maps validation tags to message templates.
var errorMessages = map[string]string{
	"email": "The field '%s' must be a valid email address.",
	"oneof": "The field '%s' must be one of [%s].",
}

// ruleNames 把 validator 的 tag 映射为对外暴露的规则名
var ruleNames = map[string]string{
	"oneof": "enum",
}

func parseMessage(field string, e validator.FieldError) string {
	if msg, ok := errorMessages[e.Tag()]; ok {
		switch strings.Count(msg, "%s") {
		case 1:
			return fmt.Sprintf(msg, field)
		case 2:
			return fmt.Sprintf(msg, field, e.Param())
		}
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", field, e.Tag())
}

// ValidateStruct 校验结构体，按字段声明顺序返回所有违反的规则；没有错误时返回 nil。
func ValidateStruct(s any) ([]FieldError, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil, errors.Wrap(err, "validate struct")
	}
	out := make([]FieldError, 0, len(validationErrs))
	for _, e := range validationErrs {
		rule := e.Tag()
		if name, ok := ruleNames[rule]; ok {
			rule = name
		}
		out = append(out, FieldError{
			Field:   e.Field(),
			Rule:    rule,
			Message: parseMessage(e.Field(), e),
		})
	}
	return out, nil
}
