// Package resp 提供网关统一的 JSON 响应写法。
//
// 网关自己产生的错误都使用同一个结构:
//
//	{"code": 42200, "message": "...", "errors": ...}
//
// 后端的成功响应则通过 Raw 原样写回。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务错误码: HTTP 状态码 * 100
const (
	CodeValidation  = 42200
	CodeBadGateway  = 50200
	CodeTimeout     = 50400
	CodeServerError = 50000
	CodeCanceled    = 49900
)

// StatusClientClosedRequest 不是标准状态码，仅用于日志和指标
const StatusClientClosedRequest = 499

// Exception represents the failure response structure.
type Exception struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// Raw 把一段已经是 JSON 的响应体原样写回
func Raw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSON 编码 v 后写回
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
		return
	}
	Raw(w, status, body)
}

// Fail handles failure responses.
func Fail(w http.ResponseWriter, status int, e *Exception) {
	JSON(w, status, e)
}

// UnprocessableEntity 用于请求校验失败
func UnprocessableEntity(w http.ResponseWriter, message string, errs any) {
	Fail(w, http.StatusUnprocessableEntity, &Exception{Code: CodeValidation, Message: message, Errors: errs})
}

func BadGateway(w http.ResponseWriter, message string, errs any) {
	Fail(w, http.StatusBadGateway, &Exception{Code: CodeBadGateway, Message: message, Errors: errs})
}

func GatewayTimeout(w http.ResponseWriter, message string) {
	Fail(w, http.StatusGatewayTimeout, &Exception{Code: CodeTimeout, Message: message})
}

func ServerError(w http.ResponseWriter, message string) {
	Fail(w, http.StatusInternalServerError, &Exception{Code: CodeServerError, Message: message})
}
