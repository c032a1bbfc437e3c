package errors

import "net/http"

// 业务错误码。校验类错误不重试，直接返回调用方；
// CodeConflict 由存储层在有限次抖动退避内自动重试后才向上传递。
const (
	CodeInvalidArgument  = 1001 // 参数非法（非正间隔、角色全为空、提醒偏移 >= 间隔等）
	CodeNotFound         = 1002 // 用户/联系人/待响应呼叫不存在
	CodeAlreadyExists    = 1003 // 关系已存在
	CodePermissionDenied = 1004 // 呼叫非被照护人、操作他人报警状态
	CodeConflict         = 1005 // 事务竞争或激活/解除请求仍在执行
	CodeUnavailable      = 1006 // 存储或通知依赖不可达
)

// InvalidArgument creates an InvalidArgument error
func InvalidArgument(format string, args ...interface{}) *Error {
	return WithCodef(CodeInvalidArgument, format, args...)
}

// NotFound creates a NotFound error
func NotFound(format string, args ...interface{}) *Error {
	return WithCodef(CodeNotFound, format, args...)
}

// AlreadyExists creates an AlreadyExists error
func AlreadyExists(format string, args ...interface{}) *Error {
	return WithCodef(CodeAlreadyExists, format, args...)
}

// PermissionDenied creates a PermissionDenied error
func PermissionDenied(format string, args ...interface{}) *Error {
	return WithCodef(CodePermissionDenied, format, args...)
}

// Conflict creates a Conflict error
func Conflict(format string, args ...interface{}) *Error {
	return WithCodef(CodeConflict, format, args...)
}

// Unavailable creates an Unavailable error
func Unavailable(format string, args ...interface{}) *Error {
	return WithCodef(CodeUnavailable, format, args...)
}

// IsInvalidArgument reports whether err carries CodeInvalidArgument
func IsInvalidArgument(err error) bool { return GetCode(err) == CodeInvalidArgument }

// IsNotFound reports whether err carries CodeNotFound
func IsNotFound(err error) bool { return GetCode(err) == CodeNotFound }

// IsAlreadyExists reports whether err carries CodeAlreadyExists
func IsAlreadyExists(err error) bool { return GetCode(err) == CodeAlreadyExists }

// IsPermissionDenied reports whether err carries CodePermissionDenied
func IsPermissionDenied(err error) bool { return GetCode(err) == CodePermissionDenied }

// IsConflict reports whether err carries CodeConflict
func IsConflict(err error) bool { return GetCode(err) == CodeConflict }

// IsUnavailable reports whether err carries CodeUnavailable
func IsUnavailable(err error) bool { return GetCode(err) == CodeUnavailable }

// HTTPStatus maps a business code to an HTTP status code
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
