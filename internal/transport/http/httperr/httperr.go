// httperr стандартизирует ответы об ошибках HTTP-слоя banking-сервиса.
// На вход он принимает доменную ошибку из пакета service,
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Источник истинности по маппингу: комментарии к переменным ошибок
// в пакете service.
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-banking-service/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ErrInvalidArgument — локальная ошибка парсинга входных данных хендлером
// (битый JSON, неизвестные поля, невалидный UUID в path).
var ErrInvalidArgument = errors.New("invalid argument")

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный
// ответ для фронта.
//
// Поведение:
//   - err == nil - это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
//   - ошибки валидации входа -> 400;
//   - ошибки аутентификации (credentials/token) -> 401;
//   - чужой счёт в защищённой операции -> 403;
//   - счёт не найден -> 404;
//   - занятое имя владельца -> 409;
//   - недостаточно средств -> 422;
//   - context.Canceled -> 499, context.DeadlineExceeded -> 504;
//   - прочее -> 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{
			Error: APIError{
				Code:    "internal",
				Message: "internal error",
			},
		}
	}

	httpStatus, code, msg := baseFromDomain(err)
	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromDomain — базовый маппинг доменных ошибок -> HTTP/FE-код/сообщение.
func baseFromDomain(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrInvalidBalance),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidSortField):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenNotFound):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden, "permission_denied", "permission denied"
	case errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, service.ErrNameTaken):
		return http.StatusConflict, "already_exists", "already exists"
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds", "insufficient funds"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
