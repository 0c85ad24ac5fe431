// Package agent — HTTP-клиент внешнего агента.
//
// Агент принимает запись целиком и дополнительный текст из конфигурации
// pipeline:
//
//	POST {base}/agents/{agent}/query
//	Authorization: <api key>
//
//	{"params": {"data": {...}, "additional_agent": "..."}}
//
// Любой ответ 2xx считается успешным, тело ответа не интерпретируется.
// Ошибка транспорта, таймаут или статус вне 2xx — ErrInvocationFailed.
package agent
