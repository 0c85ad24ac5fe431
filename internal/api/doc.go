// Package api содержит HTTP API управления Conveyor.
//
// Структура:
//   - handler.go          — Handler с DI (триггер, dispatcher, конфигурации, агенты)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - trigger_handler.go  — обработчики для /trigger
//   - run_handler.go      — обработчики для /runs
//   - pipeline_handler.go — обработчики для /pipelines
//   - agent_handler.go    — обработчики для /agents
//
// API не создаёт и не меняет конфигурации pipeline: они принадлежат
// внешнему CRUD API и здесь только читаются.
package api
