// Package pipeline — RunOrchestrator: один проход по всем активным pipelines.
//
// Порядок работы одного run:
//
//  1. ConfigStore.ListActive — список включённых конфигураций
//  2. Группировка по workspace; группы обрабатываются с ограниченным
//     параллелизмом, конфигурации внутри группы — последовательно
//  3. Для каждой конфигурации:
//     - захват workspace (соединение со схемой tenant'а)
//     - Target: таблица и колонка стадии
//     - текущая и следующая стадия
//     - выборка не более WIPLimit записей из текущей стадии
//     - для каждой записи: вызов агента, затем перевод в следующую стадию
//  4. RunReport с итогом по каждой конфигурации
//
// Записи одного batch обрабатываются пулом errgroup размером
// min(WIPLimit, MaxConcurrency). Ошибка агента затрагивает только свою
// запись: она остаётся в текущей стадии и будет взята следующим run.
//
// Наружу возвращается только ошибка ConfigStore. Всё остальное
// попадает в PipelineOutcome и в telemetry.ReportError.
package pipeline
