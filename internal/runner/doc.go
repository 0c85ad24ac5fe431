// Package runner — потребитель run.requested.
//
// Runner забирает запросы из runs.requested по одному (prefetch 1) и на
// каждый выполняет один run оркестратора. Запрос старше RequestTTL
// отбрасывается: тик, который его породил, уже неактуален, а следующий
// тик пришлёт свежий.
package runner
