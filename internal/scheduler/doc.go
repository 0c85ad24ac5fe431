// Package scheduler — периодический триггер run'ов.
//
// Trigger держит одну регистрацию cron-выражения (по умолчанию раз в минуту).
// Регистрация хранится в core."conveyorTrigger", поэтому после рестарта
// Restore восстанавливает её без участия оператора.
//
// Каждый тик:
//
//  1. Leader — только один экземпляр scheduler'а отправляет запросы
//     (pg_try_advisory_lock на выделенном соединении)
//  2. Dispatcher — один запрос на run:
//     PublishDispatcher — run.requested в RabbitMQ, run выполняет runner
//     LocalDispatcher   — run в этом же процессе
//
// Ошибки и паники тика уходят в telemetry.ReportError и не снимают
// регистрацию: следующий тик сработает как обычно.
//
// Использование:
//
//	trig := scheduler.New(scheduler.Config{
//	    Store:          repo.NewTriggerRepo(pool),
//	    Dispatcher:     scheduler.NewPublishDispatcher(publisher),
//	    Leader:         scheduler.NewAdvisoryLeader(pool, cfg.Scheduler.LockKey, logger),
//	    DefaultPattern: cfg.Scheduler.Pattern,
//	    AutoStart:      cfg.Scheduler.AutoStart,
//	    Logger:         logger,
//	})
//	if err := trig.Restore(ctx); err != nil { ... }
//	go trig.Run(ctx)
package scheduler
