// Package tenant выдаёт доступ к данным одного workspace.
//
// Manager.Acquire берёт из пула отдельное соединение, находит схему
// workspace и возвращает Scope. Все запросы конфигурации идут через это
// соединение; Scope.Release возвращает его в пул. Так одна конфигурация
// занимает не больше одного соединения, сколько бы записей ни было в batch.
package tenant
