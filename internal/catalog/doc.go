// Package catalog вычисляет физическое расположение записей pipeline.
//
// Resolver по метаданным (objectMetadata, fieldMetadata) находит таблицу
// и колонку стадии в схеме workspace и проверяет каждое имя по allow-list
// из information_schema. В SQL попадают только имена, прошедшие проверку.
//
// Дополнительно Resolver находит связанные коллекции записи:
//
//	notes       — note через noteTarget
//	tasks       — task через taskTarget
//	attachments — attachment напрямую
//
// Коллекция подключается, только если её таблицы и link-колонки существуют.
package catalog
