// Package scheduler реализует планировщик отложенных запусков пайплайнов.
//
// Планировщик периодически проверяет таблицу schedules и отправляет
// due schedules на backend через remote.Client. Поддерживаются два
// типа расписаний: cron-выражения (5 полей) и фиксированные интервалы
// в секундах; время следующего запуска вычисляется с учётом timezone
// расписания.
//
// Payload запуска (пайплайн, этапы, конфигурация) замораживается при
// создании расписания и не перечитывается из текущего состояния
// панели. Планировщик работает в режиме fire-and-forget: попытка
// запуска фиксируется в истории, дальнейший статус не опрашивается.
package scheduler
