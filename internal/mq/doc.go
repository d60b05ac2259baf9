// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий запусков
//
// Типы сообщений:
//   - run.started   — запуск принят backend и начал выполняться
//   - run.finished  — запуск достиг терминального статуса
//
// Exchanges:
//   - pipedeck.runs — события запусков панели
//
// Панель только публикует; потребляют внешние системы
// (алёрты, аудит, дашборды).
package mq
