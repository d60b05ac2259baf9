// Package api реализует HTTP API панели управления пайплайнами.
//
// API обслуживает одно разделяемое рабочее пространство: каталог
// пайплайнов и этапов, выбор этапов, конфигурацию и сессию выполнения.
// Поверх него — история запусков и расписания.
//
// Структура ответов:
//   - Успех: {"data": ...}
//   - Список: {"data": [...], "total": N}
//   - Ошибка: {"error": {"code": "...", "message": "..."}}
//
// Маршрутизация построена на http.ServeMux (Go 1.22+) с method patterns.
package api
