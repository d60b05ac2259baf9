// Package controller реализует жизненный цикл запуска пайплайна:
// validate → execute → poll → cancel.
//
// Контроллер — единственный владелец состояния сессии выполнения
// и единственный владелец poll-цикла. Отмена кооперативная:
// Cancel просит backend перевести запуск в cancelled, а завершение
// наблюдает очередной тик опроса.
package controller
