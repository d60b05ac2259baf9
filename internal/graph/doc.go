// Package graph строит граф зависимостей этапов поверх каталога.
//
// Используется панелью для локального предпросмотра порядка выполнения
// выбранных этапов до обращения к backend. Авторитетный план выполнения
// всё равно приходит от backend при валидации: локальный предпросмотр —
// быстрая подсказка, а не гарантия.
package graph
