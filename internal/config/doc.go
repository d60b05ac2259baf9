// Package config хранит конфигурацию этапов: схемы, defaults
// и пользовательские override-карты.
//
// Владеет правилами слияния и приоритета: seed-once инициализация
// override-карт из defaults, сброс к текущим defaults, разовое
// вливание глобальной конфигурации в выбранные этапы.
package config
