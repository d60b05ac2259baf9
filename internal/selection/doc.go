// Package selection хранит выбор пользователя: пайплайн и набор этапов.
//
// Владеет алгоритмом замыкания по зависимостям: при включении этапа
// транзитивно включаются все его зависимости. Снятие выбора каскад
// не запускает — это документированное поведение панели.
package selection
