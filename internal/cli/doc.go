// Package cli реализует команды pipedeck-cli.
//
// CLI — тонкий клиент поверх HTTP API панели: собственной логики
// оркестрации в нём нет, все операции транслируются в вызовы API.
// Вывод — таблицы через tabwriter или JSON (флаг --json).
package cli
