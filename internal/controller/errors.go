package controller

import "errors"

// Ошибки контроллера.
var (
	// ErrNoPipeline — операция требует выбранного пайплайна.
	ErrNoPipeline = errors.New("no pipeline selected")
)
