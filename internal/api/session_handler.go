package api

import (
	"errors"
	"net/http"

	"github.com/shaiso/Pipedeck/internal/controller"
)

// GetSession возвращает снимок состояния сессии выполнения.
// GET /api/v1/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	Success(w, h.ctrl.Session())
}

// ValidateSession отправляет текущий выбор и конфигурацию на валидацию.
// POST /api/v1/session/validate
//
// Ошибки валидации — не HTTP-ошибки: они возвращаются структурированно
// внутри сессии. Кодом ошибки отвечают только отсутствие выбранного
// пайплайна и транспортный сбой.
func (h *Handler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Validate(r.Context()); err != nil {
		if errors.Is(err, controller.ErrNoPipeline) {
			BadRequest(w, "no pipeline selected")
			return
		}
		Error(w, http.StatusBadGateway, ErrCodeInternalError, "validation request failed")
		return
	}

	Success(w, h.ctrl.Session())
}

// ExecuteSession запускает пайплайн.
// POST /api/v1/session/execute
//
// Отклонённый backend'ом запуск — не HTTP-ошибка: текст ошибки
// попадает в лог сессии, ответ остаётся 200.
func (h *Handler) ExecuteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Execute(r.Context()); err != nil {
		if errors.Is(err, controller.ErrNoPipeline) {
			BadRequest(w, "no pipeline selected")
			return
		}
		Error(w, http.StatusBadGateway, ErrCodeInternalError, "execution request failed")
		return
	}

	Success(w, h.ctrl.Session())
}

// CancelSession просит backend отменить текущий запуск.
// POST /api/v1/session/cancel
//
// Без активного запуска — no-op. Локальный статус не меняется:
// переход в cancelled наблюдает poll-цикл.
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Cancel(r.Context()); err != nil {
		Error(w, http.StatusBadGateway, ErrCodeInternalError, "cancel request failed")
		return
	}

	Success(w, h.ctrl.Session())
}

// ResetSession сбрасывает сессию выполнения.
// POST /api/v1/session/reset
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Reset()
	Success(w, h.ctrl.Session())
}

// ClearSessionErrors очищает лог транспортных ошибок сессии.
// DELETE /api/v1/session/errors
func (h *Handler) ClearSessionErrors(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearErrors()
	NoContent(w)
}
