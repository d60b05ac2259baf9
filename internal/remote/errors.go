package remote

import "errors"

// Ошибки backend-клиента.
var (
	// ErrBackendStatus — backend ответил HTTP-статусом >= 400.
	ErrBackendStatus = errors.New("backend returned error status")

	// ErrDecodeResponse — тело ответа backend не распарсилось.
	ErrDecodeResponse = errors.New("failed to decode backend response")
)
