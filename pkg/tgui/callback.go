package tgui

import (
	"errors"
	"strings"
)

// MaxCallbackDataLen is Telegram's callback_data size limit in bytes.
const MaxCallbackDataLen = 64

var ErrCallbackDataTooLong = errors.New("tgui: callback_data too long")

// Data formats callback data as "kind:payload". The payload is kept as-is.
func Data(kind, payload string) (string, error) {
	d := strings.TrimSpace(kind) + ":" + payload
	if len(d) > MaxCallbackDataLen {
		return "", ErrCallbackDataTooLong
	}
	return d, nil
}

// ParseData splits "kind:payload" at the first colon. Data without a colon
// is returned as a kind with an empty payload.
func ParseData(data string) (kind, payload string) {
	kind, payload, _ = strings.Cut(data, ":")
	return kind, payload
}
