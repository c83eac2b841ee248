package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CallbackDataSeparator  = ":"
	CallbackDataLimitBytes = 64
)

// ErrCallbackTooLong is returned for buttons Telegram would reject.
var ErrCallbackTooLong = errors.New("callback data exceeds telegram limit")

// EncodeCallback joins an action and its data into callback data, enforcing the Telegram size limit.
func EncodeCallback(action, data string) (string, error) {
	payload := action
	if data != "" {
		payload = action + CallbackDataSeparator + data
	}

	if err := CheckCallback(payload); err != nil {
		return "", err
	}
	return payload, nil
}

// CheckCallback validates raw callback data.
func CheckCallback(payload string) error {
	if payload == "" {
		return errors.New("callback data is empty")
	}
	if len(payload) > CallbackDataLimitBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrCallbackTooLong, len(payload), CallbackDataLimitBytes)
	}
	return nil
}

// DecodeCallback splits callback data at the first separator.
func DecodeCallback(callbackData string) (action, data string, err error) {
	if callbackData == "" {
		return "", "", errors.New("callback data is empty")
	}

	action, data, _ = strings.Cut(callbackData, CallbackDataSeparator)
	return action, data, nil
}
