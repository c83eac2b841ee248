package idempotency

import "strconv"

// MessageKey identifies a message update. Message ids are unique per chat.
func MessageKey(chatID int64, messageID int) string {
	return "msg:" + strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

// CallbackKey identifies a button press by its globally unique query id.
func CallbackKey(queryID string) string {
	return "cb:" + queryID
}
