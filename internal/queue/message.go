package queue

import "encoding/json"

// MessageVersion is bumped when Message changes shape.
const MessageVersion = 1

// Message is the payload sent to downstream consumers after a résumé is stored.
type Message struct {
	RecordID          string `json:"recordId"`
	RequestID         string `json:"requestId"`
	Name              string `json:"name"`
	ResumeURL         string `json:"resumeUrl"`
	HasStructuredData bool   `json:"hasStructuredData"`
	ProcessedAt       string `json:"processedAt"`
	Version           int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
