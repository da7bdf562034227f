package queue

import (
	"encoding/json"
	"fmt"
)

// MessageVersion is the payload version written by this build.
const MessageVersion = 2

// Message asks a worker to run one queued analysis. The source fields mirror
// the synchronous request.
type Message struct {
	AnalysisID  string `json:"analysisId"`
	RequestID   string `json:"requestId"`
	StoragePath string `json:"storagePath,omitempty"`
	Bucket      string `json:"bucket,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	EnqueuedAt  string `json:"enqueuedAt"`
	Version     int    `json:"version"`
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
	if msg.Version > MessageVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return msg, nil
}
