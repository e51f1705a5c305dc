package source

import "encoding/json"

// Conversation is one thread of an export, decoded leniently. ID and Title
// are empty when absent or not strings.
type Conversation struct {
	ID    string
	Title string
	Nodes []Node // sorted by node id
}

// Node is one entry of a conversation mapping. Message is nil when the
// node carries no message.
type Node struct {
	ID      string
	Message *Message
}

// Message is the authored payload of a node.
type Message struct {
	ID         string
	Role       string   // "" when the author or its role is missing
	CreateTime *float64 // nil unless the source value is a JSON number
	Content    json.RawMessage
}
