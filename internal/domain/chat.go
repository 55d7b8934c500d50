package domain

// Message roles understood by the handler and the completions provider.
// Callers only ever submit user and assistant turns; the system role is
// provider-side context added by the completions client.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape shared by the
// handler, prompt assembly, and the completions client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Attachment is one uploaded file as received by the handler: raw bytes plus
// the media type declared by the client.
type Attachment struct {
	Name      string
	MediaType string
	Data      []byte
}
