package types

// Role identifies the author of a conversation message; compatible with string.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a text-generation conversation. Content is
// plain text; providers with richer message shapes expand it in their mappers.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Artifact is a binary media input or output (image, audio, video) together
// with its MIME type. Speech and image pipelines produce Artifacts as Output
// content; image-editing pipelines accept them as inputs.
type Artifact struct {
	Data     []byte `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Empty reports whether the artifact carries neither data nor a URL.
func (a Artifact) Empty() bool {
	return len(a.Data) == 0 && a.URL == ""
}
