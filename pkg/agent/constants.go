package agent

const (
	// defaultResponse stands in when a completion carries no text content.
	defaultResponse = "No content"

	// toolResultLimit caps the bytes of a tool reply echoed into the
	// transcript and the RESULT log line.
	toolResultLimit = 8192
)
