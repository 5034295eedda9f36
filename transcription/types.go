package transcription

// Provider names, as stored in settings.
const (
	ProviderRemote     = "remote"
	ProviderSelfHosted = "self-hosted"
)

// Factory option keys understood by the registered provider factories.
const (
	OptionURL    = "url"
	OptionAPIKey = "api_key"
	OptionModel  = "model"
)

// Request holds one upload.
type Request struct {
	Audio []byte `json:"-"`
	// FileName is sent as the multipart filename, e.g. "audio.webm".
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	// Language is an ISO-639-1 hint; empty omits it.
	Language string `json:"language,omitempty"`
	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`
}

// Response is the upstream result.
type Response struct {
	Text string `json:"text"`
}

// Settings select and configure the provider for one Transcribe call.
type Settings struct {
	Provider      string
	SelfHostedURL string
	Language      string
	APIKey        string
}
