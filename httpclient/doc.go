// Package httpclient is the outbound HTTP client used to reach the
// transcription and chat-completion APIs.
//
// It resolves paths against a base URL, applies default headers and bearer
// auth, encodes JSON and multipart bodies, and classifies non-2xx statuses
// into *Error values that keep the response body.
//
//	c, _ := httpclient.New(httpclient.Config{BaseURL: "https://api.openai.com/v1"})
//	body := (&httpclient.MultipartBody{}).
//	    AddField("model", "whisper-1").
//	    AddFile("file", "audio.wav", "audio/wav", data)
//	resp, err := c.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/audio/transcriptions", Body: body})
//
// There is no client timeout unless Config.Timeout is set, and nothing retries.
package httpclient
