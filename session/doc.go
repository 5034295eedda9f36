// Package session sequences one dictation job: capture, transcription,
// optional cleanup, history. A Session is created once with its
// collaborators and reports everything on a single ordered event channel.
//
//	s := session.New(session.Deps{Capture: native, Fallback: relayCapture, ...})
//	go session.Drain(ctx, s.Events(), session.Handlers{Completed: show})
//	_ = s.Start(ctx)
//	_ = s.Stop(ctx)
//
// Jobs move Idle, Recording, Stopping, Transcribing, CleaningUp, Complete and
// back to Idle. Failures pass through Error and cancellations through
// Cancelled. A failed cleanup still completes with the raw transcript.
package session
