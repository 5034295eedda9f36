// Package resilience keeps optional outbound integrations from slowing the
// dictation pipeline down: Retry for transient connect failures and Breaker
// to stop calling an endpoint that keeps failing.
//
//	err := resilience.Retry(ctx, resilience.RetryConfig{Attempts: 3}, connect)
//
//	b := resilience.NewBreaker(resilience.BreakerConfig{Name: "mqtt", MaxFailures: 3})
//	err = b.Execute(func() error { return publish(ctx) })
package resilience
