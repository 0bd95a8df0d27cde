package ratelimit

import (
    "net/http"
    "time"

    "golang.org/x/time/rate"
)

// Doer is the client being gated. It matches twelvedata.HTTPClient.
type Doer interface {
    Do(req *http.Request) (*http.Response, error)
}

// Client wraps a Doer and gates requests through a token bucket. Waiting
// callers return early with the request context's error.
type Client struct {
    Next    Doer
    Limiter *rate.Limiter
}

// PerMinute builds a Client allowing rpm requests per minute with the given
// burst. rpm <= 0 disables limiting.
func PerMinute(next Doer, rpm, burst int) *Client {
    if burst <= 0 { burst = 1 }
    limit := rate.Inf
    if rpm > 0 { limit = rate.Every(time.Minute / time.Duration(rpm)) }
    return &Client{Next: next, Limiter: rate.NewLimiter(limit, burst)}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
    if c.Limiter != nil {
        if err := c.Limiter.Wait(req.Context()); err != nil { return nil, err }
    }
    return c.Next.Do(req)
}
