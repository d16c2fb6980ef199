package client

import "time"

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.rest.SetTimeout(d)
		}
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.rest.SetRetryCount(n)
		}
	}
}

// WithRetryWait sets the wait between retries.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.rest.SetRetryWaitTime(d)
		}
	}
}

// WithRequestID sends a fixed X-Request-ID header on every request.
func WithRequestID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.rest.SetHeader("X-Request-ID", id)
		}
	}
}
