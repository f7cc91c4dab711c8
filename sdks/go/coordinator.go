package taskdeck

import (
	"context"
	"net/http"
)

// refreshResult is the settlement fanned out to every caller waiting on
// an in-flight refresh exchange.
type refreshResult struct {
	accessToken string
	err         error
}

// coordinateRefresh collapses concurrent refresh needs into a single
// network exchange. The first caller becomes the leader and performs
// the exchange; callers arriving while it is in flight are queued and
// receive the leader's outcome, in arrival order. Shared fate: one
// exchange settles everyone identically.
//
// On failure the credential store is cleared — the session is over and
// every waiter gets the same RefreshError.
func (c *Client) coordinateRefresh(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if c.refreshing {
		// A refresh is in flight; wait for its outcome.
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.refreshMu.Unlock()

		select {
		case res := <-ch:
			return res.accessToken, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.refreshMu.Unlock()

	token, err := c.doRefresh(ctx)

	// Settle every queued waiter with the shared outcome, in enqueue
	// order, before new callers can start another exchange.
	c.refreshMu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.refreshMu.Unlock()

	for _, ch := range waiters {
		ch <- refreshResult{accessToken: token, err: err}
	}
	return token, err
}

// doRefresh performs the actual refresh-token exchange. Only the
// coordinator leader calls this.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	pair, err := c.creds.Tokens()
	if err != nil {
		return "", &RefreshError{Cause: err}
	}

	// No refresh token means the session is already gone: terminate
	// locally without a network call.
	if pair.RefreshToken == "" {
		_ = c.creds.Clear()
		return "", &RefreshError{Cause: ErrAuthRequired}
	}

	var rotated TokenPair
	err = c.bareRequest(ctx, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refreshToken": pair.RefreshToken}, &rotated)
	if err != nil {
		// Any failure terminates the session: the old refresh token may
		// already be consumed server-side, so it cannot be kept.
		_ = c.creds.Clear()
		return "", &RefreshError{Cause: err}
	}

	if err := c.creds.Set(rotated); err != nil {
		return "", &RefreshError{Cause: err}
	}
	return rotated.AccessToken, nil
}
