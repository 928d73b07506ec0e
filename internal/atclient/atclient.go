// Package atclient provides the single authenticated xrpc.Client the
// Reconciler uses to read and write the labeler's own repository.
//
// Grounded on the teacher's session/auth bootstrap idiom (load
// credentials, obtain a token, hold it on a client value for the
// process's lifetime) generalized from a hosted PDS's inbound session
// store to this service's single outbound session against
// bsky_endpoint.
package atclient

import (
	"context"
	"fmt"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/xrpc"
)

// Login creates a session against endpoint using identifier/password
// and returns a ready-to-use client.
func Login(ctx context.Context, endpoint, identifier, password string) (*xrpc.Client, error) {
	c := &xrpc.Client{Host: endpoint}

	sess, err := comatproto.ServerCreateSession(ctx, c, &comatproto.ServerCreateSession_Input{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, fmt.Errorf("atclient: create session: %w", err)
	}

	c.Auth = &xrpc.AuthInfo{
		AccessJwt:  sess.AccessJwt,
		RefreshJwt: sess.RefreshJwt,
		Did:        sess.Did,
		Handle:     sess.Handle,
	}
	return c, nil
}
