// Package auth protects the administrative API with bearer tokens.
//
// Tokens are HS256 JWTs signed with the shared secret from the auth.jwt_secret
// config key. The "sub" claim names the calling process, "iss" must be
// "facil-bot" and "exp" is required. Mint one with:
//
//	facil-bot token --name kitchen-app --ttl 720h
//
// RequireBearer rejects requests without a valid token with 401 and a JSON
// body, and stores the Caller in the request context for handlers and logs.
// When no secret is configured the middleware is a pass-through; bind the
// API to loopback or a tailnet in that case.
package auth
