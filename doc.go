// Package accounts provides a minimal user-account service core: local
// registration with email verification, credential login, OAuth-federated
// login, profile CRUD, and a bearer-token request authenticator.
//
// Account lifecycle:
//   - Local accounts start unverified and carry a single-use, 24h
//     verification token. Login refuses unverified local accounts. Token
//     consumption is a single conditional update so concurrent verification
//     attempts cannot both succeed.
//   - Federated accounts (google, github) are created verified and never
//     carry a password hash. The caller supplies already-authenticated
//     identity claims; no token exchange happens here.
//
// Tokens:
//   - TokenService mints HS256 JWTs binding the account id as the sole
//     claim, valid for a fixed window (7 days by default). There is no
//     revocation list; logout is client-side token discard.
//
// Ambiguous failures are deliberate: login failures collapse to
// ErrInvalidCredentials and verification failures collapse to
// ErrInvalidOrExpiredToken so callers cannot enumerate accounts or probe
// token state.
package accounts
