// Package gateway is the HTTP client for the remote StudyHall auth gateway.
//
// It owns the wire contract only: request/response payloads, the union
// response shapes (flat token fields versus nested user/token/session_id),
// and the split between transport failures and gateway-reported API errors.
// Interpretation of those errors — lockout, verification-required, conflict —
// happens one level up, in the authkit root package.
package gateway
