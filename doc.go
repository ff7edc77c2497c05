// Package authkit orchestrates the client side of the StudyHall
// authentication gateway: password login, quick login with device keys and
// optional biometric confirmation, email OTP verification, registration,
// OAuth exchange, and role-based destination routing.
//
// The package never implements security policy itself. Password hashing,
// token issuance, and lockout enforcement all live behind the remote gateway;
// authkit consumes its HTTP contract, normalizes its response shapes into a
// single [Credential] type, and keeps local state (the current credential and
// the remembered-account list) behind one [CredentialStore] seam.
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Client], [Builder], [Config],
// the flow entry points, and value types. Transport lives in the gateway
// sub-package, persistence backends in store, and neither imports authkit
// flows back (no import cycles).
//
// # What this package must NOT do
//
//   - Reimplement gateway business rules (lockout counters, token TTLs).
//   - Show raw transport errors to callers; every failure is classified into
//     the sentinel taxonomy in errors.go exactly once, in classify.go.
//   - Retry network calls automatically. Retries are user-initiated.
//
// Client methods are safe for concurrent use after [Builder.Build]; each flow
// gates duplicate in-flight submissions and tolerates responses that arrive
// after the caller abandoned the step.
package authkit
