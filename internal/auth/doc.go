package auth

// Package auth provides the password hashing primitive and extraction of
// the upstream-asserted identity.
//
// Trust boundary: htadmind does not authenticate anyone. The acting identity
// is whatever the upstream reverse proxy asserts, either as a plain header
// value or as an HS256-signed assertion when a shared secret is configured.
// Deployments must ensure the daemon is only reachable through a proxy that
// authenticates and sets that header; the value is trusted verbatim here.
