// Package jwt manages access and refresh token issuance and verification using a shared
// symmetric secret and strict validation semantics suitable for low-latency
// authentication paths.
package jwt
