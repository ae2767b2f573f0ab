// Package password provides bcrypt password hashing and constant-time verification.
package password
