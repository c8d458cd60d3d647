// Package testutil contains helpers used across tests to reduce boilerplate
// when building conversation histories and scripting mock model replies.
// They are not intended for production usage.
package testutil
