// Package auth carries caller identity and gates privileged operations.
//
// Regular invocations arrive with a caller identity already validated by
// the upstream intent router, so this package performs no credential
// flows for them. Administrative operations (cache statistics,
// invalidation) additionally require a privileged identity, obtainable
// either by construction or by validating a signed admin token.
package auth
