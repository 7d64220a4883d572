// Package orchestrate is the single entry point for tool execution. It
// looks the tool up in the registry, runs it through the tiered response
// cache, bounds execution with a per-call timeout, and always returns a
// structured Response. Raw errors never escape to the caller: failures
// are logged with full context and converted into a safe user-facing
// message. Provenance from every query the handler issues is aggregated
// into the response citations, and cached responses replay the citations
// captured when the entry was written.
package orchestrate
