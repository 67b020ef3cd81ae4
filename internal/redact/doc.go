// Package redact removes sensitive substrings from text before it is stored
// or forwarded.
//
// Rules are applied one after another, each against the output of the
// previous pass, and every match is replaced with a fixed marker naming the
// rule's category (for example "[REDACTED_EMAIL]"). Markers contain no
// digits, '@' or assignment syntax, so running Redact over its own output is
// a no-op. An optional gitleaks stage runs after the rules and catches
// provider-specific credentials the rule table does not know about.
//
// Redaction never fails: empty input yields empty output and a rule set that
// matches nothing returns the input unchanged.
package redact
