package domain

import (
	"fmt"
	"strings"
)

// ConfigValidationError is raised synchronously, before any network call.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// TransportError means the HTTP exchange itself failed or returned non-2xx.
type TransportError struct {
	Method string
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: transport failed: %v", e.Method, e.Path, e.Err)
	}
	msg := fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, e.Body)
	if e.Status == 401 || e.Status == 403 {
		msg += " (check that the API token has Tunnel, DNS and SSL permissions for this account)"
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a well-formed envelope with success=false. Every reported
// error message is kept; none are silently dropped.
type APIError struct {
	Method   string
	Path     string
	Messages []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: api error: %s", e.Method, e.Path, strings.Join(e.Messages, "; "))
}

// SchemaError means a successful envelope carried a result that does not
// match the expected shape.
type SchemaError struct {
	Path   string
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: unexpected response shape: %s", e.Path, e.Detail)
}

// ZoneNotFoundError aborts startup before any tunnel or DNS call.
type ZoneNotFoundError struct {
	Apex string
}

func (e *ZoneNotFoundError) Error() string {
	return fmt.Sprintf("no zone found for %q: add the domain to your Cloudflare account first", e.Apex)
}

// ProcessSpawnError means the daemon executable is missing or not runnable.
type ProcessSpawnError struct {
	Path string
	Err  error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("failed to start daemon %q: %v", e.Path, e.Err)
}

func (e *ProcessSpawnError) Unwrap() error { return e.Err }
