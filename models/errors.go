package models

import "errors"

// Failure taxonomy shared by the fetch, normalize and store stages. Stages
// wrap these with fmt.Errorf("...: %w", ...) so callers can classify with
// errors.Is without depending on stage internals.
var (
	// ErrSessionSetup indicates the browser session could not be created.
	ErrSessionSetup = errors.New("browser session setup failed")
	// ErrRenderTimeout indicates the page body never became present within
	// the render wait bound.
	ErrRenderTimeout = errors.New("render wait timed out")
	// ErrMalformedPayload indicates the retrieved text is not valid JSON.
	ErrMalformedPayload = errors.New("payload is not valid JSON")
	// ErrStructuralMismatch indicates valid JSON missing the expected keys.
	// Retrying does not help; the shape itself is wrong.
	ErrStructuralMismatch = errors.New("payload missing expected structure")
	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = errors.New("transport request failed")
	// ErrValueCoercion indicates a present field that does not parse as the
	// expected type.
	ErrValueCoercion = errors.New("value coercion failed")
	// ErrStoreUnavailable indicates the store table or connection could not
	// be established. Fatal at startup, before any fetch is attempted.
	ErrStoreUnavailable = errors.New("store unavailable")
)
