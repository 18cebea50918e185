// Package apperror defines the typed error taxonomy shared by every layer.
//
// Repositories return *Error values carrying a Kind; the HTTP boundary maps the
// Kind to a status code via StatusCode. Plumbing errors (driver, filesystem,
// network) are wrapped so errors.Is / errors.As still reach the cause.
//
// # Kinds
//
//   - NotFound: an entity looked up by id or label does not exist.
//   - BadRequest: validation failure, exhausted label space, empty update set.
//   - Conflict: a state guard refused the operation (item on loan, occupied container).
//   - Internal: encoding/decoding failures, corrupt stored data.
//   - Config: bad database URL or incomplete storage configuration.
//   - Storage: blob backend failure.
//   - IO: local filesystem failure.
//   - Database: driver or connection failure.
//
// # Usage
//
//	if n == 0 {
//	    return apperror.NotFound("Item with id %d not found", id)
//	}
//
//	if apperror.Is(err, apperror.KindConflict) { ... }
package apperror
