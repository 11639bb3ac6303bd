// Package domain defines the core business types for the newsletter signup service.
//
// Types in this package are value objects with no database dependencies and no
// HTTP concerns. They are the shared language between handlers, services, and
// repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages except internal/pkg/apperr
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - Validated types are only constructed through their Parse functions
//   - Constants and enums belong here
package domain
