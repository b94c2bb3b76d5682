package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Client errors (4xx)
	TagNotFound       = goerr.NewTag("not_found")       // 404
	TagValidation     = goerr.NewTag("validation")      // 400
	TagInvalidRequest = goerr.NewTag("invalid_request") // 400
	TagUnauthorized   = goerr.NewTag("unauthorized")    // 401
	TagForbidden      = goerr.NewTag("forbidden")       // 403
	TagConflict       = goerr.NewTag("conflict")        // 409

	// Server errors (5xx)
	TagInternal = goerr.NewTag("internal") // 500
	TagDatabase = goerr.NewTag("database") // 500 (specific to DB errors)
	TagExternal = goerr.NewTag("external") // 502/503

	// Operational conditions. These are recorded for observability and must
	// never surface as operation failures.
	TagStaffingGap  = goerr.NewTag("staffing_gap")
	TagNotification = goerr.NewTag("notification_failure")
)
