package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeSessionEmptyContentID       = "SESSION_EMPTY_CONTENT_ID"
	CodeSessionEmptyUserID          = "SESSION_EMPTY_USER_ID"
	CodeSessionInvalidStatus        = "SESSION_INVALID_STATUS"
	CodeSessionStatusNotTerminal    = "SESSION_STATUS_NOT_TERMINAL"
	CodeSessionInvalidScoreBounds   = "SESSION_INVALID_SCORE_BOUNDS"
	CodeSessionScoreOutOfBounds     = "SESSION_SCORE_OUT_OF_BOUNDS"
	CodeSessionPassingScoreOutOfMax = "SESSION_PASSING_SCORE_OUT_OF_BOUNDS"
	CodeSessionNegativeDuration     = "SESSION_NEGATIVE_DURATION"
	CodeSessionAlreadyEnded         = "SESSION_ALREADY_ENDED"
	CodeModuleInvalidGradeMethod    = "MODULE_INVALID_GRADE_METHOD"
	CodeReportInvalidFilter         = "REPORT_INVALID_FILTER"
	CodeNotFound                    = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Session validation errors
		CodeSessionEmptyContentID:       "Content ID is required for a playback session",
		CodeSessionEmptyUserID:          "User ID is required for a playback session",
		CodeSessionInvalidStatus:        "Invalid session status specified",
		CodeSessionStatusNotTerminal:    "Status {{.Status}} cannot end a session",
		CodeSessionInvalidScoreBounds:   "Minimum score {{.MinScore}} exceeds maximum score {{.MaxScore}}",
		CodeSessionScoreOutOfBounds:     "Score {{.Score}} is outside the range {{.MinScore}} to {{.MaxScore}}",
		CodeSessionPassingScoreOutOfMax: "Passing score {{.PassingScore}} is outside the range {{.MinScore}} to {{.MaxScore}}",
		CodeSessionNegativeDuration:     "Playback duration cannot be negative",

		// Session lifecycle errors
		CodeSessionAlreadyEnded: "The playback session has already ended",

		// Module/grading errors
		CodeModuleInvalidGradeMethod: "Invalid grading method specified",

		// Report errors
		CodeReportInvalidFilter: "Invalid report filter expression",

		// Storage errors
		CodeNotFound: "The requested resource was not found",
	},
}
