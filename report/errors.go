package report

import "github.com/dfilippo/lavoro/internal/apperr"

var (
	errNothingToExport = &apperr.Error{
		Message: "no sessions or expenses found for %s",
	}

	errCreateExportDir = &apperr.Error{
		Message: "unable to create the export directory",
	}

	errWriteFailed = &apperr.Error{
		Message: "unable to write %s",
	}

	errArchiveFailed = &apperr.Error{
		Message: "unable to finalize the export archive",
	}
)
