package tracker

import "github.com/dfilippo/lavoro/internal/apperr"

var (
	// ErrOverlapDetected is returned when a closed interval would overlap
	// an existing closed session.
	ErrOverlapDetected = &apperr.Error{
		Message: "the selected interval overlaps another session",
	}

	// ErrNoOpenSession is returned when a stop or switch is attempted with
	// nothing running.
	ErrNoOpenSession = &apperr.Error{
		Message: "no open session to close",
	}

	// ErrOpenSessionExists is returned when an edit would reopen a session
	// while another one is already running.
	ErrOpenSessionExists = &apperr.Error{
		Message: "another session is already open",
	}

	errNegativeAmount = &apperr.Error{
		Message: "expense amount cannot be negative",
	}

	errEmptyCategory = &apperr.Error{
		Message: "expense category cannot be empty",
	}
)
