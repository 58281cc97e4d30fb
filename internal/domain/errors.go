package domain

import "errors"

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrJobNotFound      = errors.New("job not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrInvalidJobStatus = errors.New("invalid job status")
	ErrJobTerminal      = errors.New("job is in a terminal status")
	ErrInvalidSchema    = errors.New("profile validation schema does not compile")
	ErrInvalidReview    = errors.New("invalid review status")
)
