package board

import "errors"

var (
	ErrListNotFound   = errors.New("list not found")
	ErrLabelNotFound  = errors.New("label not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidMonth   = errors.New("invalid month")
)
