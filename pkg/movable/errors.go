package movable

import "errors"

var (
	ErrItemNotFound          = errors.New("item not found")
	ErrIncompatiblePartition = errors.New("items belong to different partitions")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrPositionOutOfRange    = errors.New("position out of range")
	ErrDensityViolation      = errors.New("partition ranks are not dense")
)
