package engine

import "errors"

var (
	ErrInvalidStrategy   = errors.New("invalid strategy")
	ErrInvalidAllocation = errors.New("invalid allocation")
	ErrInvalidPortfolio  = errors.New("invalid portfolio")
)
