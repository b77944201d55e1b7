package core

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidSize           = errors.New("invalid size")
	ErrInvalidPrice          = errors.New("invalid price")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrDuplicateOrder        = errors.New("duplicate order")
	ErrOrderNotFound         = errors.New("order not found")
	ErrEmptySide             = errors.New("empty book side")
	ErrEmptyTape             = errors.New("empty trade tape")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

// InsufficientLiquidityError is returned when a market order exhausts the
// opposing side before filling completely. Fills executed before exhaustion
// stand; Remaining is the size that could not be filled and never rests.
type InsufficientLiquidityError struct {
	Remaining int64
}

func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("insufficient liquidity: %d unfilled", e.Remaining)
}

// Unwrap makes the error match ErrInsufficientLiquidity with errors.Is.
func (e *InsufficientLiquidityError) Unwrap() error {
	return ErrInsufficientLiquidity
}
