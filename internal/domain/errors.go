package domain

import "errors"

var (
	ErrAggregationFailure = errors.New("aggregation failure")
	ErrRenderFailure      = errors.New("render failure")
	ErrDispatchFailure    = errors.New("dispatch failure")
	ErrForbidden          = errors.New("forbidden")
	ErrRunInProgress      = errors.New("report run already in progress")
)
