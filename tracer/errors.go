package tracer

import "errors"

var (
	ErrBusy          = errors.New("tracer: worker busy")
	ErrWorkerRunning = errors.New("tracer: block worker running")
)
