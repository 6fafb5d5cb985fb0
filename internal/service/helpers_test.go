package service

import "time"

const (
	timeoutShort = 2 * time.Second
	tickShort    = 5 * time.Millisecond
)

func int64Ptr(v int64) *int64 { return &v }
