package cache

import (
	"context"
	"time"
)

// Noop is a Cache that stores nothing; every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error)              { return nil, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error                     { return nil }
func (Noop) DeletePrefix(context.Context, string) error               { return nil }
func (Noop) Clear(context.Context) error                              { return nil }

var _ Cache = Noop{}
