package game

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_notifier.go -package=mocks . Notifier,Spawner

import "context"

// Notifier announces finished games to the channel.
type Notifier interface {
	NotifyFinished(ctx context.Context, result *Result) error
}

// Spawner runs detached work that outlives the request which started it.
// Go reports false when the task was not accepted.
type Spawner interface {
	Go(name string, fn func(ctx context.Context) error) bool
}
