package runtime

import (
	"os"
)

type (
	WorkerOption func(*WorkerCtx)

	PublisherOption func(*PublisherCtx)
)

func WithWorkerTermination(ch chan os.Signal) WorkerOption {
	return func(ctx *WorkerCtx) {
		ctx.shutdownChannel = ch
	}
}

func WithPublisherTermination(ch chan os.Signal) PublisherOption {
	return func(ctx *PublisherCtx) {
		ctx.shutdownChannel = ch
	}
}
