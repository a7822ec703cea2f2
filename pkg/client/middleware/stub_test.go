package middleware_test

import (
	"context"

	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/options"
)

type stubSender struct{}

func (*stubSender) Exchange(context.Context, string, string, message.Body, *options.Options) (*message.Response, error) {
	return &message.Response{}, nil
}
