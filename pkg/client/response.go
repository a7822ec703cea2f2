package client

import (
	"github.com/jaxron/httpism/pkg/client/message"
)

// Response is the caller-visible result of a request. It embeds the raw response
// fields and the issuing Client, so follow-up requests can be made from it directly.
type Response struct {
	*message.Response
	*Client
}

func newResponse(c *Client, resp *message.Response) *Response {
	return &Response{
		Response: resp,
		Client:   c,
	}
}
