package modules

import (
	"context"

	"github.com/driftworks/driftd/internal/notify/mattermost"
)

// RegisterMattermost wires the webhook notifier.
func RegisterMattermost(r *Registry, c *mattermost.Client) {
	r.Register(Function{
		Name:   "mattermost.post_message",
		Doc:    "Post a message to the configured incoming webhook",
		Params: []string{"message", "channel", "username"},
		Call: func(ctx context.Context, args Args) (any, error) {
			var msg mattermost.Message
			var err error
			if msg.Text, err = args.String("message"); err != nil {
				return nil, err
			}
			if msg.Channel, err = args.StringOr("channel", ""); err != nil {
				return nil, err
			}
			if msg.Username, err = args.StringOr("username", ""); err != nil {
				return nil, err
			}
			if err := c.Post(ctx, msg); err != nil {
				return nil, err
			}
			return true, nil
		},
	})
}
