package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var connection = cli.Command{
	Name:   "connection",
	Usage:  "get or change how the daemon reaches the federation",
	Action: getConnectionAction,
	Subcommands: []*cli.Command{
		{
			Name:  "set",
			Usage: "update the connection settings, unset flags are left untouched",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "network",
					Usage: "either mainnet or testnet",
				},
				&cli.StringFlag{
					Name:  "origin",
					Usage: "one of clearnet, onion or i2p",
				},
				&cli.StringFlag{
					Name:  "mode",
					Usage: "the source of the order book, either api or nostr",
				},
				&cli.BoolFlag{
					Name:  "selfhosted",
					Usage: "reach every coordinator through the self-hosted client",
				},
			},
			Action: setConnectionAction,
		},
	},
}

type connectionRequest struct {
	Network    string `json:"network,omitempty"`
	Origin     string `json:"origin,omitempty"`
	Connection string `json:"connection,omitempty"`
	Selfhosted *bool  `json:"selfhosted,omitempty"`
}

func getConnectionAction(ctx *cli.Context) error {
	return callDaemon(http.MethodGet, "/connection", nil, nil)
}

func setConnectionAction(ctx *cli.Context) error {
	req := connectionRequest{
		Network:    ctx.String("network"),
		Origin:     ctx.String("origin"),
		Connection: ctx.String("mode"),
	}
	if ctx.IsSet("selfhosted") {
		selfhosted := ctx.Bool("selfhosted")
		req.Selfhosted = &selfhosted
	}
	return callDaemon(http.MethodPost, "/connection", nil, req)
}
