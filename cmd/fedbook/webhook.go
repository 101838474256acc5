package main

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var (
	webhook = cli.Command{
		Name:  "webhook",
		Usage: "add or remove webhooks",
		Subcommands: []*cli.Command{
			webhookAddCmd, webhookRemoveCmd,
		},
	}
	listwebhooks = cli.Command{
		Name:  "webhooks",
		Usage: "list all webhooks, optionally filtered by topic",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "topic",
				Usage: "one of book, limits, info, exchange, coordinators, loading, connection or *",
			},
		},
		Action: listWebhooksAction,
	}

	webhookAddCmd = &cli.Command{
		Name:  "add",
		Usage: "add a (secured) webhook endpoint called whenever the federation changes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "the webhook endpoint to be called whenever the topic changes",
				Required: true,
			},
			&cli.StringFlag{
				Name: "secret",
				Usage: "the eventual secret to use to generate a token for " +
					"authenticating requests to the webhook endpoint",
			},
			&cli.StringFlag{
				Name:  "topic",
				Usage: "one of book, limits, info, exchange, coordinators, loading, connection or * for any",
				Value: "*",
			},
		},
		Action: addWebhookAction,
	}

	webhookRemoveCmd = &cli.Command{
		Name:  "remove",
		Usage: "remove a webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "the id of the webhook to remove",
			},
		},
		Action: removeWebhookAction,
	}
)

func listWebhooksAction(ctx *cli.Context) error {
	query := url.Values{}
	if topic := ctx.String("topic"); topic != "" {
		query.Set("topic", topic)
	}
	return callDaemon(http.MethodGet, "/webhooks", query, nil)
}

func addWebhookAction(ctx *cli.Context) error {
	req := map[string]string{
		"topic":    ctx.String("topic"),
		"endpoint": ctx.String("endpoint"),
		"secret":   ctx.String("secret"),
	}
	return callDaemon(http.MethodPost, "/webhooks", nil, req)
}

func removeWebhookAction(ctx *cli.Context) error {
	id := ctx.String("id")
	if id == "" {
		return errors.New("missing webhook id")
	}
	return callDaemon(http.MethodDelete, "/webhooks/"+url.PathEscape(id), nil, nil)
}
