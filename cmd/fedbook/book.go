package main

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"
)

var (
	book = cli.Command{
		Name:  "book",
		Usage: "list the public orders of the federation matching the given filters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "the order type, either buy or sell; both if not set",
			},
			&cli.StringFlag{
				Name:  "currency",
				Usage: "the currency code (eg. EUR) or numeric id; any if not set",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "either fiat or swap; both if not set",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "any, federated or the alias of a coordinator",
				Value: "any",
			},
			&cli.StringFlag{
				Name:  "premium",
				Usage: "the min premium for buy orders and max premium for sell orders",
			},
			&cli.StringSliceFlag{
				Name:  "payment_method",
				Usage: "accepted payment method, can be repeated",
			},
			&cli.StringFlag{
				Name:  "amount",
				Usage: "the amount an order must be compatible with",
			},
			&cli.StringFlag{
				Name:  "min_amount",
				Usage: "the lower bound of the range an order must overlap",
			},
			&cli.StringFlag{
				Name:  "max_amount",
				Usage: "the upper bound of the range an order must overlap",
			},
			&cli.StringFlag{
				Name:  "threshold",
				Usage: "the relative tolerance applied to the amount filter",
			},
		},
		Action: bookAction,
	}
	exchange = cli.Command{
		Name:   "exchange",
		Usage:  "get the aggregated statistics of the federation",
		Action: exchangeAction,
	}
	limits = cli.Command{
		Name:   "limits",
		Usage:  "get the per-currency limits and prices of the federation",
		Action: limitsAction,
	}
	bond = cli.Command{
		Name:  "bond",
		Usage: "compute the maker bond in satoshis of an order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "amount",
				Usage:    "the order amount, or its min amount if ranged",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "max_amount",
				Usage: "the max amount of a ranged order",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "either fiat or swap",
				Value: "fiat",
			},
			&cli.StringFlag{
				Name:  "currency",
				Usage: "the currency used to look up the price if not given",
			},
			&cli.StringFlag{
				Name:  "price",
				Usage: "the price of one bitcoin in the order currency",
			},
			&cli.StringFlag{
				Name:  "premium",
				Usage: "the order premium percentage",
				Value: "0",
			},
			&cli.StringFlag{
				Name:     "bond_size",
				Usage:    "the percentage of the trade locked as bond",
				Required: true,
			},
		},
		Action: bondAction,
	}
)

func bookAction(ctx *cli.Context) error {
	query := url.Values{}
	for _, key := range []string{
		"type", "currency", "mode", "host", "premium",
		"amount", "min_amount", "max_amount", "threshold",
	} {
		if v := ctx.String(key); v != "" {
			query.Set(key, v)
		}
	}
	for _, pm := range ctx.StringSlice("payment_method") {
		query.Add("payment_methods", pm)
	}
	return callDaemon(http.MethodGet, "/book", query, nil)
}

func exchangeAction(ctx *cli.Context) error {
	return callDaemon(http.MethodGet, "/exchange", nil, nil)
}

func limitsAction(ctx *cli.Context) error {
	return callDaemon(http.MethodGet, "/limits", nil, nil)
}

func bondAction(ctx *cli.Context) error {
	query := url.Values{}
	for _, key := range []string{
		"amount", "max_amount", "mode", "currency", "price", "premium", "bond_size",
	} {
		if v := ctx.String(key); v != "" {
			query.Set(key, v)
		}
	}
	query.Set("has_range", strconv.FormatBool(ctx.String("max_amount") != ""))
	return callDaemon(http.MethodGet, "/bond", query, nil)
}
