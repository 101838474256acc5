package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var aliasFlag = cli.StringFlag{
	Name:     "alias",
	Usage:    "the short alias of the coordinator",
	Required: true,
}

var coordinators = cli.Command{
	Name:   "coordinators",
	Usage:  "list, inspect, enable or disable the coordinators of the federation",
	Action: listCoordinatorsAction,
	Subcommands: []*cli.Command{
		{
			Name:   "info",
			Usage:  "get the details of a coordinator",
			Flags:  []cli.Flag{&aliasFlag},
			Action: coordinatorInfoAction,
		},
		{
			Name:   "limits",
			Usage:  "get the limits advertised by a coordinator",
			Flags:  []cli.Flag{&aliasFlag},
			Action: coordinatorLimitsAction,
		},
		{
			Name:   "enable",
			Usage:  "enable a coordinator and load its data",
			Flags:  []cli.Flag{&aliasFlag},
			Action: enableCoordinatorAction,
		},
		{
			Name:   "disable",
			Usage:  "disable a coordinator and drop its orders from the book",
			Flags:  []cli.Flag{&aliasFlag},
			Action: disableCoordinatorAction,
		},
	},
}

func listCoordinatorsAction(ctx *cli.Context) error {
	return callDaemon(http.MethodGet, "/coordinators", nil, nil)
}

func coordinatorInfoAction(ctx *cli.Context) error {
	return callDaemon(http.MethodGet, "/coordinators/"+ctx.String("alias"), nil, nil)
}

func coordinatorLimitsAction(ctx *cli.Context) error {
	return callDaemon(
		http.MethodGet, "/coordinators/"+ctx.String("alias")+"/limits", nil, nil,
	)
}

func enableCoordinatorAction(ctx *cli.Context) error {
	return callDaemon(
		http.MethodPost, "/coordinators/"+ctx.String("alias")+"/enable", nil, nil,
	)
}

func disableCoordinatorAction(ctx *cli.Context) error {
	return callDaemon(
		http.MethodPost, "/coordinators/"+ctx.String("alias")+"/disable", nil, nil,
	)
}
