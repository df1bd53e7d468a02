package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/houseplants-app/plants-api/api/clients"
	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8080/api/v1",
	Usage:   "plants API base URL",
	EnvVars: []string{"PLANTS_SERVER_ADDR"},
}

var flagToken = &cli.StringFlag{
	Name:     "token",
	Usage:    "bearer token",
	EnvVars:  []string{"PLANTS_TOKEN"},
	Required: true,
}

var (
	flagID        = &cli.StringFlag{Name: "id", Required: true, Usage: "resource id"}
	flagPlant     = &cli.StringFlag{Name: "plant", Required: true, Usage: "plant id"}
	flagName      = &cli.StringFlag{Name: "name", Usage: "name, unique per owner"}
	flagWaterAt   = &cli.StringFlag{Name: "water-at", Usage: "time of day to water, HH:MM"}
	flagRoom      = &cli.StringFlag{Name: "room", Usage: "room id"}
	flagTrefleID  = &cli.IntFlag{Name: "trefle-id", Usage: "Trefle species id"}
	flagHasDevice = &cli.BoolFlag{Name: "has-device", Usage: "plant has a sensor device"}
	flagIconID    = &cli.IntFlag{Name: "icon-id", Usage: "room icon id"}
	flagWateredAt = &cli.StringFlag{Name: "watered-at", Usage: "watering timestamp"}
	flagHealth    = &cli.Float64Flag{Name: "health", Usage: "plant health at watering time"}
)

func newClient(cCtx *cli.Context) *clients.PlantsClient {
	return &clients.PlantsClient{
		ServerAddr: cCtx.String(flagServerAddr.Name),
		Token:      cCtx.String(flagToken.Name),
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// optional returns a pointer to the flag value when the flag was set.
func optional[T any](cCtx *cli.Context, name string, get func(string) T) *T {
	if !cCtx.IsSet(name) {
		return nil
	}
	v := get(name)
	return &v
}

func plantPatch(cCtx *cli.Context) interfaces.PlantPatch {
	return interfaces.PlantPatch{
		Name:      optional(cCtx, flagName.Name, cCtx.String),
		WaterAt:   optional(cCtx, flagWaterAt.Name, cCtx.String),
		RoomID:    optional(cCtx, flagRoom.Name, cCtx.String),
		TrefleID:  optional(cCtx, flagTrefleID.Name, cCtx.Int),
		HasDevice: optional(cCtx, flagHasDevice.Name, cCtx.Bool),
	}
}

func roomInput(cCtx *cli.Context) *interfaces.RoomInput {
	return &interfaces.RoomInput{
		Name:   optional(cCtx, flagName.Name, cCtx.String),
		IconID: optional(cCtx, flagIconID.Name, cCtx.Int),
	}
}

func wateringPatch(cCtx *cli.Context) interfaces.WateringPatch {
	return interfaces.WateringPatch{
		WateredAt: optional(cCtx, flagWateredAt.Name, cCtx.String),
		Health:    optional(cCtx, flagHealth.Name, cCtx.Float64),
	}
}

func printID(id string, err error) error {
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"id": id})
}

var plantsCommand = &cli.Command{
	Name:  "plants",
	Usage: "manage plants",
	Subcommands: []*cli.Command{
		{
			Name: "list",
			Action: func(cCtx *cli.Context) error {
				items, err := newClient(cCtx).ListPlants(cCtx.Context)
				if err != nil {
					return err
				}
				return printJSON(items)
			},
		},
		{
			Name:  "add",
			Flags: []cli.Flag{flagName, flagWaterAt, flagRoom, flagTrefleID, flagHasDevice},
			Action: func(cCtx *cli.Context) error {
				in := interfaces.PlantInput(plantPatch(cCtx))
				return printID(newClient(cCtx).CreatePlant(cCtx.Context, &in))
			},
		},
		{
			Name:  "update",
			Flags: []cli.Flag{flagID, flagName, flagWaterAt, flagRoom, flagTrefleID, flagHasDevice},
			Action: func(cCtx *cli.Context) error {
				return printID(newClient(cCtx).UpdatePlant(cCtx.Context, cCtx.String(flagID.Name), plantPatch(cCtx)))
			},
		},
		{
			Name:  "delete",
			Flags: []cli.Flag{flagID},
			Action: func(cCtx *cli.Context) error {
				return newClient(cCtx).DeletePlant(cCtx.Context, cCtx.String(flagID.Name))
			},
		},
	},
}

var roomsCommand = &cli.Command{
	Name:  "rooms",
	Usage: "manage rooms",
	Subcommands: []*cli.Command{
		{
			Name: "list",
			Action: func(cCtx *cli.Context) error {
				items, err := newClient(cCtx).ListRooms(cCtx.Context)
				if err != nil {
					return err
				}
				return printJSON(items)
			},
		},
		{
			Name:  "add",
			Flags: []cli.Flag{flagName, flagIconID},
			Action: func(cCtx *cli.Context) error {
				return printID(newClient(cCtx).CreateRoom(cCtx.Context, roomInput(cCtx)))
			},
		},
		{
			Name:  "update",
			Flags: []cli.Flag{flagID, flagName, flagIconID},
			Action: func(cCtx *cli.Context) error {
				return printID(newClient(cCtx).UpdateRoom(cCtx.Context, cCtx.String(flagID.Name), roomInput(cCtx)))
			},
		},
		{
			Name:  "delete",
			Flags: []cli.Flag{flagID},
			Action: func(cCtx *cli.Context) error {
				return newClient(cCtx).DeleteRoom(cCtx.Context, cCtx.String(flagID.Name))
			},
		},
	},
}

var wateringsCommand = &cli.Command{
	Name:  "waterings",
	Usage: "manage a plant's watering history",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Flags: []cli.Flag{flagPlant},
			Action: func(cCtx *cli.Context) error {
				records, err := newClient(cCtx).ListWaterings(cCtx.Context, cCtx.String(flagPlant.Name))
				if err != nil {
					return err
				}
				return printJSON(records)
			},
		},
		{
			Name:  "add",
			Flags: []cli.Flag{flagPlant, flagWateredAt, flagHealth},
			Action: func(cCtx *cli.Context) error {
				in := interfaces.WateringInput(wateringPatch(cCtx))
				return printID(newClient(cCtx).AddWatering(cCtx.Context, cCtx.String(flagPlant.Name), &in))
			},
		},
		{
			Name:  "update",
			Flags: []cli.Flag{flagPlant, flagID, flagWateredAt, flagHealth},
			Action: func(cCtx *cli.Context) error {
				return printID(newClient(cCtx).UpdateWatering(cCtx.Context, cCtx.String(flagPlant.Name), cCtx.String(flagID.Name), wateringPatch(cCtx)))
			},
		},
		{
			Name:  "delete",
			Flags: []cli.Flag{flagPlant, flagID},
			Action: func(cCtx *cli.Context) error {
				return newClient(cCtx).DeleteWatering(cCtx.Context, cCtx.String(flagPlant.Name), cCtx.String(flagID.Name))
			},
		},
	},
}

func main() {
	app := &cli.App{
		Name:  "plantctl",
		Usage: "command line client for the plants API",
		Flags: []cli.Flag{flagServerAddr, flagToken},
		Commands: []*cli.Command{
			{
				Name:  "me",
				Usage: "show the caller's profile",
				Action: func(cCtx *cli.Context) error {
					profile, err := newClient(cCtx).Me(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(profile)
				},
			},
			plantsCommand,
			roomsCommand,
			wateringsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		var apiErr *clients.APIError
		if errors.As(err, &apiErr) {
			log.Fatalf("request failed with status %d: %s", apiErr.Status, apiErr.Message)
		}
		log.Fatal(err)
	}
}
