package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/houseplants-app/plants-api/api/planthandler"
	"github.com/houseplants-app/plants-api/api/servers"
	"github.com/houseplants-app/plants-api/auth"
	"github.com/houseplants-app/plants-api/cmd/flags"
	"github.com/houseplants-app/plants-api/metrics"
	"github.com/houseplants-app/plants-api/secrets"
	"github.com/houseplants-app/plants-api/service"
	"github.com/houseplants-app/plants-api/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "plants-server",
		Usage: "Serve the house plants API",
		Flags: flags.ServerFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			ctx := context.Background()

			resolver, err := secrets.NewResolver(secrets.VaultConfig{
				Address: cCtx.String(flags.VaultAddrFlag.Name),
				Token:   cCtx.String(flags.VaultTokenFlag.Name),
			}, logger)
			if err != nil {
				logger.Error("Failed to create secret resolver", "err", err)
				return err
			}

			m := metrics.New()

			store, err := storage.NewStoreFactory(logger, resolver).StoreFor(ctx, cCtx.String(flags.StoreURIFlag.Name))
			if err != nil {
				logger.Error("Failed to open document store", "err", err)
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("Failed to close document store", "err", err)
				}
			}()
			logger.Info("Document store ready", "store", store.Name(), "location", store.LocationURI())
			instrumented := storage.NewInstrumentedStore(store, m)

			identity, err := auth.NewProviderFactory(logger, resolver).ProviderFor(ctx, cCtx.String(flags.AuthURIFlag.Name))
			if err != nil {
				logger.Error("Failed to create identity provider", "err", err)
				return err
			}

			guard := service.NewGuard(instrumented, logger)
			waterings := service.NewWateringService(instrumented, logger)
			plants := service.NewPlantService(instrumented, guard, waterings, service.PlantServiceOptions{
				ProvisionLog: cCtx.Bool(flags.ProvisionLogFlag.Name),
			}, logger)
			rooms := service.NewRoomService(instrumented, guard, logger)

			handler := planthandler.NewHandler(plants, rooms, waterings, guard, identity, identity, logger)

			server, err := servers.New(flags.ConfigureServer(cCtx, logger, m), handler, instrumented)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
