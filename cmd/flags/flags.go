package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/houseplants-app/plants-api/api"
	"github.com/houseplants-app/plants-api/common"
	"github.com/houseplants-app/plants-api/metrics"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, m *metrics.Metrics) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Metrics:                  m,
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	Usage:   "address to listen on for API",
	EnvVars: []string{"PLANTS_LISTEN_ADDR"},
}

var StoreURIFlag = &cli.StringFlag{
	Name:    "store-uri",
	Value:   "memory://",
	Usage:   "document store location: memory://, sqlite://<path>, postgres://..., firestore://<project>, dynamodb://<region>/<table>",
	EnvVars: []string{"PLANTS_STORE_URI"},
}

var AuthURIFlag = &cli.StringFlag{
	Name:     "auth-uri",
	Usage:    "identity provider: firebase://<project>, jwt://?secret=env:JWT_SECRET, static:///path/to/tokens.yaml",
	EnvVars:  []string{"PLANTS_AUTH_URI"},
	Required: true,
}

var VaultAddrFlag = &cli.StringFlag{
	Name:    "vault-addr",
	Usage:   "Vault address used to resolve vault:// secret references",
	EnvVars: []string{"VAULT_ADDR"},
}

var VaultTokenFlag = &cli.StringFlag{
	Name:    "vault-token",
	Usage:   "Vault token used to resolve vault:// secret references",
	EnvVars: []string{"VAULT_TOKEN"},
}

var ProvisionLogFlag = &cli.BoolFlag{
	Name:  "provision-watering-log",
	Value: true,
	Usage: "create an empty watering log when a plant is created",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "plants-api",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

var ServerFlags = append([]cli.Flag{
	ListenAddrFlag,
	StoreURIFlag,
	AuthURIFlag,
	VaultAddrFlag,
	VaultTokenFlag,
	ProvisionLogFlag,
}, CommonFlags...)
