package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kdblegal/kdbweb/internal"
	"github.com/kdblegal/kdbweb/internal/config"
	"github.com/kdblegal/kdbweb/internal/logging"
	"github.com/kdblegal/kdbweb/pkg"

	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	flushLogs := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "kdbweb-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	serverParams := serverParamsFromEnv(cfg)

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(ctx, serverParams)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
	flushLogs()
}

// serverParamsFromEnv collects the secrets, which never live in the config file.
func serverParamsFromEnv(cfg *config.Config) internal.NewServerParams {
	params := internal.NewServerParams{
		Config:                  cfg,
		DBPassword:              os.Getenv("KDB_DB_PASSWORD"),
		RedisPassword:           os.Getenv("KDB_REDIS_PASS"),
		AdminUsername:           os.Getenv("ADMIN_USER"),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
		S3AccessKeyID:           os.Getenv("KDB_S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:       os.Getenv("KDB_S3_SECRET_ACCESS_KEY"),
		HoneycombTracingEnabled: os.Getenv("HONEYCOMB_ENABLED") == "true",
	}

	if params.DBPassword == "" {
		log.Warnln("db password not set. use KDB_DB_PASSWORD")
	}
	if params.RedisPassword == "" && cfg.RedisHost != "" {
		log.Warnln("redis password not set. use KDB_REDIS_PASS")
	}
	if params.AdminUsername == "" || params.AdminPassword == "" {
		log.Debugln("ADMIN_USER / ADMIN_PASSWORD not set, the first admin comes from /auth/bootstrap")
	}
	if cfg.S3Bucket != "" && params.S3AccessKeyID == "" {
		log.Debugln("KDB_S3_ACCESS_KEY_ID not set, using the default AWS credential chain")
	}
	if params.HoneycombTracingEnabled && os.Getenv("HONEYCOMB_API_KEY") == "" {
		log.Warnln("HONEYCOMB_API_KEY env var not set")
	}

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}
	params.VersionInfo = versionInfo

	return params
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(pkg.BytesToString(stdout)), nil
}
