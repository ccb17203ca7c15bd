package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"databrowser/internal/admin"
	"databrowser/internal/db"
	_ "databrowser/internal/db/extractors"
	"databrowser/internal/logger"
	"databrowser/internal/meta"
	"databrowser/internal/schema"
	"databrowser/internal/types"
	"databrowser/internal/views"
	"databrowser/pkg/config"
)

var defaultPort = 8080

// loadEnv reads .env when present. The environment wins over the file.
func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("reading .env: %v", err)
	}
}

func main() {
	// flags
	cfgPath := flag.String("config", filepath.Join(".", "configs", "example.yaml"), "path to config YAML")
	driverFlag := flag.String("driver", "", "db driver override (postgres,mysql,sqlite,sqlserver,godror)")
	dsnFlag := flag.String("dsn", "", "dsn override")
	port := flag.Int("port", 0, "http port (overrides config, default"+fmt.Sprintf(" %d)", defaultPort))
	timeout := flag.Int("timeout", 10, "db connect timeout seconds")
	flag.Parse()

	loadEnv()

	var appCfg config.AppConfig
	logger.Info("config file %s", *cfgPath)
	if c, err := config.LoadFile(*cfgPath); err == nil {
		appCfg = c
	} else {
		logger.Error("error reading config file: %v", err)
	}
	logger.SetDebug(appCfg.Browser.Debug)

	// CLI overrides beat the environment, which beats the config file
	driver, dsn := os.Getenv("DATA_BROWSER_DRIVER"), os.Getenv("DATA_BROWSER_DSN")
	driver, dsn = lo.CoalesceOrEmpty(*driverFlag, driver), lo.CoalesceOrEmpty(*dsnFlag, dsn)
	if driver == "" || dsn == "" {
		var err error
		driver, dsn, err = config.BuildDriverAndDSN(appCfg.Database)
		if err != nil {
			logger.Fatal("error building DSN: %v", err)
		}
	}
	driver = config.NormalizeDriver(driver)

	store, err := db.Open(driver, dsn, *timeout)
	if err != nil {
		logger.Fatal("connection failed: %v", err)
	}
	defer store.Close()

	extractCtx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeout)*time.Second)
	extracted, err := store.Extract(extractCtx)
	cancel()
	if err != nil {
		logger.Fatal("failed to extract schema: %v", err)
	}
	logger.Info("extracted %d tables from %s", len(extracted.Tables), driver)

	catalog := meta.FromSchema(extracted, appCfg.Models)
	site := admin.NewSite(appCfg.Admins, catalog)

	opts := []types.Option{}
	if tz := appCfg.Browser.Timezone; tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			logger.Fatal("bad timezone %q: %v", tz, err)
		}
		opts = append(opts, types.WithLocation(loc))
	}
	if store.HasRegexProbe() {
		opts = append(opts, types.WithRegexChecker(store))
	} else {
		logger.Info("%s has no regex probe, checking patterns locally", driver)
	}
	reg := types.New(opts...)

	a := &api{
		builder: schema.NewBuilder(site, catalog, reg, schema.Options{AuthUserCompat: appCfg.Browser.AuthUserCompat}),
		types:   reg,
		hooks:   &views.Hooks{},
		browser: appCfg.Browser,
		now:     time.Now,
	}
	a.hooks.Add(a.reportHook)

	*port = lo.CoalesceOrEmpty(*port, appCfg.Server.Port, defaultPort)
	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Info("listening on %s", addr)
	logger.Info("registered dialects: %v", db.RegisteredDialects())
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("%v", err)
	}
}
