package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/coreman2200/arcaluminis-text/internal/app"
	"github.com/coreman2200/arcaluminis-text/internal/config"
	"github.com/coreman2200/arcaluminis-text/internal/console"
	"github.com/coreman2200/arcaluminis-text/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-text/internal/selftest"
	"github.com/coreman2200/arcaluminis-text/internal/ws"
)

func main() {
	// ---- Flags (config.yaml overrides where set) ----
	def := config.Default()
	var (
		driver     = flag.String("driver", def.Driver, "driver: sim | console | gpio | gpiocdev | strip")
		pins       = flag.String("pins", "", "comma separated GPIO names for driver=gpio, LED 0 first")
		chip       = flag.String("gpiochip", def.GPIOChip, "GPIO character device for driver=gpiocdev")
		spiDev     = flag.String("spi-dev", def.SPI.Dev, "SPI port for driver=strip")
		spiHz      = flag.Int("spi-speed-hz", def.SPI.SpeedHz, "NRZ bit rate for driver=strip")
		xFlip      = flag.Bool("x-flip-every-row", false, "serpentine: flip every row along X")
		speedMS    = flag.Int("speed-ms", def.SpeedMS, "milliseconds per character")
		bufSize    = flag.Int("buffer-size", def.BufferSize, "text buffer capacity")
		restart    = flag.Bool("restart-on-print", false, "restart the scroll on every print")
		enabled    = flag.Bool("enabled", def.Enabled, "display on at start")
		addr       = flag.String("addr", def.Addr, "HTTP listen address")
		level      = flag.String("log-level", def.LogLevel, "log level")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		text       = flag.String("text", "", "text to show at start")
		selfTest   = flag.String("selftest", "", "pattern to run before start: index_sweep | all_on | glyph_walk")
		stdin      = flag.Bool("stdin", false, "read console commands from stdin even when it is not a terminal")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg := &config.Config{
		Driver:         *driver,
		GPIOChip:       *chip,
		SPI:            config.SPI{Dev: *spiDev, SpeedHz: *spiHz},
		OnColor:        def.OnColor,
		XFlipEveryRow:  *xFlip,
		SpeedMS:        *speedMS,
		BufferSize:     *bufSize,
		RestartOnPrint: *restart,
		Enabled:        *enabled,
		Addr:           *addr,
		LogLevel:       *level,
	}
	if *pins != "" {
		cfg.Pins = strings.Split(*pins, ",")
	}

	// ---- Load config.yaml (optional) ----
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		cfg.Merge(c)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}

	// ---- Core ----
	bank := app.OpenBankOrSim(cfg)
	core, err := app.InitCore(cfg, bank)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *selfTest != "" {
		k, err := selftest.Parse(*selfTest)
		if err != nil {
			log.Fatal().Err(err).Msg("selftest")
		}
		if err := core.SelfTestDirect(ctx, k, 150*time.Millisecond); err != nil {
			log.Warn().Err(err).Msg("selftest aborted")
		}
	}

	// ---- State & routes ----
	state := ws.NewState(core.Screen, cfg, bank.Name)
	state.ConfigPath = *configPath
	state.RunTest = core.SelfTest
	core.Matrix.Observe(state.OnFrame)
	core.Diag.Add(state.OnDiag)
	core.Diag.Add(func(d diagnostics.Diagnostic) {
		log.Debug().Str("code", d.Code).Str("detail", d.Detail).Msg(d.Summary)
	})

	mux := http.NewServeMux()
	state.Routes(mux)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      ws.WithCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run loop, broadcaster & server ----
	go func() {
		if err := core.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event loop stopped")
		}
	}()
	go state.Run(ctx)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", bank.Name).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	if *text != "" {
		if _, err := core.Screen.Print(ctx, *text); err != nil {
			log.Warn().Err(err).Msg("initial text")
		}
	}

	// ---- Console ----
	done := make(chan struct{})
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive || *stdin {
		go func() {
			defer close(done)
			if err := console.New(core.Screen, os.Stdout).Run(ctx, os.Stdin, interactive); err != nil {
				log.Debug().Err(err).Msg("console")
			}
		}()
	}

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-ch:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case <-done:
		log.Info().Msg("console closed; shutting down")
	}

	cancel()
	<-core.Loop.Done()
	_ = srv.Close()
	if err := core.Close(); err != nil {
		log.Warn().Err(err).Msg("close LEDs")
	}
}
