package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proxycheck/internal/shared/config"
	"proxycheck/internal/shared/logger"
	"proxycheck/internal/shared/types"
	manager "proxycheck/proxypool"
	"proxycheck/proxypool/storage"
	"proxycheck/proxypool/validator"
)

func main() {
	cfg := types.Default()

	configPath := flag.String("config", "", "Path to optional proxycheck.ini")
	testURL := flag.String("test-url", "", "URL to test proxies against (default: "+cfg.CheckerConf.TestURL+")")
	timeout := flag.Int("timeout", 0, "Request timeout in seconds (default: 10)")
	threads := flag.Int("threads", 0, "Number of concurrent workers (default: 20)")
	output := flag.String("output", "", "Output file for working proxies (default: "+cfg.CheckerConf.Output+")")
	protocol := flag.String("protocol", "", "Proxy protocol: http or socks5 (default: http)")
	logLevel := flag.String("log-level", "", "Log level (default: info)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <proxy_file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	proxyFile := flag.Arg(0)

	// 1. 加载 ini 与环境变量，命令行参数优先
	if err := config.LoadIni(cfg, *configPath); err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", *configPath, err)
		os.Exit(1)
	}
	applyFlags(cfg, *testURL, *timeout, *threads, *output, *protocol, *logLevel)

	// 2. 初始化日志系统
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// 3. 组装并运行批次
	v := validator.NewValidator(validator.Options{
		TestURL:     cfg.CheckerConf.TestURL,
		Timeout:     time.Duration(cfg.CheckerConf.TimeoutSeconds) * time.Second,
		Concurrency: cfg.CheckerConf.Concurrency,
		Protocol:    cfg.CheckerConf.Protocol,
		UserAgent:   cfg.CheckerConf.UserAgent,
	})
	st := storage.NewFileStorage(proxyFile, cfg.CheckerConf.Output)
	m := manager.NewManager(cfg, st, v, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := m.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msgf("Proxy check failed for '%s'", proxyFile)
	}
}

func applyFlags(cfg *types.Config, testURL string, timeout, threads int, output, protocol, logLevel string) {
	if testURL != "" {
		cfg.CheckerConf.TestURL = testURL
	}
	if timeout > 0 {
		cfg.CheckerConf.TimeoutSeconds = timeout
	}
	if threads > 0 {
		cfg.CheckerConf.Concurrency = threads
	}
	if output != "" {
		cfg.CheckerConf.Output = output
	}
	if protocol != "" {
		cfg.CheckerConf.Protocol = protocol
	}
	if logLevel != "" {
		cfg.LogConf.Level = logLevel
	}
}
