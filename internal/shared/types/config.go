package types

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
	// File 为空时只输出到 stderr
	File       string `ini:"file"`
	MaxSizeMB  int    `ini:"max_size_mb"`
	MaxBackups int    `ini:"max_backups"`
}

// CheckerConf 包含代理检测批次的配置
type CheckerConf struct {
	TestURL        string `ini:"test_url"`
	TimeoutSeconds int    `ini:"timeout_seconds"`
	Concurrency    int    `ini:"concurrency"`
	Output         string `ini:"output"`
	Protocol       string `ini:"protocol"` // "http" 或 "socks5"
	UserAgent      string `ini:"user_agent"`
}

// Config 是 proxycheck 的统一配置结构体
type Config struct {
	LogConf     `ini:"log"`
	CheckerConf `ini:"checker"`
}

// Default 返回带有默认值的配置。
func Default() *Config {
	return &Config{
		LogConf: LogConf{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		CheckerConf: CheckerConf{
			TestURL:        "http://httpbin.org/ip",
			TimeoutSeconds: 10,
			Concurrency:    20,
			Output:         "working_proxies.txt",
			Protocol:       "http",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
	}
}
