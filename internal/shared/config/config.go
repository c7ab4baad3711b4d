package config

import (
	"os"
	"strconv"

	"gopkg.in/ini.v1"
	"proxycheck/internal/shared/types"
)

// LoadIni 将 proxycheck.ini 映射到 cfg 之上，并应用环境变量覆盖。
// fileName 为空时只应用环境变量。
func LoadIni(cfg *types.Config, fileName string) error {
	if fileName != "" {
		iniFile, err := ini.Load(fileName)
		if err != nil {
			return err
		}
		if err := iniFile.MapTo(cfg); err != nil {
			return err
		}
	}
	overrideFromEnvString(&cfg.CheckerConf.TestURL, "PROXYCHECK_TEST_URL")
	overrideFromEnvInt(&cfg.CheckerConf.Concurrency, "PROXYCHECK_CONCURRENCY")
	overrideFromEnvInt(&cfg.CheckerConf.TimeoutSeconds, "PROXYCHECK_TIMEOUT")
	return nil
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
