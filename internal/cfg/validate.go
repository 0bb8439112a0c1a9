package cfg

import (
	"fmt"
	"strconv"

	"downtube/internal/domain/consts"
	"downtube/internal/domain/keys"
	"downtube/internal/utils/logging"

	"github.com/spf13/viper"
)

// validateViperFlags checks and clamps flag values after parsing.
func validateViperFlags() error {
	verifyConcurrencyLimit()
	verifyInactivityTimeout()

	if err := verifyPort(); err != nil {
		return err
	}

	if lvl := viper.GetInt(keys.DebugLevel); lvl > 0 {
		logging.Level = lvl
		logging.I("Debugging level: %d", lvl)
	}
	return nil
}

// verifyConcurrencyLimit clamps the simultaneous download count.
func verifyConcurrencyLimit() {
	limit := viper.GetInt(keys.ConcurrencyLimit)

	switch {
	case limit < consts.MinConcurrency:
		logging.W("Concurrency limit %d is below the minimum, using %d", limit, consts.MinConcurrency)
		limit = consts.MinConcurrency
	case limit > consts.MaxConcurrency:
		logging.W("Concurrency limit %d is above the maximum, using %d", limit, consts.MaxConcurrency)
		limit = consts.MaxConcurrency
	}
	viper.Set(keys.ConcurrencyLimit, limit)
}

// verifyInactivityTimeout rejects nonsensical stall windows.
func verifyInactivityTimeout() {
	secs := viper.GetInt(keys.InactivityTimeout)
	if secs <= 0 {
		secs = int(consts.WorkerInactivityTimeout.Seconds())
	}
	viper.Set(keys.InactivityTimeout, secs)
}

func verifyPort() error {
	port := viper.GetString(keys.Port)
	if port == "" {
		return nil
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}
