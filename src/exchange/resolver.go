package exchange

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"pair-analysis/src/exchange/binance"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
)

// Factory builds an exchange client from configuration.
type Factory func(cfg models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) interfaces.IExchange

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"binance": func(cfg models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) interfaces.IExchange {
			return binance.NewBinanceExchange(cfg, netMgr, log)
		},
	}
)

// -----------------------------------------------------------------------------

// Register adds or replaces an exchange factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = f
}

// -----------------------------------------------------------------------------

// Supported lists the registered exchange names.
func Supported() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------

// LoadExchange resolves cfg.Exchange.Name to a client.
func LoadExchange(cfg models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) (interfaces.IExchange, error) {
	name := strings.ToLower(cfg.Exchange.Name)

	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("exchange %q is not supported (supported: %s)", cfg.Exchange.Name, strings.Join(Supported(), ", "))
	}

	ex := f(cfg, netMgr, log)
	log.Info("Using exchange %s", ex.Name())
	return ex, nil
}
