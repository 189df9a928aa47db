package plugin

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-plugin"

	"chk.szuro.net/internal/logger"
	"chk.szuro.net/pkg/check"
)

// ProviderRegistry manages function provider processes.
type ProviderRegistry struct {
	providers map[string]*LoadedProvider
	mutex     sync.RWMutex
}

// LoadedProvider is a running provider process.
type LoadedProvider struct {
	Name      string
	Path      string
	Client    *plugin.Client
	Provider  check.Provider
	Functions []check.FunctionSpec
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]*LoadedProvider)}
}

func newClient(name, path string) *plugin.Client {
	return plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: check.Handshake,
		Plugins: map[string]plugin.Plugin{
			check.ProviderPluginName: &check.ProviderPlugin{},
		},
		Cmd:              exec.Command(path),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           logger.NewHCLogAdapter(name),
	})
}

// LoadProvider starts the provider at path and registers its functions in
// functions as "<provider>.<function>".
func (pr *ProviderRegistry) LoadProvider(path string, functions *check.FunctionTable) error {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	pr.mutex.Lock()
	defer pr.mutex.Unlock()

	if _, exists := pr.providers[name]; exists {
		logger.Info("Provider already loaded", slog.String("name", name))
		return nil
	}

	logger.Info("Starting function provider", slog.String("path", path))

	client := newClient(name, path)
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return fmt.Errorf("failed to connect to provider %s: %w", name, err)
	}
	raw, err := rpcClient.Dispense(check.ProviderPluginName)
	if err != nil {
		client.Kill()
		return fmt.Errorf("failed to dispense provider %s: %w", name, err)
	}
	provider, ok := raw.(check.Provider)
	if !ok {
		client.Kill()
		return fmt.Errorf("provider %s did not return a valid provider client", name)
	}

	specs, err := RegisterProvider(name, provider, functions)
	if err != nil {
		client.Kill()
		return err
	}

	pr.providers[name] = &LoadedProvider{
		Name:      name,
		Path:      path,
		Client:    client,
		Provider:  provider,
		Functions: specs,
	}

	providerInfo.WithLabelValues(name).Set(float64(len(specs)))

	logger.Info("Function provider started",
		slog.String("name", name),
		slog.Int("functions", len(specs)))
	return nil
}

// RegisterProvider adds RPC backed functions for everything a provider
// announces, or none of them when one is rejected. Calls that fail over RPC
// yield an UNKNOWN result or no services.
func RegisterProvider(name string, provider check.Provider, functions *check.FunctionTable) ([]check.FunctionSpec, error) {
	specs, err := provider.Functions()
	if err != nil {
		return nil, fmt.Errorf("failed to list functions of provider %s: %w", name, err)
	}

	staged := check.NewFunctionTable()
	for _, spec := range specs {
		remote := spec.Name
		qualified := name + "." + remote
		switch spec.Kind {
		case check.KindCheck:
			err = staged.RegisterCheck(qualified, func(item *string, params any, section any) check.Result {
				res, err := provider.Check(remote, item, params, section)
				if err != nil {
					return check.Result{State: check.UNKNOWN, Summary: fmt.Sprintf("provider %s: %v", name, err)}
				}
				return res
			})
		case check.KindDiscovery:
			err = staged.RegisterDiscovery(qualified, func(section any) []check.Discovered {
				found, err := provider.Discover(remote, section)
				if err != nil {
					logger.Error("Discovery via provider failed",
						slog.String("provider", name),
						slog.String("function", remote),
						slog.Any("error", err))
					return nil
				}
				return found
			})
		default:
			err = fmt.Errorf("unknown function kind %q", spec.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
	}
	if err := functions.RegisterAll(staged); err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}
	return specs, nil
}

// LoadProvidersFromDir starts every executable in dir. Providers that fail
// are logged and skipped.
func (pr *ProviderRegistry) LoadProvidersFromDir(dir string, functions *check.FunctionTable) error {
	logger.Info("Loading function providers from directory", slog.String("dir", dir))

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return fmt.Errorf("failed to list provider files in %s: %w", dir, err)
	}

	var loadErrors []string
	loadedCount := 0
	for _, path := range matches {
		if p, err := exec.LookPath(path); err != nil || p == "" {
			continue
		}
		if err := pr.LoadProvider(path, functions); err != nil {
			logger.Error("Failed to load function provider", slog.String("path", path), slog.Any("error", err))
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		loadedCount++
	}

	if len(loadErrors) > 0 {
		logger.Warn("Failed to load some function providers", slog.String("errors", strings.Join(loadErrors, "; ")))
	}
	logger.Info("Loaded function providers", slog.Int("count", loadedCount))
	return nil
}

// GetProvider returns a running provider by name.
func (pr *ProviderRegistry) GetProvider(name string) (*LoadedProvider, bool) {
	pr.mutex.RLock()
	defer pr.mutex.RUnlock()

	p, ok := pr.providers[name]
	return p, ok
}

// CleanupAll kills every provider process.
func (pr *ProviderRegistry) CleanupAll() {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()

	for name, p := range pr.providers {
		logger.Info("Killing function provider", slog.String("name", name))
		p.Client.Kill()
		providerInfo.DeleteLabelValues(name)
	}
	pr.providers = make(map[string]*LoadedProvider)
}
