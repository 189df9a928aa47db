package check

import (
	"encoding/gob"
	"fmt"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Handshake is the shared configuration between chkd and function providers.
// This must match exactly between the daemon and all providers.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CHK_PROVIDER",
	MagicCookieValue: "check_function_provider",
}

// ProviderPluginName is the name providers are dispensed under.
const ProviderPluginName = "provider"

// FunctionKind tells what a provided function is used for.
type FunctionKind string

const (
	KindCheck     FunctionKind = "check"
	KindDiscovery FunctionKind = "discovery"
)

// FunctionSpec announces one function of a provider.
type FunctionSpec struct {
	Kind FunctionKind
	Name string
}

// Provider exposes check and discovery functions of an external executable.
// Sections and parameters cross the process boundary gob encoded, so they must
// be built from maps, slices and scalars.
type Provider interface {
	Functions() ([]FunctionSpec, error)
	Check(name string, item *string, params any, section any) (Result, error)
	Discover(name string, section any) ([]Discovered, error)
}

func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([][]string{})
}

// ProviderPlugin is the implementation of plugin.Plugin for function
// providers. It uses the net/rpc protocol of go-plugin.
type ProviderPlugin struct {
	// Impl is set in the provider process only.
	Impl Provider
}

// Server returns the RPC server for the provider process.
func (p *ProviderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ProviderRPCServer{Impl: p.Impl}, nil
}

// Client returns the provider stub used by the daemon.
func (p *ProviderPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ProviderRPC{client: c}, nil
}

// CheckArgs is the request of a remote check function call.
type CheckArgs struct {
	Name    string
	Item    *string
	Params  any
	Section any
}

// DiscoverArgs is the request of a remote discovery function call.
type DiscoverArgs struct {
	Name    string
	Section any
}

// ProviderRPC is the daemon side of a provider connection.
type ProviderRPC struct {
	client *rpc.Client
}

func (p *ProviderRPC) Functions() ([]FunctionSpec, error) {
	var resp []FunctionSpec
	if err := p.client.Call("Plugin.Functions", new(interface{}), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *ProviderRPC) Check(name string, item *string, params any, section any) (Result, error) {
	var resp Result
	err := p.client.Call("Plugin.Check", &CheckArgs{Name: name, Item: item, Params: params, Section: section}, &resp)
	return resp, err
}

func (p *ProviderRPC) Discover(name string, section any) ([]Discovered, error) {
	var resp []Discovered
	err := p.client.Call("Plugin.Discover", &DiscoverArgs{Name: name, Section: section}, &resp)
	return resp, err
}

// ProviderRPCServer is the provider side of a connection.
type ProviderRPCServer struct {
	Impl Provider
}

func (s *ProviderRPCServer) Functions(_ interface{}, resp *[]FunctionSpec) error {
	specs, err := s.Impl.Functions()
	*resp = specs
	return err
}

func (s *ProviderRPCServer) Check(args *CheckArgs, resp *Result) error {
	res, err := s.Impl.Check(args.Name, args.Item, args.Params, args.Section)
	*resp = res
	return err
}

func (s *ProviderRPCServer) Discover(args *DiscoverArgs, resp *[]Discovered) error {
	found, err := s.Impl.Discover(args.Name, args.Section)
	*resp = found
	return err
}

// TableProvider serves the check and discovery functions of a FunctionTable.
type TableProvider struct {
	Table *FunctionTable
}

func (p TableProvider) Functions() ([]FunctionSpec, error) {
	var specs []FunctionSpec
	for _, name := range p.Table.CheckNames() {
		specs = append(specs, FunctionSpec{Kind: KindCheck, Name: name})
	}
	for _, name := range p.Table.DiscoveryNames() {
		specs = append(specs, FunctionSpec{Kind: KindDiscovery, Name: name})
	}
	return specs, nil
}

func (p TableProvider) Check(name string, item *string, params any, section any) (Result, error) {
	fn, ok := p.Table.Check(name)
	if !ok {
		return Result{}, fmt.Errorf("unknown check function %q", name)
	}
	return fn(item, params, section), nil
}

func (p TableProvider) Discover(name string, section any) ([]Discovered, error) {
	fn, ok := p.Table.Discovery(name)
	if !ok {
		return nil, fmt.Errorf("unknown discovery function %q", name)
	}
	return fn(section), nil
}

// Serve runs a provider. It is called from the main function of the
// provider executable and does not return.
func Serve(impl Provider) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			ProviderPluginName: &ProviderPlugin{Impl: impl},
		},
	})
}
