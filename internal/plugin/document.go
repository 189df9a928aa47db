package plugin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"chk.szuro.net/pkg/check"
)

// ErrUnknownFunction is returned for a function name missing from the
// function table.
var ErrUnknownFunction = errors.New("unknown function")

// ErrMalformedDeclaration is returned for a check_info entry that is neither a
// four element list nor a mapping.
var ErrMalformedDeclaration = errors.New("malformed check declaration")

// rawDocument is the YAML layout of plugin and include files.
type rawDocument struct {
	CheckInfo          map[string]yaml.Node      `yaml:"check_info"`
	CheckIncludes      map[string][]string       `yaml:"check_includes"`
	CheckDefaultLevels map[string]string         `yaml:"check_default_levels"`
	FactorySettings    map[string]map[string]any `yaml:"factory_settings"`
	SNMPInfo           map[string]check.SNMPInfo `yaml:"snmp_info"`
	SNMPScanFunctions  map[string]string         `yaml:"snmp_scan_functions"`
	ActiveCheckInfo    map[string]map[string]any `yaml:"active_check_info"`
	SpecialAgentInfo   map[string]map[string]any `yaml:"special_agent_info"`
	Variables          map[string]any            `yaml:"variables"`
}

// Document is a decoded plugin file with every function name resolved.
// Applying it cannot fail, so a broken file never leaves half of its
// declarations behind.
type Document struct {
	Path string

	checks        map[string]check.RawDeclaration
	includes      map[string][]string
	defaultLevels map[string]string
	factory       map[string]map[string]any
	snmpInfo      map[string]check.SNMPInfo
	scan          map[string]check.ScanFunction
	active        map[string]check.Descriptor
	agents        map[string]check.Descriptor
	variables     map[string]any
}

// ReadDocument reads and decodes a plugin or include file.
func ReadDocument(path string, functions *check.FunctionTable) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data, functions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// ParseDocument decodes a plugin document. Unknown top-level keys are errors.
func ParseDocument(data []byte, functions *check.FunctionTable) (*Document, error) {
	var raw rawDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	doc := &Document{
		checks:        make(map[string]check.RawDeclaration, len(raw.CheckInfo)),
		includes:      raw.CheckIncludes,
		defaultLevels: raw.CheckDefaultLevels,
		factory:       raw.FactorySettings,
		snmpInfo:      raw.SNMPInfo,
		scan:          make(map[string]check.ScanFunction, len(raw.SNMPScanFunctions)),
		active:        make(map[string]check.Descriptor, len(raw.ActiveCheckInfo)),
		agents:        make(map[string]check.Descriptor, len(raw.SpecialAgentInfo)),
		variables:     raw.Variables,
	}

	for name, node := range raw.CheckInfo {
		decl, err := decodeDeclaration(&node, functions)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", name, err)
		}
		doc.checks[name] = decl
	}
	for name, fnName := range raw.SNMPScanFunctions {
		fn, ok := functions.Scan(fnName)
		if !ok {
			return nil, fmt.Errorf("%w: scan function %q for %s", ErrUnknownFunction, fnName, name)
		}
		doc.scan[name] = fn
	}
	for name, d := range raw.ActiveCheckInfo {
		doc.active[name] = check.Descriptor(d)
	}
	for name, d := range raw.SpecialAgentInfo {
		doc.agents[name] = check.Descriptor(d)
	}
	return doc, nil
}

// Checks returns the sorted names of the checks the document declares.
func (d *Document) Checks() []string {
	names := make([]string, 0, len(d.checks))
	for name := range d.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply writes the document into a plugin context.
func (d *Document) Apply(ctx check.Context) {
	for _, name := range d.Checks() {
		ctx.DeclareCheck(name, d.checks[name])
	}
	for section, includes := range d.includes {
		ctx.AddCheckIncludes(section, includes...)
	}
	for name, variable := range d.defaultLevels {
		ctx.SetDefaultLevelsVariable(name, variable)
	}
	for variable, value := range d.factory {
		if value == nil {
			value = map[string]any{}
		}
		ctx.SetFactorySettings(variable, value)
	}
	for name, info := range d.snmpInfo {
		ctx.SetSNMPInfo(name, info)
	}
	for name, fn := range d.scan {
		ctx.SetSNMPScanFunction(name, fn)
	}
	for name, desc := range d.active {
		ctx.DeclareActiveCheck(name, desc)
	}
	for name, desc := range d.agents {
		ctx.DeclareSpecialAgent(name, desc)
	}
	for name, value := range d.variables {
		ctx.Set(name, value)
	}
}

func decodeDeclaration(node *yaml.Node, functions *check.FunctionTable) (check.RawDeclaration, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		return decodeLegacy(node, functions)
	case yaml.MappingNode:
		return decodeDict(node, functions)
	default:
		return check.RawDeclaration{}, fmt.Errorf("%w: expected a list or a mapping at line %d", ErrMalformedDeclaration, node.Line)
	}
}

// decodeLegacy decodes [check_function, service_description, has_perfdata,
// discovery_function].
func decodeLegacy(node *yaml.Node, functions *check.FunctionTable) (check.RawDeclaration, error) {
	if len(node.Content) != 4 {
		return check.RawDeclaration{}, fmt.Errorf("%w: legacy declaration needs 4 elements, found %d",
			ErrMalformedDeclaration, len(node.Content))
	}
	var l check.LegacyDeclaration

	var checkName, discoveryName string
	if err := node.Content[0].Decode(&checkName); err != nil {
		return check.RawDeclaration{}, err
	}
	if err := node.Content[1].Decode(&l.ServiceDescription); err != nil {
		return check.RawDeclaration{}, err
	}
	if err := node.Content[2].Decode(&l.HasPerfdata); err != nil {
		return check.RawDeclaration{}, err
	}
	if err := node.Content[3].Decode(&discoveryName); err != nil {
		return check.RawDeclaration{}, err
	}

	var err error
	if l.CheckFunction, err = lookupCheck(functions, checkName); err != nil {
		return check.RawDeclaration{}, err
	}
	if l.DiscoveryFunction, err = lookupDiscovery(functions, discoveryName); err != nil {
		return check.RawDeclaration{}, err
	}
	return check.FromLegacy(l), nil
}

// decodeDict resolves the function names of a dict declaration. Keys it does
// not know are kept as they are, the normalizer reports them.
func decodeDict(node *yaml.Node, functions *check.FunctionTable) (check.RawDeclaration, error) {
	info := make(map[string]any, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]

		if value.Tag == "!!null" {
			info[key] = nil
			continue
		}

		var (
			decoded any
			err     error
		)
		switch key {
		case check.KeyCheckFunction:
			decoded, err = functionValue(value, func(name string) (any, error) {
				return lookupCheck(functions, name)
			})
		case check.KeyInventoryFunction:
			decoded, err = functionValue(value, func(name string) (any, error) {
				return lookupDiscovery(functions, name)
			})
		case check.KeyParseFunction:
			decoded, err = functionValue(value, func(name string) (any, error) {
				if fn, ok := functions.Parse(name); ok {
					return fn, nil
				}
				return nil, fmt.Errorf("%w: parse function %q", ErrUnknownFunction, name)
			})
		case check.KeySNMPScanFunction:
			decoded, err = functionValue(value, func(name string) (any, error) {
				if fn, ok := functions.Scan(name); ok {
					return fn, nil
				}
				return nil, fmt.Errorf("%w: scan function %q", ErrUnknownFunction, name)
			})
		case check.KeySNMPInfo:
			var info check.SNMPInfo
			if err = value.Decode(&info); err == nil {
				decoded = info
			}
		case check.KeyExtraSections, check.KeyIncludes:
			decoded, err = stringList(value)
		case check.KeyManagementBoard:
			var p string
			if err = value.Decode(&p); err == nil {
				decoded = check.Precedence(p)
			}
		default:
			err = value.Decode(&decoded)
		}
		if err != nil {
			return check.RawDeclaration{}, fmt.Errorf("key %s: %w", key, err)
		}
		info[key] = decoded
	}
	return check.FromDict(info), nil
}

// functionValue resolves a scalar function name. Non-scalar values are passed
// through undecoded so the normalizer can reject them.
func functionValue(node *yaml.Node, resolve func(string) (any, error)) (any, error) {
	if node.Kind != yaml.ScalarNode || node.Tag != "!!str" {
		var v any
		err := node.Decode(&v)
		return v, err
	}
	return resolve(node.Value)
}

func stringList(node *yaml.Node) (any, error) {
	if node.Kind != yaml.SequenceNode {
		var v any
		err := node.Decode(&v)
		return v, err
	}
	var list []string
	err := node.Decode(&list)
	return list, err
}

func lookupCheck(functions *check.FunctionTable, name string) (check.CheckFunction, error) {
	fn, ok := functions.Check(name)
	if !ok {
		return nil, fmt.Errorf("%w: check function %q", ErrUnknownFunction, name)
	}
	return fn, nil
}

// lookupDiscovery returns a nil function for checks that cannot be discovered.
func lookupDiscovery(functions *check.FunctionTable, name string) (check.DiscoveryFunction, error) {
	if name == "" || name == check.NoDiscoveryPossible {
		return nil, nil
	}
	fn, ok := functions.Discovery(name)
	if !ok {
		return nil, fmt.Errorf("%w: discovery function %q", ErrUnknownFunction, name)
	}
	return fn, nil
}
