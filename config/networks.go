package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Network profile keys.
const (
	NetworkMainnet    = "mainnet"
	NetworkTestnet    = "testnet"
	NetworkCustomNode = "customNode"
)

// BuildDefaultNetwork is the profile used when no preference has been
// persisted. Release builds override it with
// -ldflags "-X nanowallet/config.BuildDefaultNetwork=testnet".
var BuildDefaultNetwork = NetworkMainnet

// TestNetwork is the profile forced when the service runs in test mode.
var TestNetwork = NetworkCustomNode

// Network describes how to reach the peers of one network.
type Network struct {
	Name    string `toml:"name" json:"name"`
	SSL     bool   `toml:"ssl" json:"ssl"`
	Port    int    `toml:"port" json:"port,omitempty"`
	Code    int    `toml:"code" json:"code"`
	Testnet bool   `toml:"testnet" json:"testnet,omitempty"`
	Custom  bool   `toml:"custom" json:"custom,omitempty"`
	Address string `toml:"address" json:"address,omitempty"`
	// Nodes lists the hostnames tried for non-custom networks.
	Nodes []string `toml:"nodes" json:"nodes,omitempty"`
}

// Networks maps profile keys to their definitions.
type Networks map[string]Network

// DefaultNetworks returns a fresh copy of the built-in profiles.
func DefaultNetworks() Networks {
	return Networks{
		NetworkMainnet: {
			Name:  "Mainnet",
			SSL:   true,
			Port:  443,
			Code:  0,
			Nodes: []string{"hub21.lisk.io", "hub22.lisk.io", "hub23.lisk.io"},
		},
		NetworkTestnet: {
			Name:    "Testnet",
			Testnet: true,
			SSL:     true,
			Port:    443,
			Code:    1,
			Nodes:   []string{"testnet.lisk.io"},
		},
		NetworkCustomNode: {
			Name:    "Custom Node",
			Custom:  true,
			Address: "http://localhost:4000",
			Code:    2,
		},
	}
}

// Keys returns the profile keys in a stable order.
func (n Networks) Keys() []string {
	keys := make([]string, 0, len(n))
	for key := range n {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the profile registered under key.
func (n Networks) Lookup(key string) (Network, error) {
	network, ok := n[strings.TrimSpace(key)]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q", key)
	}
	return network, nil
}

// BaseURL returns the root URL of the first node serving the network.
func (n Network) BaseURL() (*url.URL, error) {
	if n.Custom || strings.TrimSpace(n.Address) != "" {
		parsed, err := url.Parse(strings.TrimSpace(n.Address))
		if err != nil {
			return nil, fmt.Errorf("parse %s address: %w", n.Name, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("%s address must include scheme and host", n.Name)
		}
		return parsed, nil
	}
	if len(n.Nodes) == 0 {
		return nil, fmt.Errorf("network %s has no nodes", n.Name)
	}
	scheme := "http"
	if n.SSL {
		scheme = "https"
	}
	host := n.Nodes[0]
	if n.Port > 0 && !((n.SSL && n.Port == 443) || (!n.SSL && n.Port == 80)) {
		host = host + ":" + strconv.Itoa(n.Port)
	}
	return &url.URL{Scheme: scheme, Host: host}, nil
}

// ResolveDefaultNetwork selects the startup profile. A test run always gets
// the test profile; otherwise the persisted preference wins over the build
// default.
func ResolveDefaultNetwork(preferred, buildDefault string, test bool, testNetwork string) string {
	if test {
		return testNetwork
	}
	if trimmed := strings.TrimSpace(preferred); trimmed != "" {
		return trimmed
	}
	return buildDefault
}

type networksFile struct {
	Networks map[string]Network `toml:"networks"`
}

// LoadNetworks returns the built-in profiles merged with the overrides found
// in the TOML file at path. An empty path yields the defaults.
//
//	[networks.customNode]
//	address = "http://10.0.0.5:7000"
func LoadNetworks(path string) (Networks, error) {
	networks := DefaultNetworks()
	if strings.TrimSpace(path) == "" {
		return networks, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat networks file: %w", err)
	}
	var parsed networksFile
	meta, err := toml.DecodeFile(path, &parsed)
	if err != nil {
		return nil, fmt.Errorf("decode networks file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("networks file %s has unknown key %s", path, undecoded[0].String())
	}
	for key, override := range parsed.Networks {
		base, ok := networks[key]
		if !ok {
			networks[key] = override
			continue
		}
		if meta.IsDefined("networks", key, "name") {
			base.Name = override.Name
		}
		if meta.IsDefined("networks", key, "ssl") {
			base.SSL = override.SSL
		}
		if meta.IsDefined("networks", key, "port") {
			base.Port = override.Port
		}
		if meta.IsDefined("networks", key, "code") {
			base.Code = override.Code
		}
		if meta.IsDefined("networks", key, "address") {
			base.Address = override.Address
		}
		if meta.IsDefined("networks", key, "nodes") {
			base.Nodes = append([]string(nil), override.Nodes...)
		}
		networks[key] = base
	}
	return networks, nil
}
