package peer

import (
	"fmt"
	"net/url"
	"strings"

	"nanowallet/config"
)

// Node identifies the peer endpoint the wallet is currently talking to.
type Node struct {
	// Network is the profile key the node was resolved from.
	Network string `json:"network"`
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Testnet bool   `json:"testnet,omitempty"`
	BaseURL string `json:"baseUrl"`
}

// NewNode resolves the endpoint for a network profile.
func NewNode(key string, network config.Network) (*Node, error) {
	base, err := network.BaseURL()
	if err != nil {
		return nil, fmt.Errorf("resolve node for %s: %w", key, err)
	}
	return &Node{
		Network: key,
		Name:    network.Name,
		Code:    network.Code,
		Testnet: network.Testnet,
		BaseURL: strings.TrimSuffix(base.String(), "/"),
	}, nil
}

// Clone returns a copy of the node, or nil.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cloned := *n
	return &cloned
}

func (n *Node) endpoint(path string, query url.Values) (string, error) {
	if n == nil || strings.TrimSpace(n.BaseURL) == "" {
		return "", ErrNoNode
	}
	base, err := url.Parse(n.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse node url: %w", err)
	}
	base.Path = strings.TrimSuffix(base.Path, "/") + path
	if len(query) > 0 {
		base.RawQuery = query.Encode()
	}
	return base.String(), nil
}
