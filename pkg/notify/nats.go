package notify

import (
	"strings"

	"github.com/nats-io/nats.go"
)

// NATS holds the connection settings of a nats client
type NATS struct {
	ClientID   string   `json:"clientID,omitempty" yaml:"clientID,omitempty" mapstructure:"client_id"`
	URLs       []string `json:"urls,omitempty" yaml:"urls,omitempty" mapstructure:"urls"`
	ClientCert string   `json:"clientCert,omitempty" yaml:"clientCert,omitempty" mapstructure:"client_cert"`
	ClientKey  string   `json:"clientKey,omitempty" yaml:"clientKey,omitempty" mapstructure:"client_key"`
	RootCAs    []string `json:"rootCAs,omitempty" yaml:"rootCAs,omitempty" mapstructure:"root_cas"`
}

// Connect to the nats servers. The connection satisfies Publisher.
func (n NATS) Connect() (*nats.Conn, error) {
	servers := n.URLs
	if len(servers) == 0 {
		servers = []string{nats.DefaultURL}
	}
	opts := []nats.Option{nats.Name(n.ClientID)}
	if len(n.RootCAs) > 0 {
		opts = append(opts, nats.RootCAs(n.RootCAs...))
	}
	if n.ClientCert != "" && n.ClientKey != "" {
		opts = append(opts, nats.ClientCert(n.ClientCert, n.ClientKey))
	}
	return nats.Connect(strings.Join(servers, ","), opts...)
}

var _ Publisher = (*nats.Conn)(nil)
