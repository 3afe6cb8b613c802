//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/peerbridge/internal/config"
	"github.com/zeusync/peerbridge/internal/core/relay"
)

func InitializeHost(cfg *config.Config) (*Host, func(), error) {
	wire.Build(HostSet)
	return nil, nil, nil
}

func InitializePeer(cfg *config.Config, factory relay.SinkFactory) (*Peer, func(), error) {
	wire.Build(PeerSet)
	return nil, nil, nil
}
