package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/peerbridge/internal/config"
	"github.com/zeusync/peerbridge/internal/core/bridge"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
	"github.com/zeusync/peerbridge/internal/core/relay"
)

// Host is everything the connect command needs to drive a bridge.
type Host struct {
	Bridge *bridge.Bridge
	Router *bridge.Router
	Logger log.Log
}

// Peer is everything the relay command needs.
type Peer struct {
	Relay  *relay.Relay
	Logger log.Log
}

var LoggerSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
)

var HostSet = wire.NewSet(
	LoggerSet,
	ProvideRouter,
	ProvideHandler,
	ProvideBridge,
	wire.Struct(new(Host), "*"),
)

var PeerSet = wire.NewSet(
	LoggerSet,
	ProvideRelay,
	wire.Struct(new(Peer), "*"),
)

func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	logger, err := log.NewWithConfig(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideRouter(cfg *config.Config, logger log.Log) *bridge.Router {
	return bridge.NewRouter(cfg.Bridge.FieldSeparator, logger)
}

func ProvideHandler(router *bridge.Router) bridge.MessageHandler {
	return router.Dispatch
}

func ProvideBridge(cfg *config.Config, handler bridge.MessageHandler, logger log.Log) (*bridge.Bridge, func(), error) {
	b, err := bridge.New(cfg.Bridge, handler, logger)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Shutdown, nil
}

func ProvideRelay(cfg *config.Config, factory relay.SinkFactory, logger log.Log) (*relay.Relay, func(), error) {
	r, err := relay.New(cfg.Relay, factory, logger)
	if err != nil {
		return nil, nil, err
	}
	return r, func() { _ = r.Close() }, nil
}
