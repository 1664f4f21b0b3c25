// Package di provides dependency injection container
package di

import (
	"log/slog"

	"github.com/ssargent/namereg/pkg/api" //nolint:depguard
	"github.com/ssargent/namereg/pkg/ledger"
)

// LedgerFactory opens the ledger backing the registry
type LedgerFactory interface {
	OpenLedger(config ledger.Config, logger *slog.Logger) (*ledger.Ledger, error)
}

// DefaultLedgerFactory opens a pebble-backed ledger on disk, or in memory
// when config.InMemory is set.
type DefaultLedgerFactory struct{}

// OpenLedger opens the ledger described by config
func (DefaultLedgerFactory) OpenLedger(config ledger.Config, logger *slog.Logger) (*ledger.Ledger, error) {
	return ledger.Open(config, ledger.WithLogger(logger))
}

// Container holds all the dependencies for the application
type Container struct {
	ledgerFactory LedgerFactory
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		ledgerFactory: DefaultLedgerFactory{},
		serverFactory: api.NewServerFactory(),
	}
}

// GetLedgerFactory returns the ledger factory
func (c *Container) GetLedgerFactory() LedgerFactory {
	return c.ledgerFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetLedgerFactory allows overriding the ledger factory (for testing)
func (c *Container) SetLedgerFactory(factory LedgerFactory) {
	c.ledgerFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
