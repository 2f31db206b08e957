//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/aki-13627/animalia/internal/app"
	"github.com/aki-13627/animalia/internal/database"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		RuntimeInfraSet,
		RepositorySet,
		SecuritySet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}

func InitializeMigrationRunner() (*MigrationRunner, error) {
	panic(wire.Build(
		ConfigSet,
		database.Open,
		NewMigrationRunner,
	))
}
