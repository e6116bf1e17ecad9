// Package config loads the process configuration from the environment and builds
// the PostgreSQL connections and OpenTelemetry providers it asks for.
//
// All variables carry the RESERVATIONS_ prefix, e.g. RESERVATIONS_ENGINE=postgres.
// This package is part of the shell (infrastructure) layer.
package config
