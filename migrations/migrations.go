// Package migrations embeds the goose SQL migrations of every backend.
package migrations

import "embed"

// MySQL holds the migrations of the Places mirror and the user tables
//
//go:embed mysql/*.sql
var MySQL embed.FS

// ClickHouse holds the migrations of the columnar places table
//
//go:embed clickhouse/*.sql
var ClickHouse embed.FS
