// Package migrations embeds the goose SQL files so the migrator binary and
// integration tests apply the same schema.
package migrations

import "embed"

// FS holds every *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS

// Channel is the LISTEN channel the change trigger notifies on.
const Channel = "game_changes"
