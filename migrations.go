// Package bountywatch embeds resources shared by the commands, such as the
// SQL migrations of the postgres snapshot backend.
package bountywatch

import "embed"

// Migrations holds the goose migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
