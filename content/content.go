// Package content embeds the default house definition shipped with the game.
package content

import _ "embed"

// House is the YAML definition of the default haunted house.
//
//go:embed house.yaml
var House []byte
