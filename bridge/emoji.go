package bridge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed emoji.json
var emojiJSON []byte

// emojiTable returns the shortcode-to-glyph table, decoded once per process.
// The table is read-only after loading.
var emojiTable = sync.OnceValue(func() map[string]string {
	var table map[string]string
	if err := json.Unmarshal(emojiJSON, &table); err != nil {
		panic(fmt.Sprintf("bridge: embedded emoji table is invalid: %v", err))
	}
	return table
})
