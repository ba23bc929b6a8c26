// Package vmconfig loads VM/GC tuning from an optional lumen.toml next
// to the script being run, per SPEC_FULL.md §2.3.
package vmconfig

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config tunes the heap's collection thresholds and the VM's depth
// limits. vm.New treats a zero MaxFrames or MaxStack as "use package
// default"; heap.NewHeap uses InitialNextGC and HeapGrowFactor as given,
// so Load starts from Default() to keep them set.
type Config struct {
	InitialNextGC  int  `toml:"initial_next_gc"`
	HeapGrowFactor int  `toml:"heap_grow_factor"`
	StressGC       bool `toml:"stress_gc"`
	Trace          bool `toml:"trace"`
	GCLog          bool `toml:"gc_log"`
	MaxFrames      int  `toml:"max_frames"`
	MaxStack       int  `toml:"max_stack"`
}

// Default returns spec.md §4.5's defaults: 1 MiB initial next_gc
// threshold, heap-grow factor 2.
func Default() Config {
	return Config{
		InitialNextGC:  1 << 20,
		HeapGrowFactor: 2,
	}
}

// Load reads path if it exists, overlaying its values onto Default().
// A missing file is not an error — lumen.toml is optional.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
