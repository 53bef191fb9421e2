// Package cmn provides common low-level types and utilities for all strata projects
package cmn

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

type (
	// Config encapsulates all configuration values used by a storage node.
	//
	// Naming convention for referring to particular fields is defined as
	// joining the json tags with dot, e.g. `erasure.data_slices`.
	Config struct {
		Node    NodeConf     `json:"node"`
		Log     LogConf      `json:"log"`
		Net     NetConf      `json:"net"`
		FSPaths FSPathsConf  `json:"fspaths"`
		Erasure ErasureConf  `json:"erasure"`
		Reg     RegistryConf `json:"registry"`
	}

	NodeConf struct {
		DataDir string `json:"data_dir"` // single-disk fallback location
	}

	LogConf struct {
		Level string `json:"level"`
		JSON  bool   `json:"json"`
	}

	NetConf struct {
		Hostname string `json:"hostname"`
		Port     int    `json:"port"`
		UseHTTPS bool   `json:"use_https"`
	}

	// FSPathsConf lists the local disk roots this node contributes,
	// grouped by the erasure-set geometry chosen at format time.
	FSPathsConf struct {
		Paths       []string `json:"paths"`
		DisksPerSet int      `json:"disks_per_set"`
	}

	ErasureConf struct {
		DataSlices      int    `json:"data_slices"`
		ParitySlices    int    `json:"parity_slices"`
		BlockSize       int64  `json:"block_size"`
		InlineThreshold int64  `json:"inline_threshold"`
		CksumAlgo       string `json:"checksum_algo"`
		VerifyCksum     bool   `json:"verify_checksums"`
	}

	RegistryConf struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"` // ":memory:" or a file path
	}

	globalConfigOwner struct {
		mtx sync.Mutex // protects updates
		c   unsafe.Pointer
	}
)

// GCO (Global Config Owner) holds the process-wide configuration, loaded
// at startup and then accessed by all services.
var GCO = &globalConfigOwner{}

func (gco *globalConfigOwner) Get() *Config {
	return (*Config)(atomic.LoadPointer(&gco.c))
}

func (gco *globalConfigOwner) Put(config *Config) {
	atomic.StorePointer(&gco.c, unsafe.Pointer(config))
}

// BeginUpdate must be followed by CommitUpdate or DiscardUpdate.
func (gco *globalConfigOwner) BeginUpdate() *Config {
	gco.mtx.Lock()
	clone := &Config{}
	*clone = *gco.Get()
	return clone
}

func (gco *globalConfigOwner) CommitUpdate(config *Config) {
	atomic.StorePointer(&gco.c, unsafe.Pointer(config))
	gco.mtx.Unlock()
}

func (gco *globalConfigOwner) DiscardUpdate() {
	gco.mtx.Unlock()
}

// DefaultConfig returns a fully populated single-node configuration.
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConf{DataDir: "/tmp/strata"},
		Log:  LogConf{Level: "info"},
		Net:  NetConf{Hostname: "", Port: 9000},
		Erasure: ErasureConf{
			DataSlices:      4,
			ParitySlices:    2,
			BlockSize:       DefaultBlockSize,
			InlineThreshold: DefaultInlineThreshold,
			CksumAlgo:       CksumBlake2b,
			VerifyCksum:     true,
		},
		Reg: RegistryConf{Enabled: false, Path: ":memory:"},
	}
}

func (c *Config) Validate() error {
	if err := c.Erasure.Validate(); err != nil {
		return err
	}
	if err := c.Net.Validate(); err != nil {
		return err
	}
	if c.FSPaths.DisksPerSet < 0 {
		return NewInvalidArgError("fspaths: negative disks_per_set %d", c.FSPaths.DisksPerSet)
	}
	return nil
}

func (c *ErasureConf) Validate() error {
	if c.DataSlices <= 0 || c.ParitySlices < 0 {
		return NewInvalidArgError("erasure: invalid geometry %d+%d", c.DataSlices, c.ParitySlices)
	}
	if c.BlockSize <= 0 {
		return NewInvalidArgError("erasure: invalid block size %d", c.BlockSize)
	}
	if c.InlineThreshold < 0 {
		return NewInvalidArgError("erasure: negative inline threshold %d", c.InlineThreshold)
	}
	switch c.CksumAlgo {
	case CksumBlake2b, CksumSHA256:
	default:
		return NewUnsupportedError("erasure: checksum algo %q", c.CksumAlgo)
	}
	return nil
}

func (c *NetConf) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return NewInvalidArgError("net: invalid port %d", c.Port)
	}
	return nil
}
