package mcb

// Config configures a Main or a Node before construction.
type Config struct {
	// ExtMode selects the oversize-payload strategy this endpoint uses
	// when sending a string that does not fit the standard CFG_DATA slot.
	// Both peers on a bus must be configured with the same ExtMode.
	ExtMode ExtMode
	// Subnode is the endpoint's own identity. For a Node it is the fixed
	// identity stamped into every frame it answers and checked on every
	// frame it receives. A Main has no fixed identity of its own; the
	// target subnode is instead supplied per call (see mainCore.internalAccess),
	// so Subnode is ignored by NewMain and only meaningful for NewNode.
	Subnode byte
}

// Verify validates Config, returning ErrInvalidParameter if any field is
// out of range. No error (nil) means the Config is safe to use.
func (cfg *Config) Verify() error {
	switch cfg.ExtMode {
	case ExtModeSegmented, ExtModeExtended:
	default:
		return ErrInvalidParameter
	}
	if cfg.Subnode > 0x0F {
		return ErrInvalidParameter
	}
	return nil
}

// NewMain validates cfg and constructs a Main in its Init phase, bound to
// pi. pi is never dialed or closed by the core; it is the caller's
// physical-layer collaborator for the endpoint's entire lifetime.
func NewMain(cfg Config, pi PhysicalInterface) (*MainInit, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return &MainInit{core: mainCore{cfg: cfg, pi: pi}}, nil
}

// NewNode validates cfg and constructs a Node in its Init phase, bound to
// pi, with the fixed self-identity cfg.Subnode.
func NewNode(cfg Config, pi PhysicalInterface) (*NodeInit, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return &NodeInit{core: nodeCore{cfg: cfg, pi: pi}}, nil
}
