package idgen

import "fmt"

// Generator produces unique identifiers for messages, polls, and
// questions. Implementations are safe for concurrent use.
type Generator interface {
	Generate() (string, error)
	Validate(id string) (bool, string) // (valid, reason)
}

// Config selects and tunes the generator implementation.
type Config struct {
	Driver string       `mapstructure:"driver"` // "ulid", "ksuid", "nanoid"
	NanoID NanoIDConfig `mapstructure:"nanoid"`
}

// NanoIDConfig tunes the nanoid generator.
type NanoIDConfig struct {
	Size     int    `mapstructure:"size"`
	Alphabet string `mapstructure:"alphabet"`
}

/// New creates the configured Generator. ULID is the default: sortable
// IDs keep archived chat history in submission order without an extra
// sequence column.
func New(cfg Config) (Generator, error) {
	switch cfg.Driver {
	case "", "ulid":
		return NewULIDGenerator(), nil
	case "ksuid":
		return NewKSUIDGenerator(), nil
	case "nanoid":
		size := cfg.NanoID.Size
		if size == 0 {
			size = DefaultNanoIDSize
		}
		alphabet := cfg.NanoID.Alphabet
		if alphabet == "" {
			alphabet = DefaultNanoIDAlphabet
		}
		return NewNanoIDGenerator(size, alphabet)
	default:
		return nil, fmt.Errorf("unsupported id generator driver: %s", cfg.Driver)
	}
}
