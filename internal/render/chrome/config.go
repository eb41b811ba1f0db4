package chrome

import "time"

// Config holds the configuration for the headless Chrome renderer.
type Config struct {
	// Bin is the Chrome binary. Empty lets rod find or download one.
	Bin string
	// PoolSize is the number of pre-warmed incognito contexts to keep ready.
	PoolSize int
	// Timeout bounds one capture, navigation included.
	Timeout time.Duration
	// SettleDelay is waited after load so late layout and fonts land.
	SettleDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		PoolSize:    2,
		Timeout:     60 * time.Second,
		SettleDelay: 500 * time.Millisecond,
	}
}
