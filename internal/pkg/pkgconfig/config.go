package pkgconfig

import "time"

// Config reads typed values by dotted key (for example "server.address.http").
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetDuration(key string) time.Duration
	GetStrings(key string) []string
	Close() error
}
