package config

// ConfigBackend abstracts the platform's native settings store.
// On macOS that is UserDefaults under the com.liquidbooks.app domain,
// elsewhere a JSON file in the XDG config directory.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
