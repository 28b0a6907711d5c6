package types

// RegistryCredentials holds basic auth credentials.
type RegistryCredentials struct {
	Username string `json:"username"` // Registry username.
	Password string `json:"password"` // Registry token or password.
}

// StoredConfig holds credentials read from a configuration source.
//
// An empty field means the source did not provide a value.
type StoredConfig struct {
	Username string
	Password string
	// Source names where the values came from, for diagnostics only.
	Source string
}

// IsEmpty reports whether the source provided neither field.
func (s StoredConfig) IsEmpty() bool {
	return s.Username == "" && s.Password == ""
}
