package v1

// ServerConfigKind is the only accepted value of ServerConfig.Kind.
const ServerConfigKind = "TimeServer"

type ServerConfig struct {
	Kind     string           `yaml:"kind" json:"kind" validate:"required,eq=TimeServer"`
	Metadata Metadata         `yaml:"metadata" json:"metadata"`
	Spec     ServerConfigSpec `yaml:"spec" json:"spec"`
}

type Metadata struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

type ServerConfigSpec struct {
	// DefaultTimezone is used when a request omits a timezone argument. Defaults to "UTC".
	DefaultTimezone string `yaml:"defaultTimezone,omitempty" json:"defaultTimezone,omitempty" validate:"omitempty,timezone"`

	// TimezoneDatabase selects where zone rules are loaded from (default: system).
	TimezoneDatabase *TimezoneDatabaseSpec `yaml:"timezoneDatabase,omitempty" json:"timezoneDatabase,omitempty"`
}

// TimezoneDatabaseSpec configures the timezone database (one of the fields should be set).
type TimezoneDatabaseSpec struct {
	System    *SystemDatabaseSpec    `yaml:"system,omitempty" json:"system,omitempty"`
	Directory *DirectoryDatabaseSpec `yaml:"directory,omitempty" json:"directory,omitempty"`
}

// SystemDatabaseSpec uses the Go runtime's zoneinfo lookup (no options currently).
type SystemDatabaseSpec struct{}

// DirectoryDatabaseSpec reads TZif files from a zoneinfo tree.
type DirectoryDatabaseSpec struct {
	// Path is the root of the zoneinfo tree, e.g. /usr/share/zoneinfo.
	Path string `yaml:"path" json:"path" validate:"required"`
}
