package store

// SystemSettingSchemaVersion tracks the applied schema version.
const SystemSettingSchemaVersion = "schema_version"

// SystemSetting is a name-value pair of instance-level bookkeeping state.
type SystemSetting struct {
	Name  string
	Value string
}

// FindSystemSetting specifies the conditions for finding a system setting.
type FindSystemSetting struct {
	Name string
}
