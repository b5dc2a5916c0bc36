package imagemeta

// SaveOption configures behavior when saving image files.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	err := img.Save(
//	    imagemeta.WithBackup(".bak"),
//	    imagemeta.WithValidation(),
//	)
type SaveOption func(*saveOptions)

// saveOptions holds configuration for saving files.
type saveOptions struct {
	backupSuffix    string // Suffix for backup file (e.g., ".bak")
	validate        bool   // Re-read after write to verify
	preserveModTime bool   // Keep original modification time
}

// defaultSaveOptions returns the default configuration for saving.
func defaultSaveOptions() *saveOptions {
	return &saveOptions{
		backupSuffix:    "",
		validate:        false,
		preserveModTime: false,
	}
}

// WithBackup creates a backup of the original file before saving.
//
// The backup file will have the specified suffix appended to the
// original filename. For example, WithBackup(".bak") will create
// "photo.jpg.bak" before modifying "photo.jpg".
//
// If the backup file already exists, it will be overwritten.
//
// Example:
//
//	err := img.Save(imagemeta.WithBackup(".bak"))
//	// Original file preserved as photo.jpg.bak
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-reads the file after writing to verify integrity.
//
// After saving, the file is re-opened and parsed to ensure the written
// metadata can be read back correctly. This adds overhead but provides
// confidence that the save operation succeeded.
//
// Example:
//
//	err := img.Save(imagemeta.WithValidation())
//	// File is re-read after save to verify
func WithValidation() SaveOption {
	return func(o *saveOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
//
// By default, saving updates the file's modification time to the current
// time. This option preserves the original modification time, which is
// useful when fixing metadata without disturbing sync tools or photo
// organizers keyed on timestamps.
//
// Example:
//
//	err := img.Save(imagemeta.WithPreserveModTime())
//	// File modification time unchanged
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) {
		o.preserveModTime = true
	}
}
