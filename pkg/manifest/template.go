package manifest

// New returns the starter manifest written by `zzz new`.
func New(name string) *Manifest {
	return &Manifest{
		Project: Project{
			Name:        name,
			Package:     name,
			Description: "",
			Version:     "0.1.0",
		},
		On: On{
			Run: []string{"echo hello from " + name},
		},
		Dependencies: Dependencies{
			Tools: []Tool{},
		},
	}
}

// FileName returns the file name `zzz new` creates for name.
func FileName(name string) string {
	return name + FileSuffix + ".yaml"
}
